// Package cover provides a cover-tree index over sphere points. Pruning uses
// either cached per-node subtree radii or the level radius implied by the
// cover invariant, with depth-first or best-first traversal.
package cover
