// Package index defines a minimal abstraction for sphere point indexes that
// can be built from (id, point) pairs, queried for kNN, and serialized for
// persistence. Every implementation funnels visited points through a
// knn.NearestSet and prunes with its bound.
package index
