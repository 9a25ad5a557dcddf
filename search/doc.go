// Package search runs nearest-neighbor queries over an index.Index, alone or
// in parallel batches, and chooses index implementations by kind.
package search
