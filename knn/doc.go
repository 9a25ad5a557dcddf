// Package knn keeps the k best candidates seen by a nearest-neighbor
// traversal and reports the pruning bound the traversal uses to skip
// subtrees.
//
// A NearestSet serves exactly one query on one goroutine:
//
//	set, err := knn.New(3)
//	for each visited point i {
//		if bound, _ := set.Bound(); lowerBound(region) >= bound { skip }
//		set.Consider(i, metric(query, point[i]))
//	}
//	best, _ := set.Extract()
//
// Extract returns the held candidates in no particular order; use Sort when
// an ordered answer is needed.
package knn
