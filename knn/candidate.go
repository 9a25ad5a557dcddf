package knn

import (
	"math"
	"sort"
)

// Candidate is a point reference scored against the query.
type Candidate struct {
	Index    int
	Distance float64
}

// entry is a held candidate plus its arrival sequence, used to break ties.
type entry struct {
	Candidate
	seq uint64
}

// Comparator orders candidates by distance. Distances reaching a comparator
// have already passed ValidDistance, so there is no NaN to order; equal
// distances are resolved by arrival, earlier arrivals ranking closer.
type Comparator func(a, b Candidate, seqA, seqB uint64) int

// DistanceOrder is the comparator used by NearestSet.
func DistanceOrder(a, b Candidate, seqA, seqB uint64) int {
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	case seqA < seqB:
		return -1
	case seqA > seqB:
		return 1
	}
	return 0
}

// ValidDistance reports whether d can be ordered by DistanceOrder.
func ValidDistance(d float64) bool {
	return d >= 0 && !math.IsInf(d, 1) && !math.IsNaN(d)
}

// Sort orders candidates by ascending distance, ties by ascending index.
func Sort(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Index < candidates[j].Index
	})
}
