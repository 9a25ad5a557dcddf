package index

import "github.com/viant/sphere-knn/knn"

// Results orders extracted candidates by ascending distance and resolves
// their ids.
func Results(ids []string, candidates []knn.Candidate) ([]string, []float64) {
	knn.Sort(candidates)
	outIDs := make([]string, len(candidates))
	outDistances := make([]float64, len(candidates))
	for i, c := range candidates {
		outIDs[i] = ids[c.Index]
		outDistances[i] = c.Distance
	}
	return outIDs, outDistances
}

// Capacity resolves the set capacity for a query: k <= 0 or k > n means n.
func Capacity(k, n int) int {
	if k <= 0 || k > n {
		return n
	}
	return k
}
