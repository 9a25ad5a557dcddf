package knn

import (
	"fmt"
	"math"

	"github.com/viant/sphere-knn/internal/pq"
)

// State is the lifecycle position of a NearestSet.
type State int

const (
	// Collecting holds fewer than k candidates; no pruning is safe yet.
	Collecting State = iota
	// Full holds exactly k candidates.
	Full
	// Extracted is terminal.
	Extracted
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Full:
		return "full"
	case Extracted:
		return "extracted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// NearestSet retains the k closest candidates presented through Consider.
// A candidate only displaces the current worst when strictly closer, so among
// equal distances the earliest arrival is kept.
//
// NearestSet is not safe for concurrent use.
type NearestSet struct {
	k         int
	limit     float64
	seq       uint64
	order     Comparator
	heap      *pq.Heap[entry]
	extracted bool
}

// New creates an empty set with capacity k.
func New(k int) (*NearestSet, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, k)
	}
	s := &NearestSet{k: k, limit: math.Inf(1), order: DistanceOrder}
	worstFirst := func(a, b entry) bool {
		return s.order(a.Candidate, b.Candidate, a.seq, b.seq) > 0
	}
	initial := k
	if initial > 1024 {
		initial = 1024
	}
	s.heap = pq.New(worstFirst, initial)
	return s, nil
}

// NewWithin creates an empty set with capacity k that only keeps candidates
// no farther than radius. Its bound starts at radius instead of +Inf.
func NewWithin(k int, radius float64) (*NearestSet, error) {
	if math.IsNaN(radius) || radius < 0 {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidDistance, radius)
	}
	s, err := New(k)
	if err != nil {
		return nil, err
	}
	s.limit = radius
	return s, nil
}

// K returns the capacity.
func (s *NearestSet) K() int { return s.k }

// Len returns the number of held candidates.
func (s *NearestSet) Len() int {
	if s.extracted {
		return 0
	}
	return s.heap.Len()
}

// State reports the lifecycle state.
func (s *NearestSet) State() State {
	switch {
	case s.extracted:
		return Extracted
	case s.heap.Len() == s.k:
		return Full
	}
	return Collecting
}

// Consider registers a visited candidate.
func (s *NearestSet) Consider(index int, distance float64) error {
	if s.extracted {
		return ErrUseAfterExtract
	}
	if !ValidDistance(distance) {
		return fmt.Errorf("%w: index %d, distance %v", ErrInvalidDistance, index, distance)
	}
	e := entry{Candidate: Candidate{Index: index, Distance: distance}, seq: s.seq}
	s.seq++
	if distance > s.limit {
		return nil
	}
	if s.heap.Len() < s.k {
		s.heap.Push(e)
		return nil
	}
	// e arrived last, so it ranks ahead of worst only when strictly closer.
	worst, _ := s.heap.Top()
	if s.order(e.Candidate, worst.Candidate, e.seq, worst.seq) < 0 {
		s.heap.ReplaceTop(e)
	}
	return nil
}

// Bound returns the distance of the worst held candidate once k are held,
// and +Inf (the radius for NewWithin sets) before that.
func (s *NearestSet) Bound() (float64, error) {
	if s.extracted {
		return 0, ErrUseAfterExtract
	}
	if s.heap.Len() < s.k {
		return s.limit, nil
	}
	worst, _ := s.heap.Top()
	return worst.Distance, nil
}

// Extract returns the held candidates, unordered, and retires the set.
func (s *NearestSet) Extract() ([]Candidate, error) {
	if s.extracted {
		return nil, ErrUseAfterExtract
	}
	s.extracted = true
	held := s.heap.Drain()
	out := make([]Candidate, len(held))
	for i, e := range held {
		out[i] = e.Candidate
	}
	return out, nil
}
