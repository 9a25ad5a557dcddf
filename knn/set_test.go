package knn

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidCapacity(t *testing.T) {
	for _, k := range []int{0, -1, -100} {
		set, err := New(k)
		assert.Nil(t, set)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "k=%d", k)
	}
}

func TestNearestSet_FewerThanK(t *testing.T) {
	set, err := New(5)
	require.NoError(t, err)
	require.NoError(t, set.Consider(7, 0.3))
	require.NoError(t, set.Consider(2, 0.1))

	bound, err := set.Bound()
	require.NoError(t, err)
	assert.True(t, math.IsInf(bound, 1))
	assert.Equal(t, Collecting, set.State())

	got, err := set.Extract()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Candidate{{Index: 7, Distance: 0.3}, {Index: 2, Distance: 0.1}}, got)
}

func TestNearestSet_TiesWithWorstAreRejected(t *testing.T) {
	set, err := New(2)
	require.NoError(t, err)
	require.NoError(t, set.Consider(0, 1))
	require.NoError(t, set.Consider(1, 2))
	assert.Equal(t, Full, set.State())

	require.NoError(t, set.Consider(2, 2))
	require.NoError(t, set.Consider(3, 2))
	bound, err := set.Bound()
	require.NoError(t, err)
	assert.Equal(t, 2.0, bound)

	require.NoError(t, set.Consider(4, 1.5))
	bound, err = set.Bound()
	require.NoError(t, err)
	assert.Equal(t, 1.5, bound)

	got, err := set.Extract()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Candidate{{Index: 0, Distance: 1}, {Index: 4, Distance: 1.5}}, got)
}

func TestNearestSet_EqualWorstEvictsLatestArrival(t *testing.T) {
	set, err := New(2)
	require.NoError(t, err)
	require.NoError(t, set.Consider(0, 1))
	require.NoError(t, set.Consider(1, 1))
	require.NoError(t, set.Consider(2, 0.5))

	got, err := set.Extract()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Candidate{{Index: 0, Distance: 1}, {Index: 2, Distance: 0.5}}, got)
}

func TestNearestSet_InvalidDistance(t *testing.T) {
	set, err := New(1)
	require.NoError(t, err)
	for _, d := range []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, set.Consider(1, d), ErrInvalidDistance, "distance %v", d)
	}
	assert.Equal(t, 0, set.Len())
	require.NoError(t, set.Consider(1, 0))
	assert.Equal(t, 1, set.Len())
}

func TestNearestSet_UseAfterExtract(t *testing.T) {
	set, err := New(1)
	require.NoError(t, err)
	require.NoError(t, set.Consider(1, 0.2))
	_, err = set.Extract()
	require.NoError(t, err)

	assert.Equal(t, Extracted, set.State())
	assert.Equal(t, 0, set.Len())
	assert.ErrorIs(t, set.Consider(2, 0.1), ErrUseAfterExtract)
	_, err = set.Bound()
	assert.ErrorIs(t, err, ErrUseAfterExtract)
	_, err = set.Extract()
	assert.ErrorIs(t, err, ErrUseAfterExtract)
}

func TestNearestSet_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		k := 1 + rng.Intn(8)
		n := rng.Intn(40)
		stream := make([]Candidate, n)
		for i := range stream {
			// coarse values force plenty of ties
			stream[i] = Candidate{Index: i, Distance: float64(rng.Intn(10)) / 4}
		}

		set, err := New(k)
		require.NoError(t, err)
		prev := math.Inf(1)
		for i, c := range stream {
			require.NoError(t, set.Consider(c.Index, c.Distance))
			bound, err := set.Bound()
			require.NoError(t, err)
			if i+1 < k {
				assert.True(t, math.IsInf(bound, 1))
			}
			assert.LessOrEqual(t, bound, prev, "bound must never loosen")
			prev = bound
		}
		got, err := set.Extract()
		require.NoError(t, err)

		want := append([]Candidate(nil), stream...)
		sort.SliceStable(want, func(i, j int) bool { return want[i].Distance < want[j].Distance })
		if len(want) > k {
			want = want[:k]
		}
		assert.ElementsMatch(t, want, got, "trial %d k=%d n=%d", trial, k, n)
	}
}

func TestNewWithin(t *testing.T) {
	for _, radius := range []float64{-0.1, math.NaN()} {
		set, err := NewWithin(3, radius)
		assert.Nil(t, set)
		assert.ErrorIs(t, err, ErrInvalidDistance, "radius=%v", radius)
	}
	_, err := NewWithin(0, 1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	set, err := NewWithin(2, 1.5)
	require.NoError(t, err)
	bound, err := set.Bound()
	require.NoError(t, err)
	assert.Equal(t, 1.5, bound)

	require.NoError(t, set.Consider(0, 2))
	require.NoError(t, set.Consider(1, 1.5))
	require.NoError(t, set.Consider(2, 0.5))
	assert.Equal(t, Full, set.State())
	bound, err = set.Bound()
	require.NoError(t, err)
	assert.Equal(t, 1.5, bound)

	require.NoError(t, set.Consider(3, 0.7))
	got, err := set.Extract()
	require.NoError(t, err)
	assert.ElementsMatch(t, []Candidate{{Index: 2, Distance: 0.5}, {Index: 3, Distance: 0.7}}, got)
}

func TestNewWithin_InfiniteRadiusMatchesNew(t *testing.T) {
	set, err := NewWithin(2, math.Inf(1))
	require.NoError(t, err)
	bound, err := set.Bound()
	require.NoError(t, err)
	assert.True(t, math.IsInf(bound, 1))
	require.NoError(t, set.Consider(0, 3))
	assert.Equal(t, 1, set.Len())
}

func TestSort(t *testing.T) {
	got := []Candidate{{Index: 3, Distance: 2}, {Index: 1, Distance: 1}, {Index: 0, Distance: 2}}
	Sort(got)
	assert.Equal(t, []Candidate{{Index: 1, Distance: 1}, {Index: 0, Distance: 2}, {Index: 3, Distance: 2}}, got)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "collecting", Collecting.String())
	assert.Equal(t, "full", Full.String())
	assert.Equal(t, "extracted", Extracted.String())
	assert.Equal(t, "State(9)", State(9).String())
}
