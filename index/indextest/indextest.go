// Package indextest holds the behavioral checks every index.Index
// implementation must pass.
package indextest

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/sphere"
)

// ScenarioIDs and ScenarioPoints are six points on the axes of the unit
// sphere; the fourth uses a negative azimuth on purpose.
var (
	ScenarioIDs    = []string{"x+", "x-", "y+", "y-", "z+", "z-"}
	ScenarioPoints = []sphere.Point{
		sphere.FromDegrees(90, 0),
		sphere.FromDegrees(90, 180),
		sphere.FromDegrees(90, 90),
		sphere.FromDegrees(90, -90),
		sphere.FromDegrees(0, 0),
		sphere.FromDegrees(180, 0),
	}
)

// ScenarioQuery is the equatorial query point at step 54 of a 100-step sweep
// of azimuth over [-π, π).
func ScenarioQuery() sphere.Point {
	return sphere.NewPoint(math.Pi/2, -math.Pi+(2*math.Pi/100)*54)
}

// Run exercises an implementation produced by newIndex.
func Run(t *testing.T, newIndex func() index.Index) {
	t.Helper()
	t.Run("scenario", func(t *testing.T) { scenario(t, newIndex) })
	t.Run("sweep", func(t *testing.T) { sweep(t, newIndex) })
	t.Run("random", func(t *testing.T) { random(t, newIndex) })
	t.Run("within", func(t *testing.T) { within(t, newIndex) })
	t.Run("empty", func(t *testing.T) { empty(t, newIndex) })
	t.Run("roundtrip", func(t *testing.T) { roundTrip(t, newIndex) })
	t.Run("mismatch", func(t *testing.T) {
		assert.Error(t, newIndex().Build([]string{"a"}, nil))
	})
}

func scenario(t *testing.T, newIndex func() index.Index) {
	idx := newIndex()
	require.NoError(t, idx.Build(ScenarioIDs, ScenarioPoints))
	ids, distances, err := idx.Query(ScenarioQuery(), 3)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Len(t, distances, 3)
	assert.Equal(t, "x+", ids[0])
	assert.Equal(t, "y+", ids[1])
	assert.Contains(t, []string{"z+", "z-"}, ids[2])
	assert.InDelta(t, math.Pi/2, distances[2], 1e-12)
}

// sweep repeats the scenario over the whole azimuth sweep, with both
// spellings of the negative-azimuth point.
func sweep(t *testing.T, newIndex func() index.Index) {
	wrapped := append([]sphere.Point(nil), ScenarioPoints...)
	wrapped[3] = sphere.FromDegrees(90, 270)
	for _, points := range [][]sphere.Point{ScenarioPoints, wrapped} {
		idx := newIndex()
		require.NoError(t, idx.Build(ScenarioIDs, points))
		for j := 0; j < 100; j++ {
			q := sphere.NewPoint(math.Pi/2, -math.Pi+(2*math.Pi/100)*float64(j))
			for k := 1; k <= len(points); k++ {
				ids, distances, err := idx.Query(q, k)
				require.NoError(t, err)
				require.Len(t, ids, k, "j=%d k=%d", j, k)
				assertMatchesScan(t, q, points, k, distances)
			}
		}
	}
}

func random(t *testing.T, newIndex func() index.Index) {
	rng := rand.New(rand.NewSource(7))
	n := 300
	ids := make([]string, n)
	points := make([]sphere.Point, n)
	for i := range points {
		ids[i] = strconv.Itoa(i)
		points[i] = sphere.NewPoint(math.Acos(2*rng.Float64()-1), 2*math.Pi*rng.Float64()-math.Pi)
	}
	idx := newIndex()
	require.NoError(t, idx.Build(ids, points))
	for trial := 0; trial < 25; trial++ {
		q := sphere.NewPoint(math.Acos(2*rng.Float64()-1), 4*math.Pi*rng.Float64())
		k := 1 + rng.Intn(12)
		got, distances, err := idx.Query(q, k)
		require.NoError(t, err)
		require.Len(t, got, k)
		assertMatchesScan(t, q, points, k, distances)
		for i, id := range got {
			p := points[mustAtoi(t, id)]
			assert.Equal(t, sphere.Distance(q, p), distances[i])
		}
	}

	all, _, err := idx.Query(sphere.NewPoint(0, 0), 0)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

// within checks QueryWithin against a filtered scan for indexes that
// implement index.RangeIndex.
func within(t *testing.T, newIndex func() index.Index) {
	idx, ok := newIndex().(index.RangeIndex)
	if !ok {
		t.Skip("index does not implement index.RangeIndex")
	}
	rng := rand.New(rand.NewSource(13))
	n := 250
	ids := make([]string, n)
	points := make([]sphere.Point, n)
	for i := range points {
		ids[i] = strconv.Itoa(i)
		points[i] = sphere.NewPoint(math.Acos(2*rng.Float64()-1), 2*math.Pi*rng.Float64()-math.Pi)
	}
	require.NoError(t, idx.Build(ids, points))
	for trial := 0; trial < 20; trial++ {
		q := sphere.NewPoint(math.Acos(2*rng.Float64()-1), 2*math.Pi*rng.Float64()-math.Pi)
		radius := 0.1 + rng.Float64()
		want := []float64{}
		for _, p := range points {
			if d := sphere.Distance(q, p); d <= radius {
				want = append(want, d)
			}
		}
		sort.Float64s(want)

		_, distances, err := idx.QueryWithin(q, 0, radius)
		require.NoError(t, err)
		assert.Equal(t, want, nonNil(distances), "trial %d", trial)

		k := 1 + rng.Intn(5)
		_, distances, err = idx.QueryWithin(q, k, radius)
		require.NoError(t, err)
		assert.Equal(t, want[:min(k, len(want))], nonNil(distances), "trial %d k=%d", trial, k)
	}
	_, _, err := idx.QueryWithin(ScenarioQuery(), 3, -1)
	assert.Error(t, err)
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

func empty(t *testing.T, newIndex func() index.Index) {
	idx := newIndex()
	require.NoError(t, idx.Build(nil, nil))
	ids, distances, err := idx.Query(sphere.NewPoint(1, 1), 3)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, distances)
}

func roundTrip(t *testing.T, newIndex func() index.Index) {
	idx := newIndex()
	require.NoError(t, idx.Build(ScenarioIDs, ScenarioPoints))
	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := newIndex()
	require.NoError(t, restored.UnmarshalBinary(data))
	want, wantDist, err := idx.Query(ScenarioQuery(), 4)
	require.NoError(t, err)
	got, gotDist, err := restored.Query(ScenarioQuery(), 4)
	require.NoError(t, err)
	assert.Equal(t, wantDist, gotDist)
	assert.Len(t, got, len(want))
}

// assertMatchesScan compares the returned distances with the k smallest
// distances of an exhaustive scan.
func assertMatchesScan(t *testing.T, q sphere.Point, points []sphere.Point, k int, distances []float64) {
	t.Helper()
	all := make([]float64, len(points))
	for i, p := range points {
		all[i] = sphere.Distance(q, p)
	}
	sort.Float64s(all)
	assert.Equal(t, all[:k], distances, "query %v", q)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	v, err := strconv.Atoi(s)
	require.NoError(t, err)
	return v
}
