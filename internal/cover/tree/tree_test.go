package tree

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/sphere"
)

func randomPoints(rng *rand.Rand, n int) []sphere.Point {
	points := make([]sphere.Point, n)
	for i := range points {
		points[i] = sphere.NewPoint(math.Acos(2*rng.Float64()-1), 2*math.Pi*rng.Float64()-math.Pi)
	}
	return points
}

func buildTree(t *testing.T, points []sphere.Point, fn DistanceFunction) *Tree[string] {
	t.Helper()
	tr := NewTree[string](1.3, fn)
	for i, p := range points {
		idx := tr.Insert(strconv.Itoa(i), NewPoint(p))
		require.Equal(t, int32(i), idx)
	}
	return tr
}

func scanDistances(q sphere.Point, points []sphere.Point, fn DistanceFunc) []float64 {
	out := make([]float64, len(points))
	qp := NewPoint(q)
	for i, p := range points {
		out[i] = fn(qp, NewPoint(p))
	}
	sort.Float64s(out)
	return out
}

func TestTree_KNearestNeighbors(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := randomPoints(rng, 400)
	for _, fn := range []DistanceFunction{DistanceFunctionGreatCircle, DistanceFunctionChord} {
		for _, strategy := range []BoundStrategy{BoundPerNode, BoundLevel} {
			tr := buildTree(t, points, fn)
			tr.SetBoundStrategy(strategy)
			for trial := 0; trial < 20; trial++ {
				q := randomPoints(rng, 1)[0]
				k := 1 + rng.Intn(10)
				want := scanDistances(q, points, GreatCircleDistance)[:k]

				df, err := tr.KNearestNeighbors(NewPoint(q), k)
				require.NoError(t, err)
				bf, err := tr.KNearestNeighborsBestFirst(NewPoint(q), k)
				require.NoError(t, err)
				assert.Equal(t, want, distances(df), "depth-first %s/%d", fn, strategy)
				assert.Equal(t, want, distances(bf), "best-first %s/%d", fn, strategy)
			}
		}
	}
}

func distances(ns []*Neighbor) []float64 {
	out := make([]float64, len(ns))
	for i, n := range ns {
		out[i] = n.Distance
	}
	return out
}

func TestTree_CoverInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tr := buildTree(t, randomPoints(rng, 200), DistanceFunctionGreatCircle)
	var walk func(n *Node)
	walk = func(n *Node) {
		for i := range n.children {
			child := &n.children[i]
			assert.Equal(t, n.level-1, child.level)
			assert.Less(t, tr.distanceFunc(n.point, child.point), n.baseLevel)
			walk(child)
		}
	}
	walk(tr.root)
	assert.Greater(t, tr.root.baseLevel, math.Pi)
}

func TestTree_ScenarioReturnsK(t *testing.T) {
	points := []sphere.Point{
		sphere.FromDegrees(90, 0),
		sphere.FromDegrees(90, 180),
		sphere.FromDegrees(90, 90),
		sphere.FromDegrees(90, -90),
		sphere.FromDegrees(0, 0),
		sphere.FromDegrees(180, 0),
	}
	tr := buildTree(t, points, DistanceFunctionGreatCircle)
	q := NewPoint(sphere.NewPoint(math.Pi/2, -math.Pi+(2*math.Pi/100)*54))
	got, err := tr.KNearestNeighbors(q, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "0", tr.Value(got[0].Point))
	assert.Equal(t, "2", tr.Value(got[1].Point))
}

func TestTree_DuplicatesAndValues(t *testing.T) {
	p := sphere.FromDegrees(45, 45)
	tr := buildTree(t, []sphere.Point{p, p, p}, DistanceFunctionGreatCircle)
	got, err := tr.KNearestNeighbors(NewPoint(p), 5)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, n := range got {
		assert.Equal(t, 0.0, n.Distance)
	}
	points := []*Point{tr.FindPointByIndex(2), tr.FindPointByIndex(0), nil, NewPoint(p)}
	assert.Equal(t, []string{"2", "0"}, tr.Values(points))
	assert.Nil(t, tr.FindPointByIndex(9))
	assert.Equal(t, "", tr.Value(nil))
	assert.Equal(t, 3, tr.Len())
}

func TestTree_EmptyAndInvalidK(t *testing.T) {
	tr := NewTree[int](0, "unknown")
	assert.Equal(t, DistanceFunctionGreatCircle, tr.Distance())
	got, err := tr.KNearestNeighbors(NewPoint(sphere.NewPoint(0, 0)), 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	tr.Insert(1, NewPoint(sphere.NewPoint(0, 0)))
	_, err = tr.KNearestNeighbors(NewPoint(sphere.NewPoint(0, 0)), 0)
	assert.Error(t, err)
}

func TestTree_WarmRadii(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tr := buildTree(t, randomPoints(rng, 150), DistanceFunctionGreatCircle)
	require.NoError(t, tr.WarmRadii(context.Background(), 4))
	assert.Equal(t, tr.version, tr.root.radiusComputed)
	for i := range tr.root.children {
		assert.Equal(t, tr.version, tr.root.children[i].radiusComputed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr.Insert("late", NewPoint(sphere.NewPoint(1, 1)))
	if len(tr.root.children) > 0 {
		assert.ErrorIs(t, tr.WarmRadii(ctx, 2), context.Canceled)
	}
}
