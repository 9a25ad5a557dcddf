package search

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/bruteforce"
	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/index/indextest"
	"github.com/viant/sphere-knn/knn"
	"github.com/viant/sphere-knn/sphere"
)

func TestSearcher_Scenario(t *testing.T) {
	for _, kind := range []Kind{KindBrute, KindVPTree, KindCover, KindAuto} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := Build(context.Background(), kind, indextest.ScenarioIDs, indextest.ScenarioPoints)
			require.NoError(t, err)
			result, err := s.Search(context.Background(), indextest.ScenarioQuery(), 3)
			require.NoError(t, err)
			assert.True(t, result.Complete())
			require.Len(t, result.Matches, 3)
			assert.Equal(t, []string{"x+", "y+"}, result.IDs()[:2])
			assert.Contains(t, []string{"z+", "z-"}, result.Matches[2].ID)
		})
	}
}

func TestSearcher_Incomplete(t *testing.T) {
	s, err := Build(context.Background(), KindBrute, indextest.ScenarioIDs[:2], indextest.ScenarioPoints[:2])
	require.NoError(t, err)
	result, err := s.Search(context.Background(), indextest.ScenarioQuery(), 5)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)
	assert.False(t, result.Complete())

	all, err := s.Search(context.Background(), indextest.ScenarioQuery(), 0)
	require.NoError(t, err)
	assert.True(t, all.Complete())
	assert.Len(t, all.Matches, 2)
}

// queryOnly hides QueryWithin so SearchWithin takes the filtering path.
type queryOnly struct {
	index.Index
}

func TestSearcher_SearchWithin(t *testing.T) {
	ctx := context.Background()
	for _, kind := range []Kind{KindBrute, KindVPTree, KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			s, err := Build(ctx, kind, indextest.ScenarioIDs, indextest.ScenarioPoints,
				WithCoverOptions(cover.WithBestFirst(true)))
			require.NoError(t, err)
			_, ranged := s.Index().(index.RangeIndex)
			require.True(t, ranged)

			plain, err := New(queryOnly{s.Index()})
			require.NoError(t, err)
			for _, searcher := range []*Searcher{s, plain} {
				result, err := searcher.SearchWithin(ctx, indextest.ScenarioQuery(), 0, 1.5)
				require.NoError(t, err)
				assert.Equal(t, []string{"x+", "y+"}, result.IDs())

				result, err = searcher.SearchWithin(ctx, indextest.ScenarioQuery(), 1, 1.5)
				require.NoError(t, err)
				assert.Equal(t, []string{"x+"}, result.IDs())

				result, err = searcher.SearchWithin(ctx, indextest.ScenarioQuery(), 3, 0.1)
				require.NoError(t, err)
				assert.Empty(t, result.Matches)
			}

			_, err = s.SearchWithin(ctx, indextest.ScenarioQuery(), 3, -1)
			assert.ErrorIs(t, err, knn.ErrInvalidDistance)
			_, err = plain.SearchWithin(ctx, indextest.ScenarioQuery(), 3, -1)
			assert.ErrorIs(t, err, ErrInvalidRadius)
		})
	}
}

func TestSearcher_Batch(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var (
		ids    []string
		points []sphere.Point
	)
	for i := 0; i < 200; i++ {
		ids = append(ids, string(rune('a'+i%26))+string(rune('0'+i/26)))
		points = append(points, sphere.NewPoint(rng.Float64()*3.14159, rng.Float64()*6.28318-3.14159))
	}
	queries := make([]sphere.Point, 40)
	for i := range queries {
		queries[i] = sphere.NewPoint(rng.Float64()*3.14159, rng.Float64()*6.28318)
	}

	reference, err := New(&bruteforce.Index{})
	require.NoError(t, err)
	require.NoError(t, reference.Index().Build(ids, points))

	s, err := Build(context.Background(), KindCover, ids, points,
		WithParallelism(4),
		WithCoverOptions(cover.WithBestFirst(true)),
	)
	require.NoError(t, err)
	results, err := s.SearchBatch(context.Background(), queries, 7)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for i, q := range queries {
		expect, err := reference.Search(context.Background(), q, 7)
		require.NoError(t, err)
		assert.Equal(t, expect.IDs(), results[i].IDs(), "query %d", i)
	}
}

func TestSearcher_Errors(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilIndex)

	_, err = ParseKind("kd")
	assert.ErrorIs(t, err, ErrUnknownKind)

	s, err := Build(context.Background(), KindBrute, indextest.ScenarioIDs, indextest.ScenarioPoints)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Search(ctx, indextest.ScenarioQuery(), 1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.SearchBatch(context.Background(), []sphere.Point{{Polar: 4}}, 1)
	var invalid *sphere.InvalidPointError
	assert.ErrorAs(t, err, &invalid)
}

func TestParseKind(t *testing.T) {
	testCases := []struct {
		input  string
		expect Kind
	}{
		{input: "", expect: KindAuto},
		{input: "Brute", expect: KindBrute},
		{input: "vp", expect: KindVPTree},
		{input: " cover ", expect: KindCover},
	}
	for _, testCase := range testCases {
		kind, err := ParseKind(testCase.input)
		require.NoError(t, err, testCase.input)
		assert.Equal(t, testCase.expect, kind, testCase.input)
	}
	assert.Equal(t, KindBrute, KindAuto.Resolve(10))
	assert.Equal(t, KindVPTree, KindAuto.Resolve(100))
	assert.Equal(t, KindCover, KindAuto.Resolve(5000))
	assert.Equal(t, KindBrute, KindBrute.Resolve(5000))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Build(context.Background(), KindVPTree, indextest.ScenarioIDs, indextest.ScenarioPoints, WithLogger(logger.WithK(3)))
	require.NoError(t, err)
	_, err = s.Search(context.Background(), indextest.ScenarioQuery(), 3)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "index built")
	assert.Contains(t, out, "index=vptree")
	assert.Contains(t, out, "search completed")
	assert.Contains(t, out, "results=3")
}
