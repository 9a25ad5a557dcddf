package nearest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/search"
	"github.com/viant/sphere-knn/sphere"
)

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func TestParseIndexOptions(t *testing.T) {
	testCases := []struct {
		description string
		args        []string
		expect      indexOptions
	}{
		{description: "defaults", expect: indexOptions{kind: search.KindAuto}},
		{
			description: "cover tuned",
			args:        []string{"index=cover", "cover_base=2", "cover_bound=level", "cover_distance=chord", "cover_parallel=4", "cover_search=best_first"},
			expect: indexOptions{kind: search.KindCover, cover: coverOptions{
				base: 2, useBound: true, bound: cover.BoundLevel, useDistance: true,
				distance: cover.DistanceFunctionChord, bestFirst: true, parallel: 4,
			}},
		},
		{
			description: "ignores malformed",
			args:        []string{"index=kd", "cover_base=0.5", "cover_parallel=x", "noise", " index = 'vptree' "},
			expect:      indexOptions{kind: search.KindVPTree},
		},
		{
			description: "auto parallel",
			args:        []string{"cover_parallel=auto"},
			expect:      indexOptions{kind: search.KindAuto, cover: coverOptions{autoParallel: true}},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, parseIndexOptions(testCase.args))
		})
	}
	assert.Len(t, parseIndexOptions([]string{"cover_base=3", "cover_parallel=auto"}).cover.toIndexOptions(), 2)
}

func TestDecodeMatchArg(t *testing.T) {
	want := sphere.NewPoint(1.25, -0.5)
	testCases := []struct {
		description string
		arg         any
		expectErr   bool
	}{
		{description: "blob", arg: sphere.EncodePoint(want)},
		{description: "json array", arg: "[1.25, -0.5]"},
		{description: "json object", arg: `{"polar": 1.25, "azimuth": -0.5}`},
		{description: "csv", arg: " 1.25 , -0.5 "},
		{description: "base64", arg: "AAAAAAAA9D8AAAAAAADgvw=="},
		{description: "short blob", arg: []byte{1, 2}, expectErr: true},
		{description: "triple", arg: "[1, 2, 3]", expectErr: true},
		{description: "polar out of range", arg: "[4, 0]", expectErr: true},
		{description: "empty", arg: "  ", expectErr: true},
		{description: "number", arg: int64(3), expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			p, err := decodeMatchArg(testCase.arg)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(p), "got %v", p)
		})
	}
}

func TestInvalidateCache(t *testing.T) {
	s, err := search.Build(t.Context(), search.KindBrute, []string{"a"}, []sphere.Point{sphere.NewPoint(0, 0)})
	require.NoError(t, err)
	for _, key := range []string{
		cacheKey("/tmp/x.db", "inv", "d1"),
		cacheKey("/tmp/x.db", "inv", "d2"),
		cacheKey("/tmp/y.db", "inv", "d1"),
		cacheKey("/tmp/x.db", "other", "d1"),
	} {
		getCacheEntry(key).set(s)
	}
	assert.Equal(t, 2, InvalidateCache("main._nearest_inv", "d1"))
	assert.Nil(t, getCacheEntry(cacheKey("/tmp/x.db", "inv", "d1")).get())
	assert.NotNil(t, getCacheEntry(cacheKey("/tmp/x.db", "inv", "d2")).get())
	assert.Equal(t, 3, InvalidateCache("_nearest_inv", ""))
	assert.NotNil(t, getCacheEntry(cacheKey("/tmp/x.db", "other", "d1")).get())
}

func TestShadowNames(t *testing.T) {
	assert.Equal(t, "main._nearest_places", QualifiedShadow("main", "places"))
	assert.Equal(t, "_nearest_places", QualifiedShadow("", "places"))
	assert.Equal(t, "places", tableNameFromShadow("main._nearest_places"))
	assert.Equal(t, "places", tableNameFromShadow("_nearest_places"))
	assert.Equal(t, "", tableNameFromShadow("places"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}
