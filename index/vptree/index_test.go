package vptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/bruteforce"
	"github.com/viant/sphere-knn/index/indextest"
	"github.com/viant/sphere-knn/sphere"
)

func TestIndex(t *testing.T) {
	indextest.Run(t, func() index.Index { return &Index{} })
}

func TestIndex_SharesBruteForceFormat(t *testing.T) {
	bf := &bruteforce.Index{}
	require.NoError(t, bf.Build(indextest.ScenarioIDs, indextest.ScenarioPoints))
	data, err := bf.MarshalBinary()
	require.NoError(t, err)

	vp := &Index{}
	require.NoError(t, vp.UnmarshalBinary(data))
	assert.Equal(t, len(indextest.ScenarioPoints), vp.Len())

	ids, _, err := vp.Query(sphere.FromDegrees(90, 0), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x+"}, ids)
}

func TestIndex_TreeShape(t *testing.T) {
	vp := &Index{}
	require.NoError(t, vp.Build(indextest.ScenarioIDs, indextest.ScenarioPoints))
	// last point is the root vantage point
	require.NotNil(t, vp.root)
	assert.Equal(t, len(indextest.ScenarioPoints)-1, vp.root.idx)
	assert.Equal(t, len(indextest.ScenarioPoints), countNodes(vp.root))
}

func countNodes(n *node) int {
	if n == nil {
		return 0
	}
	return 1 + countNodes(n.left) + countNodes(n.right)
}

func TestIndex_InvalidQuery(t *testing.T) {
	vp := &Index{}
	require.NoError(t, vp.Build(indextest.ScenarioIDs, indextest.ScenarioPoints))
	_, _, err := vp.Query(sphere.NewPoint(-1, 0), 1)
	assert.Error(t, err)
}
