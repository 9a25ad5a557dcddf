package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sphere-knn/sphere"
)

func TestEncodeDecode(t *testing.T) {
	ids := []string{"a", "", "long-identifier"}
	points := []sphere.Point{sphere.NewPoint(0, 0), sphere.NewPoint(1.5, -3), sphere.FromDegrees(180, 270)}

	data, err := Encode(ids, points)
	require.NoError(t, err)
	gotIDs, gotPoints, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ids, gotIDs)
	assert.Equal(t, points, gotPoints)

	_, _, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrTruncated)
	_, _, err = Decode(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestEncode_LengthMismatch(t *testing.T) {
	_, err := Encode([]string{"a"}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.ErrorIs(t, Validate([]string{"a"}, nil), ErrLengthMismatch)
	assert.Error(t, Validate([]string{"a"}, []sphere.Point{sphere.NewPoint(-1, 0)}))
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil, nil)
	require.NoError(t, err)
	ids, points, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, points)
}
