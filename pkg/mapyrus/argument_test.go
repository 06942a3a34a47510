package mapyrus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberFormatting(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{0, "0"},
		{42, "42"},
		{-17, "-17"},
		{0.25, "0.25"},
		{0.01, "0.01"},
		{0.009, "9e-03"},
		{1e7, "10000000"},
		{1.5e7, "1.5e+07"},
		{-0.001, "-1e-03"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NewNumericArgument(c.value).StringValue())
	}
}

func TestNumericValueOfStrings(t *testing.T) {
	v, err := NewStringArgument(" 42.5 ").NumericValue()
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)

	_, err = NewStringArgument("pineapple").NumericValue()
	require.Error(t, err)
	assert.Equal(t, ErrEval, err.(Err).Reason())
}

func TestTruthValue(t *testing.T) {
	assert.True(t, NewNumericArgument(3).TruthValue())
	assert.False(t, NewNumericArgument(0).TruthValue())
	assert.True(t, NewStringArgument("hello").TruthValue())
	assert.False(t, NewStringArgument("").TruthValue())
	assert.False(t, NewStringArgument("0.0").TruthValue())

	h := NewHashmapArgument()
	assert.False(t, h.TruthValue())
	h.SetHashMapEntry("k", NewNumericArgument(1))
	assert.True(t, h.TruthValue())
}

func TestHashmapInsertionOrder(t *testing.T) {
	h := NewHashmapArgument()
	h.SetHashMapEntry("zebra", NewNumericArgument(1))
	h.SetHashMapEntry("aardvark", NewNumericArgument(2))
	h.SetHashMapEntry("mongoose", NewNumericArgument(3))
	// updating an existing key keeps its original position
	h.SetHashMapEntry("zebra", NewNumericArgument(9))

	assert.Equal(t, []string{"zebra", "aardvark", "mongoose"}, h.HashMapKeys())
	assert.Equal(t, 3, h.HashMapSize())
	assert.Equal(t, "9", h.HashMapEntry("zebra").StringValue())
	assert.Equal(t, "{zebra: 9, aardvark: 2, mongoose: 3}", h.StringValue())
}

func TestHashmapMissingKey(t *testing.T) {
	h := NewHashmapArgument()
	v := h.HashMapEntry("nope")
	assert.Equal(t, "", v.StringValue())
	assert.Equal(t, StringType, v.Type())
}

func TestGeometryWKT(t *testing.T) {
	point := NewGeometryArgument(GeometryPoint,
		[]float64{1, SegmentMoveTo, 5, 7})
	assert.Equal(t, "POINT (5 7)", point.StringValue())

	line := NewGeometryArgument(GeometryLineString,
		[]float64{3, SegmentMoveTo, 0, 0, SegmentLineTo, 10, 0, SegmentLineTo, 10, 5})
	assert.Equal(t, "LINESTRING (0 0, 10 0, 10 5)", line.StringValue())

	polygon := NewGeometryArgument(GeometryPolygon, []float64{
		8,
		SegmentMoveTo, 0, 0, SegmentLineTo, 10, 0,
		SegmentLineTo, 10, 10, SegmentLineTo, 0, 10,
		SegmentMoveTo, 2, 2, SegmentLineTo, 4, 2,
		SegmentLineTo, 4, 4, SegmentLineTo, 2, 4,
	})
	assert.Equal(t,
		"POLYGON ((0 0, 10 0, 10 10, 0 10), (2 2, 4 2, 4 4, 2 4))",
		polygon.StringValue())

	multi := NewGeometryArgument(GeometryMultiPoint,
		[]float64{2, SegmentMoveTo, 1, 2, SegmentMoveTo, 3, 4})
	assert.Equal(t, "MULTIPOINT ((1 2), (3 4))", multi.StringValue())
}

func TestEmptyGeometryIsNull(t *testing.T) {
	empty := NewGeometryArgument(GeometryLineString, []float64{0})
	assert.Equal(t, "NULL", empty.StringValue())
}

func TestGeometryHasNoNumericValue(t *testing.T) {
	point := NewGeometryArgument(GeometryPoint,
		[]float64{1, SegmentMoveTo, 5, 7})
	_, err := point.NumericValue()
	assert.Error(t, err)
}
