package codec

import (
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func int4Elem() *Codec { return intCodec(oid.Int4, "int4", 4) }

func TestArrayRoundTripsFlatSlice(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []int32{1, 2, 3}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3)}, got)
}

func TestArrayRoundTripsEmptySlice(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []int32{}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{}, got)
}

func TestArrayPreservesNullElements(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []any{int32(1), nil, int32(3)}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), nil, int32(3)}, got)
}

func TestArrayRoundTripsNestedSlice(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, [][]int32{{1, 2}, {3, 4}}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{
		[]any{int32(1), int32(2)},
		[]any{int32(3), int32(4)},
	}, got)
}

func TestArrayRejectsRaggedShape(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	err := c.EncodeValue(w, nil, [][]int32{{1, 2}, {3}})
	require.Error(t, err)
	require.Empty(t, w.View(), "ragged shape must be rejected before any bytes are written")
}

func TestArrayEncodesNilSliceAsEmptyArray(t *testing.T) {
	c := NewArrayCodec(oid.Int4Array, "int4[]", int4Elem())

	w := buffer.NewWriter(nil)
	var s []int32
	require.NoError(t, c.EncodeValue(w, nil, s))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{}, got)
}
