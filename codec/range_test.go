package codec

import (
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func TestRangeRoundTripsBoundedInclusiveExclusive(t *testing.T) {
	c := NewRangeCodec(oid.Int4Range, "int4range", int4Elem())

	in := Range{
		Lower: int32(1), HasLower: true, LowerInc: true,
		Upper: int32(10), HasUpper: true, UpperInc: false,
	}

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Range)
	require.Equal(t, int32(1), out.Lower)
	require.Equal(t, int32(10), out.Upper)
	require.True(t, out.LowerInc)
	require.False(t, out.UpperInc)
	require.False(t, out.Empty)
}

func TestRangeRoundTripsEmpty(t *testing.T) {
	c := NewRangeCodec(oid.Int4Range, "int4range", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Range{Empty: true}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.True(t, got.(Range).Empty)
}

func TestRangeRoundTripsUnboundedSides(t *testing.T) {
	c := NewRangeCodec(oid.Int4Range, "int4range", int4Elem())

	in := Range{Upper: int32(5), HasUpper: true, UpperInc: false}

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Range)
	require.False(t, out.HasLower)
	require.True(t, out.HasUpper)
	require.Equal(t, int32(5), out.Upper)
}

func TestRangeAcceptsOneElementSliceShorthand(t *testing.T) {
	c := NewRangeCodec(oid.Int4Range, "int4range", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []any{int32(3)}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Range)
	require.True(t, out.HasLower)
	require.True(t, out.LowerInc)
	require.Equal(t, int32(3), out.Lower)
	require.False(t, out.HasUpper)
	require.False(t, out.Empty)
}

func TestRangeAcceptsTwoElementSliceShorthand(t *testing.T) {
	c := NewRangeCodec(oid.Int4Range, "int4range", int4Elem())

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []any{int32(1), int32(2)}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Range)
	require.True(t, out.LowerInc)
	require.True(t, out.UpperInc)
	require.Equal(t, int32(1), out.Lower)
	require.Equal(t, int32(2), out.Upper)
}
