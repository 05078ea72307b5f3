package codec

import (
	"math"
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, c *Codec, enc buffer.TextEncoder, value any) any {
	t.Helper()

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, enc, value))

	got, err := c.DecodeValue(w.View(), enc)
	require.NoError(t, err)
	return got
}

func TestScalarRoundTrips(t *testing.T) {
	tests := []struct {
		name  string
		codec *Codec
		value any
	}{
		{"bool true", boolCodec(), true},
		{"bool false", boolCodec(), false},
		{"int2", intCodec(oid.Int2, "int2", 2), int16(-1234)},
		{"int4", intCodec(oid.Int4, "int4", 4), int32(123456789)},
		{"int8", intCodec(oid.Int8, "int8", 8), int64(-9223372036854775807)},
		{"oid", oidCodec(oid.OIDType, "oid"), oid.OID(16385)},
		{"float4", float4Codec(), float32(3.5)},
		{"float8", float8Codec(), float64(-2.71828)},
		{"bytea", byteaCodec(), []byte{0x00, 0xff, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.codec, nil, tt.value)
			require.EqualValues(t, tt.value, got)
		})
	}
}

func TestFloat4RoundTripLosesNoPrecisionForExactValues(t *testing.T) {
	c := float4Codec()
	got := roundTrip(t, c, nil, float32(1.25))
	require.Equal(t, float32(1.25), got)
}

func TestFloat8HandlesSpecialValues(t *testing.T) {
	c := float8Codec()

	got := roundTrip(t, c, nil, math.Inf(1))
	require.True(t, math.IsInf(got.(float64), 1))

	got = roundTrip(t, c, nil, math.NaN())
	require.True(t, math.IsNaN(got.(float64)))
}

func TestVoidCodecRoundTripsEmptyPayload(t *testing.T) {
	c := voidCodec()
	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, nil))
	require.Empty(t, w.View())

	got, err := c.DecodeValue(nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestIntCodecRejectsWrongType(t *testing.T) {
	c := intCodec(oid.Int4, "int4", 4)
	w := buffer.NewWriter(nil)
	err := c.EncodeValue(w, nil, "not a number")
	require.Error(t, err)
}

func TestIntCodecDecodeWantsExactLength(t *testing.T) {
	c := intCodec(oid.Int4, "int4", 4)
	_, err := c.DecodeValue([]byte{1, 2, 3}, nil)
	require.Error(t, err)
}

func TestIntCodecCoercesIntLikeValues(t *testing.T) {
	c := intCodec(oid.Int8, "int8", 8)

	for _, v := range []any{int(42), int32(42), int64(42)} {
		w := buffer.NewWriter(nil)
		require.NoError(t, c.EncodeValue(w, nil, v))

		got, err := c.DecodeValue(w.View(), nil)
		require.NoError(t, err)
		require.Equal(t, int64(42), got)
	}
}
