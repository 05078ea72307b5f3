package codec

import (
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTripsDecimal(t *testing.T) {
	c := numericCodec()

	d := decimal.RequireFromString("1234.56789")

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, d))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Numeric)
	require.False(t, out.NaN)
	require.True(t, d.Equal(out.Decimal))
}

func TestNumericRoundTripsNegativeAndZero(t *testing.T) {
	c := numericCodec()

	for _, s := range []string{"-42.5", "0", "0.000001"} {
		d := decimal.RequireFromString(s)

		w := buffer.NewWriter(nil)
		require.NoError(t, c.EncodeValue(w, nil, d))

		got, err := c.DecodeValue(w.View(), nil)
		require.NoError(t, err)
		require.True(t, d.Equal(got.(Numeric).Decimal))
	}
}

func TestNumericAcceptsStringFloatAndIntInputs(t *testing.T) {
	c := numericCodec()

	tests := []struct {
		in   any
		want string
	}{
		{"99.99", "99.99"},
		{float64(2.5), "2.5"},
		{int32(7), "7"},
		{int64(-8), "-8"},
	}

	for _, tt := range tests {
		w := buffer.NewWriter(nil)
		require.NoError(t, c.EncodeValue(w, nil, tt.in))

		got, err := c.DecodeValue(w.View(), nil)
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString(tt.want).Equal(got.(Numeric).Decimal))
	}
}

// TestNumericNaNRoundTripsWithoutError checks that decoding the wire's
// literal "NaN" returns a representable Numeric{NaN: true} value instead
// of an error, so a NaN row never fails the connection the way an encode-
// time DataError would.
func TestNumericNaNRoundTripsWithoutError(t *testing.T) {
	c := numericCodec()

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, "NaN"))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Numeric)
	require.True(t, out.NaN)
}

func TestNumericEncodesDecimalNaNSentinel(t *testing.T) {
	c := numericCodec()

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Numeric{NaN: true}))
	require.Equal(t, []byte("NaN"), w.View())

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.True(t, got.(Numeric).NaN)
}

func TestNumericRejectsUnsupportedInput(t *testing.T) {
	c := numericCodec()

	w := buffer.NewWriter(nil)
	err := c.EncodeValue(w, nil, struct{}{})
	require.Error(t, err)
}
