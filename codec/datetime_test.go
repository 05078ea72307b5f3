package codec

import (
	"testing"
	"time"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func TestTimestampTZRoundTripsThroughUTC(t *testing.T) {
	c := timestampCodec(oid.TimestampTZ, "timestamptz", true)

	loc := time.FixedZone("+02:00", 2*60*60)
	in := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Timestamp{Time: in}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)

	out := got.(Timestamp)
	require.True(t, in.Equal(out.Time))
	require.Equal(t, Finite, out.Inf)
}

func TestTimestampRoundTripsPositiveAndNegativeInfinity(t *testing.T) {
	c := timestampCodec(oid.Timestamp, "timestamp", false)

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Timestamp{Inf: PosInfinity}))
	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, PosInfinity, got.(Timestamp).Inf)

	w = buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Timestamp{Inf: NegInfinity}))
	got, err = c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, NegInfinity, got.(Timestamp).Inf)
}

func TestTimestampAcceptsBareTimeTime(t *testing.T) {
	c := timestampCodec(oid.Timestamp, "timestamp", false)

	in := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.True(t, in.Equal(got.(Timestamp).Time))
}

func TestDateRoundTrips(t *testing.T) {
	c := dateCodec()

	in := Date{Time: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.True(t, in.Time.Equal(got.(Date).Time))
}

func TestDateRoundTripsInfinity(t *testing.T) {
	c := dateCodec()

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Date{Inf: PosInfinity}))
	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, PosInfinity, got.(Date).Inf)
}

func TestTimeRoundTrips(t *testing.T) {
	c := timeCodec()

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, Time{Microseconds: 3_600_000_000}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, Time{Microseconds: 3_600_000_000}, got.(Time))
}

// TestTimeTZRoundTripFlipsSignTwice confirms the open-question resolution
// documented in DESIGN.md: callers always see Go's east-positive zone
// convention even though the wire stores west-positive.
func TestTimeTZRoundTripFlipsSignTwice(t *testing.T) {
	c := timetzCodec()

	in := TimeTZ{Microseconds: 1_000_000, OffsetSeconds: 3600} // UTC+1

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, in, got.(TimeTZ))
}

func TestIntervalRoundTripsMicrosDaysMonthsSeparately(t *testing.T) {
	c := intervalCodec()

	in := Interval{Microseconds: 500_000, Days: 3, Months: 14}

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, in))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, in, got.(Interval))
}
