package codec

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
)

// pgEpoch is the PostgreSQL reference instant: date/timestamp wire values
// count from here, not from the Unix epoch.
var pgEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	int32PosInfinity int32 = math.MaxInt32
	int32NegInfinity int32 = math.MinInt32
)

// Infinity distinguishes a finite Timestamp/Date value from one of the two
// wire sentinels PostgreSQL uses for +/-infinity.
type Infinity int8

const (
	Finite      Infinity = 0
	PosInfinity Infinity = 1
	NegInfinity Infinity = -1
)

// Timestamp is the decoded/encoded value for both `timestamp` (naive, no
// time zone applied) and `timestamptz` (always UTC on the wire). Naive
// zone information is not retained across the `timestamptz` round-trip.
type Timestamp struct {
	Time time.Time
	Inf  Infinity
}

// Date is the decoded/encoded value for `date`.
type Date struct {
	Time time.Time // truncated to a calendar day, any zone
	Inf  Infinity
}

func timestampCodec(o oid.OID, name string, utc bool) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		micros, inf, err := toTimestampMicros(o, v, utc)
		if err != nil {
			return err
		}

		switch inf {
		case PosInfinity:
			w.WriteInt64(math.MaxInt64)
		case NegInfinity:
			w.WriteInt64(math.MinInt64)
		default:
			w.WriteInt64(micros)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(o, src, 8); err != nil {
			return nil, err
		}

		raw := int64(binary.BigEndian.Uint64(src))
		switch raw {
		case math.MaxInt64:
			return Timestamp{Inf: PosInfinity}, nil
		case math.MinInt64:
			return Timestamp{Inf: NegInfinity}, nil
		}

		t := pgEpoch.Add(time.Duration(raw) * time.Microsecond)
		if utc {
			t = t.UTC()
		}
		return Timestamp{Time: t}, nil
	})
}

func toTimestampMicros(o oid.OID, v any, utc bool) (int64, Infinity, error) {
	switch t := v.(type) {
	case Timestamp:
		if t.Inf != Finite {
			return 0, t.Inf, nil
		}
		return microsSince(t.Time, utc), Finite, nil
	case time.Time:
		return microsSince(t, utc), Finite, nil
	default:
		return 0, Finite, dataErr(o, "expected time.Time, got %T", v)
	}
}

func microsSince(t time.Time, utc bool) int64 {
	if utc {
		t = t.UTC()
	}
	d := t.Sub(pgEpoch)
	return d.Microseconds()
}

// dateCodec: int32 days since 2000-01-01, with the same two sentinels as
// timestamp, narrowed to 32 bits.
func dateCodec() *Codec {
	const day = 24 * time.Hour

	return newScalar(oid.Date, "date", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		switch d := v.(type) {
		case Date:
			switch d.Inf {
			case PosInfinity:
				w.WriteInt32(int32PosInfinity)
				return nil
			case NegInfinity:
				w.WriteInt32(int32NegInfinity)
				return nil
			}
			w.WriteInt32(int32(d.Time.UTC().Sub(pgEpoch) / day))
			return nil
		case time.Time:
			w.WriteInt32(int32(d.UTC().Sub(pgEpoch) / day))
			return nil
		default:
			return dataErr(oid.Date, "expected Date or time.Time, got %T", v)
		}
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Date, src, 4); err != nil {
			return nil, err
		}

		raw := int32(binary.BigEndian.Uint32(src))
		switch raw {
		case int32PosInfinity:
			return Date{Inf: PosInfinity}, nil
		case int32NegInfinity:
			return Date{Inf: NegInfinity}, nil
		}

		return Date{Time: pgEpoch.Add(time.Duration(raw) * day)}, nil
	})
}

// Time is the decoded/encoded value for `time` (no date, no zone).
type Time struct {
	Microseconds int64 // since midnight
}

func timeCodec() *Codec {
	return newScalar(oid.Time, "time", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		t, err := toTimeOfDay(oid.Time, v)
		if err != nil {
			return err
		}
		w.WriteInt64(t)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Time, src, 8); err != nil {
			return nil, err
		}
		return Time{Microseconds: int64(binary.BigEndian.Uint64(src))}, nil
	})
}

// TimeTZ additionally carries a signed UTC offset in seconds, stored on
// the wire with the opposite sign of Go's time.Time.Zone() convention
// (seconds west of UTC rather than east); the codec flips the sign at
// both the encode and decode boundary so callers always see Go's
// east-positive convention. Round-trip tested rather than derived from
// a second source.
type TimeTZ struct {
	Microseconds int64 // since midnight, local to OffsetSeconds
	OffsetSeconds int32 // seconds EAST of UTC, Go convention
}

func timetzCodec() *Codec {
	return newScalar(oid.TimeTZ, "timetz", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		tz, ok := v.(TimeTZ)
		if !ok {
			return dataErr(oid.TimeTZ, "expected TimeTZ, got %T", v)
		}
		w.WriteInt64(tz.Microseconds)
		w.WriteInt32(-tz.OffsetSeconds) // flip to PostgreSQL's west-positive wire convention
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.TimeTZ, src, 12); err != nil {
			return nil, err
		}
		micros := int64(binary.BigEndian.Uint64(src[0:8]))
		west := int32(binary.BigEndian.Uint32(src[8:12]))
		return TimeTZ{Microseconds: micros, OffsetSeconds: -west}, nil
	})
}

func toTimeOfDay(o oid.OID, v any) (int64, error) {
	switch t := v.(type) {
	case Time:
		return t.Microseconds, nil
	case time.Duration:
		return t.Microseconds(), nil
	default:
		return 0, dataErr(o, "expected Time, got %T", v)
	}
}

// Interval is the decoded/encoded value for `interval`: microseconds,
// days and months are kept separate rather than normalized, matching the
// wire representation exactly (a month has no fixed length in seconds).
type Interval struct {
	Microseconds int64
	Days         int32
	Months       int32
}

func intervalCodec() *Codec {
	return newScalar(oid.Interval, "interval", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		iv, ok := v.(Interval)
		if !ok {
			return dataErr(oid.Interval, "expected Interval, got %T", v)
		}
		w.WriteInt64(iv.Microseconds)
		w.WriteInt32(iv.Days)
		w.WriteInt32(iv.Months)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Interval, src, 16); err != nil {
			return nil, err
		}
		return Interval{
			Microseconds: int64(binary.BigEndian.Uint64(src[0:8])),
			Days:         int32(binary.BigEndian.Uint32(src[8:12])),
			Months:       int32(binary.BigEndian.Uint32(src[12:16])),
		}, nil
	})
}
