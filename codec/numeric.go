package codec

import (
	"math"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/shopspring/decimal"
)

// Numeric is the decoded NUMERIC value. PostgreSQL's NUMERIC_EXTERNAL text
// format allows the literal "NaN" alongside ordinary decimal literals, and
// shopspring/decimal.Decimal has no NaN representation of its own, so NaN
// is carried as a sentinel flag alongside Decimal rather than smuggled
// through an error return — the same shape datetime.go's Timestamp/Infinity
// pair uses for +/-infinity.
type Numeric struct {
	Decimal decimal.Decimal
	NaN     bool
}

// numericCodec implements NUMERIC as text, exactly as libpq's
// NUMERIC_EXTERNAL string: a plain decimal literal or "NaN". Arbitrary
// precision is backed by github.com/shopspring/decimal, the same library
// pgtype's own numeric support is built on.
func numericCodec() *Codec {
	return newTextScalar(oid.Numeric, "numeric", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		d, nan, err := toDecimal(v)
		if err != nil {
			return dataErr(oid.Numeric, "%v", err)
		}

		if nan {
			w.WriteBytes([]byte("NaN"))
			return nil
		}

		w.WriteBytes([]byte(d.String()))
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		s := string(src)
		if s == "NaN" || s == "nan" {
			return Numeric{NaN: true}, nil
		}

		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, dataErr(oid.Numeric, "invalid numeric text %q: %v", s, err)
		}

		return Numeric{Decimal: d}, nil
	})
}

func toDecimal(v any) (decimal.Decimal, bool, error) {
	switch n := v.(type) {
	case Numeric:
		return n.Decimal, n.NaN, nil
	case decimal.Decimal:
		return n, false, nil
	case string:
		if n == "NaN" || n == "nan" {
			return decimal.Decimal{}, true, nil
		}
		d, err := decimal.NewFromString(n)
		return d, false, err
	case float64:
		if math.IsNaN(n) {
			return decimal.Decimal{}, true, nil
		}
		return decimal.NewFromFloat(n), false, nil
	case float32:
		if math.IsNaN(float64(n)) {
			return decimal.Decimal{}, true, nil
		}
		return decimal.NewFromFloat32(n), false, nil
	case int:
		return decimal.NewFromInt(int64(n)), false, nil
	case int32:
		return decimal.NewFromInt32(n), false, nil
	case int64:
		return decimal.NewFromInt(n), false, nil
	default:
		return decimal.Decimal{}, false, errUnsupportedNumeric(v)
	}
}

func errUnsupportedNumeric(v any) error {
	return dataErr(oid.Numeric, "unsupported numeric input type %T", v)
}
