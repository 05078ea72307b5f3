package codec

import (
	"encoding/binary"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/wire"
)

const (
	rangeFlagEmpty        = 0x01
	rangeFlagLowerInc     = 0x02
	rangeFlagUpperInc     = 0x04
	rangeFlagLowerInfinite = 0x08
	rangeFlagUpperInfinite = 0x10
)

// Range is the structured range value: explicit bounds, inclusivity
// flags, and an empty flag. A HasLower/HasUpper of false means that side
// is infinite.
type Range struct {
	Lower, Upper         any
	HasLower, HasUpper   bool
	LowerInc, UpperInc   bool
	Empty                bool
}

// NewRangeCodec builds a codec for one range OID wrapping the element
// codec for its base type.
func NewRangeCodec(rangeOID oid.OID, name string, element *Codec) *Codec {
	c := &Codec{
		OID:     rangeOID,
		Name:    name,
		Kind:    KindRange,
		Format:  wire.BinaryFormat,
		Element: element,
	}

	c.Encode = func(w *buffer.Writer, enc buffer.TextEncoder, v any) error {
		return encodeRange(w, enc, c, v)
	}
	c.Decode = func(src []byte, enc buffer.TextEncoder) (any, error) {
		return decodeRange(src, enc, c)
	}

	return c
}

func toRange(o oid.OID, v any) (Range, error) {
	switch r := v.(type) {
	case Range:
		return r, nil
	case []any:
		switch len(r) {
		case 0:
			return Range{Empty: true}, nil
		case 1:
			return Range{
				Lower: r[0], HasLower: r[0] != nil, LowerInc: true,
			}, nil
		case 2:
			return Range{
				Lower: r[0], HasLower: r[0] != nil, LowerInc: true,
				Upper: r[1], HasUpper: r[1] != nil, UpperInc: true,
			}, nil
		default:
			return Range{}, dataErr(o, "range tuple must have 0, 1 or 2 elements, got %d", len(r))
		}
	default:
		return Range{}, dataErr(o, "expected Range or []any, got %T", v)
	}
}

func encodeRange(w *buffer.Writer, enc buffer.TextEncoder, c *Codec, v any) error {
	r, err := toRange(c.OID, v)
	if err != nil {
		return err
	}

	if r.Empty {
		w.WriteByte(rangeFlagEmpty)
		return nil
	}

	var flags byte
	if r.LowerInc {
		flags |= rangeFlagLowerInc
	}
	if r.UpperInc {
		flags |= rangeFlagUpperInc
	}
	if !r.HasLower {
		flags |= rangeFlagLowerInfinite
	}
	if !r.HasUpper {
		flags |= rangeFlagUpperInfinite
	}

	w.WriteByte(flags)

	if r.HasLower {
		if err := writeLengthPrefixed(w, c.Element, enc, r.Lower); err != nil {
			return err
		}
	}

	if r.HasUpper {
		if err := writeLengthPrefixed(w, c.Element, enc, r.Upper); err != nil {
			return err
		}
	}

	return nil
}

func decodeRange(src []byte, enc buffer.TextEncoder, c *Codec) (any, error) {
	if len(src) < 1 {
		return nil, dataErr(c.OID, "empty range payload")
	}

	flags := src[0]
	pos := 1

	if flags&rangeFlagEmpty != 0 {
		return Range{Empty: true}, nil
	}

	r := Range{
		LowerInc: flags&rangeFlagLowerInc != 0,
		UpperInc: flags&rangeFlagUpperInc != 0,
		HasLower: flags&rangeFlagLowerInfinite == 0,
		HasUpper: flags&rangeFlagUpperInfinite == 0,
	}

	if r.HasLower {
		v, n, err := readLengthPrefixed(src[pos:], c.Element, enc)
		if err != nil {
			return nil, dataErr(c.OID, "lower bound: %v", err)
		}
		r.Lower = v
		pos += n
	}

	if r.HasUpper {
		v, n, err := readLengthPrefixed(src[pos:], c.Element, enc)
		if err != nil {
			return nil, dataErr(c.OID, "upper bound: %v", err)
		}
		r.Upper = v
		pos += n
	}

	return r, nil
}

// readLengthPrefixed parses one {int32 length, payload} field from src and
// returns the decoded value plus the number of bytes consumed.
func readLengthPrefixed(src []byte, c *Codec, enc buffer.TextEncoder) (any, int, error) {
	if len(src) < 4 {
		return nil, 0, dataErr(c.OID, "short length prefix")
	}

	length := int32(binary.BigEndian.Uint32(src[0:4]))
	if length < 0 {
		return nil, 4, nil
	}

	if len(src) < 4+int(length) {
		return nil, 0, dataErr(c.OID, "truncated payload")
	}

	v, err := c.DecodeValue(src[4:4+int(length)], enc)
	if err != nil {
		return nil, 0, err
	}

	return v, 4 + int(length), nil
}
