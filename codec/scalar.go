package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

func newScalar(o oid.OID, name string, enc EncodeFunc, dec DecodeFunc) *Codec {
	return &Codec{OID: o, Name: name, Kind: KindScalar, Format: wire.BinaryFormat, Encode: enc, Decode: dec}
}

func newTextScalar(o oid.OID, name string, enc EncodeFunc, dec DecodeFunc) *Codec {
	return &Codec{OID: o, Name: name, Kind: KindScalar, Format: wire.TextFormat, Encode: enc, Decode: dec}
}

func dataErr(o oid.OID, format string, args ...any) error {
	return pgerr.NewDataError(int(o), format, args...)
}

func wantLen(o oid.OID, src []byte, n int) error {
	if len(src) != n {
		return dataErr(o, "expected %d bytes, got %d", n, len(src))
	}
	return nil
}

// boolCodec: 1 byte, 0x00 or 0x01.
func boolCodec() *Codec {
	return newScalar(oid.Bool, "bool", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, ok := v.(bool)
		if !ok {
			return dataErr(oid.Bool, "expected bool, got %T", v)
		}
		if b {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Bool, src, 1); err != nil {
			return nil, err
		}
		return src[0] != 0, nil
	})
}

// intCodec builds a fixed-width signed integer codec of width 2, 4 or 8
// bytes, accepting any Go signed integer kind or uint, uint8, uint16 and
// uint32 (uint64 is rejected) when the value fits, and always decoding to
// the canonical Go width (int16/int32/int64).
func intCodec(o oid.OID, name string, width int) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		i, err := toInt64(v)
		if err != nil {
			return dataErr(o, "%v", err)
		}

		switch width {
		case 2:
			if i < math.MinInt16 || i > math.MaxInt16 {
				return dataErr(o, "value %d overflows int2", i)
			}
			w.WriteInt16(int16(i))
		case 4:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return dataErr(o, "value %d overflows int4", i)
			}
			w.WriteInt32(int32(i))
		case 8:
			w.WriteInt64(i)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(o, src, width); err != nil {
			return nil, err
		}

		switch width {
		case 2:
			return int16(binary.BigEndian.Uint16(src)), nil
		case 4:
			return int32(binary.BigEndian.Uint32(src)), nil
		case 8:
			return int64(binary.BigEndian.Uint64(src)), nil
		}
		return nil, dataErr(o, "unsupported width %d", width)
	})
}

// oidCodec: 4 bytes unsigned. The reg* family is also accepted as text by
// the server but is always emitted binary here.
func oidCodec(o oid.OID, name string) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		u, err := toUint32(v)
		if err != nil {
			return dataErr(o, "%v", err)
		}
		w.WriteUint32(u)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(o, src, 4); err != nil {
			return nil, err
		}
		return binary.BigEndian.Uint32(src), nil
	})
}

func float4Codec() *Codec {
	return newScalar(oid.Float4, "float4", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		f, err := toFloat64(v)
		if err != nil {
			return dataErr(oid.Float4, "%v", err)
		}
		w.WriteFloat32(float32(f))
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Float4, src, 4); err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.BigEndian.Uint32(src)), nil
	})
}

func float8Codec() *Codec {
	return newScalar(oid.Float8, "float8", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		f, err := toFloat64(v)
		if err != nil {
			return dataErr(oid.Float8, "%v", err)
		}
		w.WriteFloat64(f)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Float8, src, 8); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(src)), nil
	})
}

// byteaCodec: raw bytes, no additional framing beyond the outer length.
func byteaCodec() *Codec {
	return newScalar(oid.Bytea, "bytea", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, ok := v.([]byte)
		if !ok {
			return dataErr(oid.Bytea, "expected []byte, got %T", v)
		}
		w.WriteBytes(b)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		return append([]byte{}, src...), nil
	})
}

// voidCodec: zero-length payload, no Go-side value.
func voidCodec() *Codec {
	return newScalar(oid.Void, "void", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		return nil, nil
	})
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toUint32(v any) (uint32, error) {
	switch n := v.(type) {
	case oid.OID:
		return uint32(n), nil
	case uint32:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative OID value %d", n)
		}
		return uint32(n), nil
	case int32:
		if n < 0 {
			return 0, fmt.Errorf("negative OID value %d", n)
		}
		return uint32(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative OID value %d", n)
		}
		return uint32(n), nil
	case uint64:
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("expected unsigned integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("expected float, got %T", v)
	}
}
