package codec

import (
	"encoding/binary"

	"github.com/jackc/pgtype"
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
)

// uuidCodec: 16 raw bytes. The Go-side value is pgtype.UUID, so callers
// exchange well-known structured values instead of a raw [16]byte.
func uuidCodec() *Codec {
	return newScalar(oid.UUID, "uuid", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, err := toUUIDBytes(v)
		if err != nil {
			return err
		}
		w.WriteBytes(b[:])
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.UUID, src, 16); err != nil {
			return nil, err
		}
		var u pgtype.UUID
		copy(u.Bytes[:], src)
		u.Status = pgtype.Present
		return u, nil
	})
}

func toUUIDBytes(v any) ([16]byte, error) {
	switch u := v.(type) {
	case pgtype.UUID:
		return u.Bytes, nil
	case [16]byte:
		return u, nil
	case []byte:
		var b [16]byte
		if len(u) != 16 {
			return b, dataErr(oid.UUID, "expected 16 bytes, got %d", len(u))
		}
		copy(b[:], u)
		return b, nil
	default:
		var b [16]byte
		return b, dataErr(oid.UUID, "expected pgtype.UUID or [16]byte, got %T", v)
	}
}

// jsonCodec: raw UTF-8 bytes, no extra framing.
func jsonCodec() *Codec {
	return newScalar(oid.JSON, "json", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, err := toJSONBytes(oid.JSON, v)
		if err != nil {
			return err
		}
		w.WriteBytes(b)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		return pgtype.JSON{Bytes: append([]byte{}, src...), Status: pgtype.Present}, nil
	})
}

// jsonbCodec: one version byte (must be 1) followed by UTF-8 bytes.
func jsonbCodec() *Codec {
	return newScalar(oid.JSONB, "jsonb", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, err := toJSONBytes(oid.JSONB, v)
		if err != nil {
			return err
		}
		w.WriteByte(1)
		w.WriteBytes(b)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 1 {
			return nil, dataErr(oid.JSONB, "empty jsonb payload")
		}
		if src[0] != 1 {
			return nil, dataErr(oid.JSONB, "unsupported jsonb version byte %d", src[0])
		}
		return pgtype.JSONB{Bytes: append([]byte{}, src[1:]...), Status: pgtype.Present}, nil
	})
}

func toJSONBytes(o oid.OID, v any) ([]byte, error) {
	switch j := v.(type) {
	case pgtype.JSON:
		return j.Bytes, nil
	case pgtype.JSONB:
		return j.Bytes, nil
	case []byte:
		return j, nil
	case string:
		return []byte(j), nil
	default:
		return nil, dataErr(o, "expected []byte, string or pgtype.JSON(B), got %T", v)
	}
}

// tidCodec: int32 block + int16 offset, PostgreSQL's physical row
// locator.
type TID struct {
	Block  uint32
	Offset uint16
}

func tidCodec() *Codec {
	return newScalar(oid.TID, "tid", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		t, ok := v.(TID)
		if !ok {
			return dataErr(oid.TID, "expected TID, got %T", v)
		}
		w.WriteUint32(t.Block)
		w.WriteInt16(int16(t.Offset))
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.TID, src, 6); err != nil {
			return nil, err
		}
		return TID{Block: binary.BigEndian.Uint32(src[0:4]), Offset: binary.BigEndian.Uint16(src[4:6])}, nil
	})
}

// Bit is a fixed- or variable-length bit string: length in bits plus the
// ceil(bits/8) packed bytes, shared by `bit` and `varbit`.
type Bit struct {
	Len  int32
	Bits []byte
}

func bitFamilyCodec(o oid.OID, name string) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, ok := v.(Bit)
		if !ok {
			return dataErr(o, "expected Bit, got %T", v)
		}
		want := (int(b.Len) + 7) / 8
		if len(b.Bits) != want {
			return dataErr(o, "bit length %d requires %d bytes, got %d", b.Len, want, len(b.Bits))
		}
		w.WriteInt32(b.Len)
		w.WriteBytes(b.Bits)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 4 {
			return nil, dataErr(o, "short bit payload: %d bytes", len(src))
		}
		bits := int32(binary.BigEndian.Uint32(src[0:4]))
		want := (int(bits) + 7) / 8
		if err := wantLen(o, src[4:], want); err != nil {
			return nil, err
		}
		return Bit{Len: bits, Bits: append([]byte{}, src[4:]...)}, nil
	})
}

// TxidSnapshot is the decoded value for `txid_snapshot`: nxip transaction
// IDs between xmin and xmax.
type TxidSnapshot struct {
	Xmin int64
	Xmax int64
	XIDs []int64
}

func txidSnapshotCodec() *Codec {
	return newScalar(oid.TxidSnapshot, "txid_snapshot", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		s, ok := v.(TxidSnapshot)
		if !ok {
			return dataErr(oid.TxidSnapshot, "expected TxidSnapshot, got %T", v)
		}
		w.WriteInt32(int32(len(s.XIDs)))
		w.WriteInt64(s.Xmin)
		w.WriteInt64(s.Xmax)
		for _, xid := range s.XIDs {
			w.WriteInt64(xid)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 20 {
			return nil, dataErr(oid.TxidSnapshot, "short txid_snapshot payload: %d bytes", len(src))
		}
		nxip := int32(binary.BigEndian.Uint32(src[0:4]))
		xmin := int64(binary.BigEndian.Uint64(src[4:12]))
		xmax := int64(binary.BigEndian.Uint64(src[12:20]))
		if err := wantLen(oid.TxidSnapshot, src[20:], int(nxip)*8); err != nil {
			return nil, err
		}
		xids := make([]int64, nxip)
		for i := range xids {
			off := 20 + i*8
			xids[i] = int64(binary.BigEndian.Uint64(src[off : off+8]))
		}
		return TxidSnapshot{Xmin: xmin, Xmax: xmax, XIDs: xids}, nil
	})
}

// textFallbackCodec covers the textual system types with no dedicated
// binary layout worth hand-rolling: money, tsquery, tsvector, abstime
// and friends. The Go-side value is
// whatever string the server's own text output produces; no attempt is
// made to parse tsvector/tsquery's internal structure.
func textFallbackCodec(o oid.OID, name string) *Codec {
	return newTextScalar(o, name, func(w *buffer.Writer, enc buffer.TextEncoder, v any) error {
		s, err := toText(o, v)
		if err != nil {
			return err
		}
		b, err := encodeSessionText(s, enc)
		if err != nil {
			return dataErr(o, "%v", err)
		}
		w.WriteBytes(b)
		return nil
	}, func(src []byte, enc buffer.TextEncoder) (any, error) {
		return decodeSessionText(src, enc)
	})
}
