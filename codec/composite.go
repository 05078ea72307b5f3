package codec

import (
	"encoding/binary"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/wire"
)

// NewCompositeCodec builds a codec for a named composite (row) type:
// field_count, then per field {field_oid, length, payload}. Encoding
// requires the caller to supply values in
// declaration order as a []any of len(fields); anonymous RECORD (fields
// nil) has no encoder, matching "the server never accepts it as a
// parameter" — it only ever appears as a decode target.
func NewCompositeCodec(compositeOID oid.OID, name string, fields []CompositeField, elements []*Codec) *Codec {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.Name] = i
	}

	c := &Codec{
		OID:        compositeOID,
		Name:       name,
		Kind:       KindComposite,
		Format:     wire.BinaryFormat,
		Fields:     fields,
		Elements:   elements,
		FieldIndex: index,
	}

	if compositeOID != oid.Record {
		c.Encode = func(w *buffer.Writer, enc buffer.TextEncoder, v any) error {
			return encodeComposite(w, enc, c, v)
		}
	}

	c.Decode = func(src []byte, enc buffer.TextEncoder) (any, error) {
		return decodeComposite(src, enc, c)
	}

	return c
}

func encodeComposite(w *buffer.Writer, enc buffer.TextEncoder, c *Codec, v any) error {
	values, ok := v.([]any)
	if !ok {
		return dataErr(c.OID, "expected []any of %d fields, got %T", len(c.Fields), v)
	}

	if len(values) != len(c.Fields) {
		return dataErr(c.OID, "expected %d fields, got %d", len(c.Fields), len(values))
	}

	w.WriteInt32(int32(len(c.Fields)))
	for i, val := range values {
		w.WriteUint32(uint32(c.Fields[i].OID))
		if err := writeLengthPrefixed(w, c.Elements[i], enc, val); err != nil {
			return err
		}
	}

	return nil
}

func decodeComposite(src []byte, enc buffer.TextEncoder, c *Codec) (any, error) {
	if len(src) < 4 {
		return nil, dataErr(c.OID, "short composite header: %d bytes", len(src))
	}

	count := int32(binary.BigEndian.Uint32(src[0:4]))
	pos := 4

	values := make([]any, 0, count)
	for i := int32(0); i < count; i++ {
		if len(src) < pos+8 {
			return nil, dataErr(c.OID, "truncated composite field header")
		}

		fieldOID := oid.OID(binary.BigEndian.Uint32(src[pos : pos+4]))
		fieldLen := int32(binary.BigEndian.Uint32(src[pos+4 : pos+8]))
		pos += 8

		if c.Fields != nil {
			if int(i) >= len(c.Fields) {
				return nil, dataErr(c.OID, "composite has more fields than declared (%d)", len(c.Fields))
			}
			if c.Fields[i].OID != fieldOID {
				return nil, dataErr(c.OID, "field %d OID mismatch: declared %d, wire %d", i, c.Fields[i].OID, fieldOID)
			}
		}

		if fieldLen < 0 {
			values = append(values, nil)
			continue
		}

		if len(src) < pos+int(fieldLen) {
			return nil, dataErr(c.OID, "truncated composite field payload")
		}

		var elemCodec *Codec
		if c.Elements != nil && int(i) < len(c.Elements) {
			elemCodec = c.Elements[i]
		} else if builtinCodec, ok := Builtin(fieldOID); ok {
			elemCodec = builtinCodec
		} else {
			return nil, dataErr(c.OID, "no codec for anonymous record field OID %d", fieldOID)
		}

		val, err := elemCodec.DecodeValue(src[pos:pos+int(fieldLen)], enc)
		if err != nil {
			return nil, err
		}

		values = append(values, val)
		pos += int(fieldLen)
	}

	return values, nil
}
