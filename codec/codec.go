// Package codec implements the wire encode/decode functions for every
// built-in PostgreSQL scalar, array, composite and range type, and the
// registry that resolves a type OID to the codec responsible for it.
//
// Each codec resolves a per-OID encoder and writes the length-prefixed
// payload, and decodes the same way in reverse. github.com/jackc/pgtype
// supplies the Go-side value vocabulary for several structured scalar
// families (inet, uuid, json, jsonb).
package codec

import (
	"fmt"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// Kind discriminates the four codec shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindComposite
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindComposite:
		return "composite"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// EncodeFunc writes a caller-supplied Go value's wire payload (the bytes
// that go between a Bind argument's length prefix) for one codec.
type EncodeFunc func(w *buffer.Writer, enc buffer.TextEncoder, value any) error

// DecodeFunc parses one column or array/composite element's payload back
// into a Go value.
type DecodeFunc func(src []byte, enc buffer.TextEncoder) (any, error)

// CompositeField describes one field of a named or anonymous composite
// type, in declaration order.
type CompositeField struct {
	Name string
	OID  oid.OID
}

// Codec is the four-variant discriminated record: scalar codecs carry
// direct Encode/Decode function pointers;
// array and range codecs additionally carry an Element codec; composite
// codecs carry a Fields tuple plus one Element-style codec per field
// (Elements, parallel to Fields).
type Codec struct {
	OID    oid.OID
	Name   string
	Schema string
	Kind   Kind
	Format wire.FormatCode

	Encode EncodeFunc
	Decode DecodeFunc

	// Array / range.
	Element *Codec

	// Composite. Elements[i] is the codec for Fields[i]; FieldIndex maps
	// a field name back to its position for name-based lookup.
	Fields     []CompositeField
	Elements   []*Codec
	FieldIndex map[string]int
}

// EncodeValue runs c's Encode function on value as given; a nil value is
// not special-cased here (the Bind/array/composite assembler writes the -1
// NULL length prefix itself and does not call EncodeValue for NULLs).
func (c *Codec) EncodeValue(w *buffer.Writer, enc buffer.TextEncoder, value any) error {
	if c == nil || c.Encode == nil {
		return pgerr.NewDataError(0, "codec %s has no encoder", safeName(c))
	}

	return c.Encode(w, enc, value)
}

// DecodeValue runs c's Decode function over a length-bounded payload
// slice.
func (c *Codec) DecodeValue(src []byte, enc buffer.TextEncoder) (any, error) {
	if c == nil || c.Decode == nil {
		return nil, pgerr.NewDataError(0, "codec %s has no decoder", safeName(c))
	}

	return c.Decode(src, enc)
}

func safeName(c *Codec) string {
	if c == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%s(%d)", c.Name, c.OID)
}

// writeLengthPrefixed writes value's encoded payload as a Bind/array/
// composite element: a 4-byte signed length followed by the payload
// itself, or a bare -1 when value is nil.
func writeLengthPrefixed(w *buffer.Writer, c *Codec, enc buffer.TextEncoder, value any) error {
	if value == nil {
		w.WriteInt32(-1)
		return nil
	}

	scratch := buffer.NewWriter(nil)
	if err := c.EncodeValue(scratch, enc, value); err != nil {
		return err
	}

	payload := scratch.View()
	w.WriteInt32(int32(len(payload)))
	w.WriteBytes(payload)
	return nil
}
