package codec

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/wire"
)

// UserEncoder/UserDecoder are the callback pair a caller supplies when
// registering a codec for a type this package doesn't know about
// natively. They operate on the raw payload bytes, without the length
// prefix, in either format; for text format these are the session-encoded
// bytes, not passed through the session's text encoding.
type UserEncoder func(value any) ([]byte, error)
type UserDecoder func(payload []byte) (any, error)

// NewFallbackCodec wraps a pair of encode/decode callbacks into a Codec
// usable anywhere a built-in scalar codec is: the caller owns the byte
// representation entirely, this package just supplies the length-prefixed
// framing around it.
func NewFallbackCodec(o oid.OID, name string, format wire.FormatCode, encode UserEncoder, decode UserDecoder) *Codec {
	return &Codec{
		OID:    o,
		Name:   name,
		Kind:   KindScalar,
		Format: format,
		Encode: func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
			b, err := encode(v)
			if err != nil {
				return dataErr(o, "user codec: %v", err)
			}
			w.WriteBytes(b)
			return nil
		},
		Decode: func(src []byte, _ buffer.TextEncoder) (any, error) {
			v, err := decode(src)
			if err != nil {
				return nil, dataErr(o, "user codec: %v", err)
			}
			return v, nil
		},
	}
}
