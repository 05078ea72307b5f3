package codec

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
)

// textFamilyCodec builds the codec for text, varchar, bpchar, name and xml:
// session-encoded bytes, UTF-8 specialised (enc nil means UTF-8, a
// byte-identical copy, matching buffer.Writer.WriteString's contract).
func textFamilyCodec(o oid.OID, name string) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, enc buffer.TextEncoder, v any) error {
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

func toText(o oid.OID, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmtStringer:
		return s.String(), nil
	default:
		return "", dataErr(o, "expected string, got %T", v)
	}
}

type fmtStringer interface {
	String() string
}

// encodeSessionText round-trips through enc when non-nil (a non-UTF-8
// client_encoding, see settings.go WithTextEncoding); UTF-8 sessions pass
// the bytes through unchanged.
func encodeSessionText(s string, enc buffer.TextEncoder) ([]byte, error) {
	if enc == nil {
		return []byte(s), nil
	}
	return enc.Encode(s)
}

// SessionDecoder is the read-side counterpart of buffer.TextEncoder: it
// decodes bytes in the session's client_encoding back to a UTF-8 Go
// string. Settings supplies one alongside its TextEncoder when
// client_encoding is not UTF-8.
type SessionDecoder interface {
	Decode(b []byte) (string, error)
}

func decodeSessionText(src []byte, enc buffer.TextEncoder) (any, error) {
	if dec, ok := enc.(SessionDecoder); ok {
		s, err := dec.Decode(src)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return string(src), nil
}
