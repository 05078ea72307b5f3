package pgfe

import "golang.org/x/text/encoding"

// XTextEncoding adapts a golang.org/x/text/encoding.Encoding to the
// buffer.TextEncoder / codec.SessionDecoder interfaces the text codec
// family uses for a session whose client_encoding isn't UTF-8, e.g.
//
//	pgfe.WithTextEncoding(pgfe.NewXTextEncoding(charmap.ISO8859_1))
//	pgfe.WithStartupParameter("client_encoding", "LATIN1")
type XTextEncoding struct {
	enc *encoding.Encoder
	dec *encoding.Decoder
}

// NewXTextEncoding builds an XTextEncoding from any golang.org/x/text
// encoding, such as those in golang.org/x/text/encoding/charmap or
// golang.org/x/text/encoding/japanese.
func NewXTextEncoding(e encoding.Encoding) *XTextEncoding {
	return &XTextEncoding{enc: e.NewEncoder(), dec: e.NewDecoder()}
}

// Encode implements buffer.TextEncoder.
func (x *XTextEncoding) Encode(s string) ([]byte, error) {
	return x.enc.Bytes([]byte(s))
}

// Decode implements codec.SessionDecoder.
func (x *XTextEncoding) Decode(b []byte) (string, error) {
	out, err := x.dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
