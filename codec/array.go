package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/wire"
)

// maxArrayDepth bounds how many nested slice levels the array encoder
// will walk before giving up.
const maxArrayDepth = 6

// NewArrayCodec builds the codec for one array OID: a flat binary frame
// (ndims, flags, element OID, per-dimension length/lower-bound, then the
// row-major element stream) wrapping the given element codec. The array
// container itself is always binary on the wire regardless of the
// element's own preferred format (each element still carries its own
// length-prefixed payload encoded in the element codec's format).
func NewArrayCodec(arrayOID oid.OID, name string, element *Codec) *Codec {
	c := &Codec{
		OID:     arrayOID,
		Name:    name,
		Kind:    KindArray,
		Format:  wire.BinaryFormat,
		Element: element,
	}

	c.Encode = func(w *buffer.Writer, enc buffer.TextEncoder, v any) error {
		return encodeArray(w, enc, c, v)
	}
	c.Decode = func(src []byte, enc buffer.TextEncoder) (any, error) {
		return decodeArray(src, enc, c)
	}

	return c
}

func encodeArray(w *buffer.Writer, enc buffer.TextEncoder, c *Codec, v any) error {
	rv := reflect.ValueOf(v)

	if !rv.IsValid() || isNilable(rv) && rv.IsNil() {
		w.WriteInt32(0)
		w.WriteInt32(0)
		w.WriteUint32(uint32(c.Element.OID))
		return nil
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return dataErr(c.OID, "expected a slice/array value, got %T", v)
	}

	if rv.Len() == 0 {
		w.WriteInt32(0)
		w.WriteInt32(0)
		w.WriteUint32(uint32(c.Element.OID))
		return nil
	}

	dims, err := arrayDims(rv, 0)
	if err != nil {
		return dataErr(c.OID, "%v", err)
	}

	var flat []any
	if err := flattenArray(rv, dims, 0, &flat); err != nil {
		return dataErr(c.OID, "%v", err)
	}

	w.WriteInt32(int32(len(dims)))
	w.WriteInt32(0) // flags, currently always zero
	w.WriteUint32(uint32(c.Element.OID))

	for _, d := range dims {
		w.WriteInt32(int32(d))
		w.WriteInt32(1) // lower bound, always 1 on write
	}

	for _, elem := range flat {
		if err := writeLengthPrefixed(w, c.Element, enc, elem); err != nil {
			return err
		}
	}

	return nil
}

// isContainer reports whether rv should be walked as another array
// dimension rather than treated as a leaf element value. Byte slices and
// strings are never treated as containers.
func isContainer(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice:
		return rv.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	default:
		return false
	}
}

func isNilable(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Ptr, reflect.Interface, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

// arrayDims walks the first element of each level to determine the shape,
// then flattenArray verifies every sibling actually has that shape.
func arrayDims(rv reflect.Value, depth int) ([]int, error) {
	if depth > maxArrayDepth {
		return nil, fmt.Errorf("array nesting exceeds maximum depth %d", maxArrayDepth)
	}

	if rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}

	if !isContainer(rv) {
		return nil, nil
	}

	dims := []int{rv.Len()}
	if rv.Len() == 0 {
		return dims, nil
	}

	sub, err := arrayDims(derefForDims(rv.Index(0)), depth+1)
	if err != nil {
		return nil, err
	}

	return append(dims, sub...), nil
}

func derefForDims(rv reflect.Value) reflect.Value {
	if rv.Kind() == reflect.Interface && !rv.IsNil() {
		return rv.Elem()
	}
	return rv
}

func flattenArray(rv reflect.Value, dims []int, depth int, out *[]any) error {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			if depth != len(dims) {
				return fmt.Errorf("ragged array: nil at dimension %d, expected %d more dimension(s)", depth, len(dims)-depth)
			}
			*out = append(*out, nil)
			return nil
		}
		rv = rv.Elem()
	}

	if depth == len(dims) {
		if isContainer(rv) {
			return fmt.Errorf("ragged array: unexpected nesting at depth %d", depth)
		}
		if rv.IsValid() {
			*out = append(*out, rv.Interface())
		} else {
			*out = append(*out, nil)
		}
		return nil
	}

	if !isContainer(rv) {
		return fmt.Errorf("ragged array: expected %d more dimension(s) at depth %d", len(dims)-depth, depth)
	}

	if rv.Len() != dims[depth] {
		return fmt.Errorf("ragged array: dimension %d expected length %d, got %d", depth, dims[depth], rv.Len())
	}

	for i := 0; i < rv.Len(); i++ {
		if err := flattenArray(rv.Index(i), dims, depth+1, out); err != nil {
			return err
		}
	}

	return nil
}

func decodeArray(src []byte, enc buffer.TextEncoder, c *Codec) (any, error) {
	if len(src) < 12 {
		return nil, dataErr(c.OID, "short array header: %d bytes", len(src))
	}

	ndims := int32(binary.BigEndian.Uint32(src[0:4]))
	// flags at src[4:8] are currently unused.
	pos := 12

	if ndims == 0 {
		return []any{}, nil
	}

	if ndims < 0 || ndims > maxArrayDepth {
		return nil, dataErr(c.OID, "invalid array ndims %d", ndims)
	}

	dims := make([]int, ndims)
	total := 1
	for i := 0; i < int(ndims); i++ {
		if len(src) < pos+8 {
			return nil, dataErr(c.OID, "truncated array dimension header")
		}
		length := int32(binary.BigEndian.Uint32(src[pos : pos+4]))
		dims[i] = int(length)
		total *= int(length)
		pos += 8 // length + lower bound
	}

	flat := make([]any, 0, total)
	for i := 0; i < total; i++ {
		if len(src) < pos+4 {
			return nil, dataErr(c.OID, "truncated array element length")
		}
		elemLen := int32(binary.BigEndian.Uint32(src[pos : pos+4]))
		pos += 4

		if elemLen < 0 {
			flat = append(flat, nil)
			continue
		}

		if len(src) < pos+int(elemLen) {
			return nil, dataErr(c.OID, "truncated array element payload")
		}

		v, err := c.Element.DecodeValue(src[pos:pos+int(elemLen)], enc)
		if err != nil {
			return nil, err
		}

		flat = append(flat, v)
		pos += int(elemLen)
	}

	if ndims == 1 {
		return flat, nil
	}

	built := buildNested(dims, flat)
	return built, nil
}

func buildNested(dims []int, flat []any) any {
	if len(dims) <= 1 {
		return flat
	}

	n := dims[0]
	rest := dims[1:]
	width := 1
	for _, d := range rest {
		width *= d
	}

	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = buildNested(rest, flat[i*width:(i+1)*width])
	}
	return out
}
