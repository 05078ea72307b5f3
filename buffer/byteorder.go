package buffer

import (
	"encoding/binary"
	"math"
)

// putInt16/getInt16 etc. centralize the big-endian layout PostgreSQL uses
// for every fixed-width wire field. They are thin wrappers over
// encoding/binary rather than hand-rolled bit-twiddling: the wire format is
// simply big-endian two's-complement and IEEE-754, and encoding/binary is
// the idiomatic way to say that in Go (no example repo in the retrieval
// pack rolls its own byte-swap helpers either).

func putInt16(dst []byte, v int16) {
	binary.BigEndian.PutUint16(dst, uint16(v))
}

func getInt16(src []byte) int16 {
	return int16(binary.BigEndian.Uint16(src))
}

func putUint16(dst []byte, v uint16) {
	binary.BigEndian.PutUint16(dst, v)
}

func getUint16(src []byte) uint16 {
	return binary.BigEndian.Uint16(src)
}

func putInt32(dst []byte, v int32) {
	binary.BigEndian.PutUint32(dst, uint32(v))
}

func getInt32(src []byte) int32 {
	return int32(binary.BigEndian.Uint32(src))
}

func putUint32(dst []byte, v uint32) {
	binary.BigEndian.PutUint32(dst, v)
}

func getUint32(src []byte) uint32 {
	return binary.BigEndian.Uint32(src)
}

// putInt64 writes the high word first, composed of two putInt32-equivalent
// halves, mirroring how the original C implementation this protocol is
// modelled on assembles a 64-bit wire value from two 32-bit pieces.
func putInt64(dst []byte, v int64) {
	putUint32(dst[0:4], uint32(v>>32))
	putUint32(dst[4:8], uint32(v))
}

func getInt64(src []byte) int64 {
	hi := getUint32(src[0:4])
	lo := getUint32(src[4:8])
	return int64(hi)<<32 | int64(lo)
}

func putFloat32(dst []byte, v float32) {
	putUint32(dst, math.Float32bits(v))
}

func getFloat32(src []byte) float32 {
	return math.Float32frombits(getUint32(src))
}

func putFloat64(dst []byte, v float64) {
	putUint32(dst[0:4], uint32(math.Float64bits(v)>>32))
	putUint32(dst[4:8], uint32(math.Float64bits(v)))
}

func getFloat64(src []byte) float64 {
	hi := uint64(getUint32(src[0:4]))
	lo := uint64(getUint32(src[4:8]))
	return math.Float64frombits(hi<<32 | lo)
}
