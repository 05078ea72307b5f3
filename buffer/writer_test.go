package buffer

import (
	"testing"

	"github.com/pgfe/pgfe/wire"
	"github.com/stretchr/testify/require"
)

func TestWriterStartEndPatchesLength(t *testing.T) {
	w := NewWriter(nil)

	w.Start(wire.FrontendSimpleQuery)
	w.WriteCString([]byte("select 1"))
	require.NoError(t, w.End())

	out := w.View()
	require.Equal(t, byte(wire.FrontendSimpleQuery), out[0])

	length := int32(out[1])<<24 | int32(out[2])<<16 | int32(out[3])<<8 | int32(out[4])
	require.EqualValues(t, len(out)-1, length)
}

func TestWriterChainsMultipleMessages(t *testing.T) {
	w := NewWriter(nil)

	w.Start(wire.FrontendParse)
	w.WriteCString(nil)
	w.WriteCString([]byte("select $1"))
	w.WriteInt16(0)
	require.NoError(t, w.End())

	w.Start(wire.FrontendSync)
	require.NoError(t, w.End())

	out := w.View()
	require.Equal(t, byte(wire.FrontendParse), out[0])

	// find the Sync message: a single byte tag plus a length of 4.
	syncTag := out[len(out)-5]
	require.Equal(t, byte(wire.FrontendSync), syncTag)

	syncLen := int32(out[len(out)-4])<<24 | int32(out[len(out)-3])<<16 | int32(out[len(out)-2])<<8 | int32(out[len(out)-1])
	require.EqualValues(t, 4, syncLen)
}

func TestWriterEndWithoutStartFails(t *testing.T) {
	w := NewWriter(nil)
	require.ErrorIs(t, w.End(), ErrNotFraming)
}

func TestWriterStartWhileFramingFails(t *testing.T) {
	w := NewWriter(nil)
	w.Start(wire.FrontendSimpleQuery)
	w.Start(wire.FrontendSync)
	require.ErrorIs(t, w.Error(), ErrAlreadyFraming)
}

func TestWriterViewLiveBlocksMutation(t *testing.T) {
	w := NewWriter(nil)
	w.WriteByte(1)

	_ = w.View()
	w.WriteByte(2)
	require.ErrorIs(t, w.Error(), ErrViewLive)

	w.ReleaseView()
	w.err = nil
	w.WriteByte(2)
	require.NoError(t, w.Error())
}

func TestWriterRoundTripsIntegers(t *testing.T) {
	w := NewWriter(nil)
	w.WriteInt16(-7)
	w.WriteInt32(123456)
	w.WriteInt64(-9223372036854775807)
	w.WriteFloat64(3.25)

	out := w.View()

	r := NewMessageParser(out)
	i16, err := r.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(-7), i16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(123456), i32)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, int64(-9223372036854775807), i64)

	f64b, err := r.ReadBytes(8)
	require.NoError(t, err)
	require.Equal(t, 3.25, getFloat64(f64b))
}

func TestWriterWriteBufferAppendsOther(t *testing.T) {
	inner := NewWriter(nil)
	inner.WriteCString([]byte("abc"))

	outer := NewWriter(nil)
	outer.WriteByte(9)
	outer.WriteBuffer(inner)

	out := outer.View()
	require.Equal(t, []byte{9, 'a', 'b', 'c', 0}, out)
}
