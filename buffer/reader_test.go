package buffer

import (
	"testing"

	"github.com/pgfe/pgfe/wire"
	"github.com/stretchr/testify/require"
)

func encodeFrame(t wire.BackendMessage, payload []byte) []byte {
	out := make([]byte, 0, 5+len(payload))
	out = append(out, byte(t))
	length := int32(len(payload) + 4)
	out = append(out, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	out = append(out, payload...)
	return out
}

func TestReaderHasMessageAcrossSegments(t *testing.T) {
	frame := encodeFrame(wire.BackendDataRow, []byte{0, 1, 2, 3})

	r := NewReader(nil, 0)

	for _, b := range frame[:4] {
		r.Feed([]byte{b})
		has, err := r.HasMessage()
		require.NoError(t, err)
		require.False(t, has)
	}

	r.Feed(frame[4:])
	has, err := r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)
	require.Equal(t, wire.BackendDataRow, r.MessageType())
	require.Equal(t, 4, r.Unread())
}

func TestReaderReadPrimitives(t *testing.T) {
	payload := []byte{0x00, 0x2A, 0x00, 0x00, 0x01, 0x00, 'h', 'i', 0}
	frame := encodeFrame(wire.BackendParameterStatus, payload)

	r := NewReader(nil, 0)
	r.Feed(frame)

	has, err := r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)

	i16, err := r.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(42), i16)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.Equal(t, int32(256), i32)

	s, err := r.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "hi", string(s))

	require.Equal(t, 0, r.Unread())
}

func TestReaderReadPastEndOfMessage(t *testing.T) {
	frame := encodeFrame(wire.BackendCommandComplete, []byte{1})

	r := NewReader(nil, 0)
	r.Feed(frame)

	has, err := r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)

	_, err = r.ReadBytes(2)
	require.ErrorIs(t, err, ErrOverread)
}

func TestReaderMissingNulTerminator(t *testing.T) {
	frame := encodeFrame(wire.BackendParameterStatus, []byte{'x', 'y'})

	r := NewReader(nil, 0)
	r.Feed(frame)

	has, err := r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)

	_, err = r.ReadCString()
	require.ErrorIs(t, err, ErrMissingNulTerminator)
}

func TestReaderMessageTooLarge(t *testing.T) {
	payload := make([]byte, 16)
	frame := encodeFrame(wire.BackendDataRow, payload)

	r := NewReader(nil, 4) // max payload of 4 bytes
	r.Feed(frame)

	_, err := r.HasMessage()
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestReaderDiscardMessageTolerantOfUnderread(t *testing.T) {
	frame1 := encodeFrame(wire.BackendDataRow, []byte{1, 2, 3, 4})
	frame2 := encodeFrame(wire.BackendReadyForQuery, []byte{'I'})

	r := NewReader(nil, 0)
	r.Feed(append(append([]byte{}, frame1...), frame2...))

	has, err := r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)

	_, err = r.ReadByte() // read only one of four bytes
	require.NoError(t, err)

	require.NoError(t, r.DiscardMessage())

	has, err = r.HasMessage()
	require.NoError(t, err)
	require.True(t, has)
	require.Equal(t, wire.BackendReadyForQuery, r.MessageType())

	status, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('I'), status)
}

func TestNewMessageParser(t *testing.T) {
	p := NewMessageParser([]byte{0, 1, 'n', 'a', 'm', 'e', 0})

	count, err := p.ReadInt16()
	require.NoError(t, err)
	require.Equal(t, int16(1), count)

	name, err := p.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "name", string(name))

	require.Equal(t, 0, p.Unread())
}
