package buffer

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/pgfe/pgfe/wire"
)

// TextEncoder converts a native string into the bytes written for a
// session's configured client_encoding. The UTF-8 path never needs one;
// non-UTF-8 encodings are supplied by pgfe.XTextEncoding, which wraps a
// golang.org/x/text/encoding.Encoding.
type TextEncoder interface {
	Encode(s string) ([]byte, error)
}

// Writer is a growable outbound buffer with two modes: free-form writes of
// scratch bytes (used by codecs composing a Bind argument) and
// message-framing mode, where Start/End wrap one or more whole frontend
// messages destined for a single transport write.
type Writer struct {
	logger *slog.Logger

	buf      bytes.Buffer
	msgStart int // offset of the open message's tag byte, or -1
	err      error
	viewLive bool
	scratch  [8]byte
}

// NewWriter constructs an empty Writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{logger: logger, msgStart: -1}
}

// ErrNotFraming is returned by End or EndUntyped when no message is currently open.
var ErrNotFraming = errors.New("buffer: End called without a matching Start")

// ErrAlreadyFraming is returned by Start when a message is already open.
var ErrAlreadyFraming = errors.New("buffer: Start called while a message is already open")

// Error returns the first error encountered by a write call, if any.
func (w *Writer) Error() error {
	return w.err
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) guardMutation() bool {
	if w.viewLive {
		w.fail(ErrViewLive)
		return false
	}

	return w.err == nil
}

// Start opens a new message of the given type: the tag byte is written
// immediately and four placeholder length bytes are reserved, patched by
// the matching End call. Calling Start while a message is already open is
// an error.
func (w *Writer) Start(tag wire.FrontendMessage) {
	if !w.guardMutation() {
		return
	}

	if w.msgStart >= 0 {
		w.fail(ErrAlreadyFraming)
		return
	}

	w.msgStart = w.buf.Len()
	w.buf.WriteByte(byte(tag))
	w.buf.Write([]byte{0, 0, 0, 0})
}

// End patches the reserved length field of the currently open message to
// total_written - 1 (excluding the tag byte) and closes framing mode.
func (w *Writer) End() error {
	if w.err != nil {
		return w.err
	}

	if w.msgStart < 0 {
		return ErrNotFraming
	}

	length := w.buf.Len() - w.msgStart - 1
	raw := w.buf.Bytes()
	putInt32(raw[w.msgStart+1:w.msgStart+5], int32(length))
	w.msgStart = -1
	return nil
}

// Untyped starts an untyped message (the startup packet or a cancel
// request): no tag byte, just the four-byte length placeholder.
func (w *Writer) Untyped() {
	if !w.guardMutation() {
		return
	}

	if w.msgStart >= 0 {
		w.fail(ErrAlreadyFraming)
		return
	}

	w.msgStart = w.buf.Len()
	w.buf.Write([]byte{0, 0, 0, 0})
}

// EndUntyped patches the length of a message opened with Untyped, where the
// length includes itself but there is no preceding tag byte.
func (w *Writer) EndUntyped() error {
	if w.err != nil {
		return w.err
	}

	if w.msgStart < 0 {
		return ErrNotFraming
	}

	length := w.buf.Len() - w.msgStart
	raw := w.buf.Bytes()
	putInt32(raw[w.msgStart:w.msgStart+4], int32(length))
	w.msgStart = -1
	return nil
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) {
	if !w.guardMutation() {
		return
	}

	w.err = w.buf.WriteByte(b)
}

// WriteInt16 appends a big-endian signed 16-bit integer.
func (w *Writer) WriteInt16(v int16) {
	if !w.guardMutation() {
		return
	}

	putInt16(w.scratch[:2], v)
	w.buf.Write(w.scratch[:2])
}

// WriteUint16 appends a big-endian unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	if !w.guardMutation() {
		return
	}

	putUint16(w.scratch[:2], v)
	w.buf.Write(w.scratch[:2])
}

// WriteInt32 appends a big-endian signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) {
	if !w.guardMutation() {
		return
	}

	putInt32(w.scratch[:4], v)
	w.buf.Write(w.scratch[:4])
}

// WriteUint32 appends a big-endian unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	if !w.guardMutation() {
		return
	}

	putUint32(w.scratch[:4], v)
	w.buf.Write(w.scratch[:4])
}

// WriteInt64 appends a big-endian signed 64-bit integer.
func (w *Writer) WriteInt64(v int64) {
	if !w.guardMutation() {
		return
	}

	putInt64(w.scratch[:8], v)
	w.buf.Write(w.scratch[:8])
}

// WriteFloat32 appends the IEEE-754 big-endian bit pattern of v.
func (w *Writer) WriteFloat32(v float32) {
	if !w.guardMutation() {
		return
	}

	putFloat32(w.scratch[:4], v)
	w.buf.Write(w.scratch[:4])
}

// WriteFloat64 appends the IEEE-754 big-endian bit pattern of v.
func (w *Writer) WriteFloat64(v float64) {
	if !w.guardMutation() {
		return
	}

	putFloat64(w.scratch[:8], v)
	w.buf.Write(w.scratch[:8])
}

// WriteBytes appends raw bytes with no framing.
func (w *Writer) WriteBytes(b []byte) {
	if !w.guardMutation() {
		return
	}

	w.buf.Write(b)
}

// WriteCString appends raw bytes followed by a NUL terminator.
func (w *Writer) WriteCString(b []byte) {
	if !w.guardMutation() {
		return
	}

	w.buf.Write(b)
	w.err = w.buf.WriteByte(0)
}

// WriteBytestring is an alias of WriteCString kept to name the PostgreSQL
// wire vocabulary ("bytestring" wire fields are always NUL-terminated).
func (w *Writer) WriteBytestring(b []byte) {
	w.WriteCString(b)
}

// WriteString encodes s using enc (nil means UTF-8, a byte-identical copy)
// and appends it NUL-terminated.
func (w *Writer) WriteString(s string, enc TextEncoder) {
	if !w.guardMutation() {
		return
	}

	if enc == nil {
		w.buf.WriteString(s)
		w.err = w.buf.WriteByte(0)
		return
	}

	encoded, err := enc.Encode(s)
	if err != nil {
		w.fail(err)
		return
	}

	w.buf.Write(encoded)
	w.err = w.buf.WriteByte(0)
}

// WriteBuffer appends the full contents of other's current buffer.
func (w *Writer) WriteBuffer(other *Writer) {
	if !w.guardMutation() {
		return
	}

	w.buf.Write(other.View())
}

// View returns an immutable view of the bytes written so far. The buffer
// must not be mutated (Start, Reset, WriteXxx, ...) while a view is live;
// call ReleaseView once the caller is done with it (typically right after
// handing the bytes to the transport).
func (w *Writer) View() []byte {
	w.viewLive = true
	return w.buf.Bytes()
}

// ReleaseView clears the live-view guard so the buffer may be mutated again.
func (w *Writer) ReleaseView() {
	w.viewLive = false
}

// Reset clears the buffer for reuse, discarding any message still open. It
// is an error to call while a view is live.
func (w *Writer) Reset() {
	if w.viewLive {
		w.fail(ErrViewLive)
		return
	}

	w.buf.Reset()
	w.msgStart = -1
	w.err = nil
}

// Len reports the number of bytes currently written.
func (w *Writer) Len() int {
	return w.buf.Len()
}
