package buffer

import (
	"log/slog"

	"github.com/pgfe/pgfe/wire"
)

// DefaultMaxMessageSize bounds how large a single backend message payload
// may declare itself to be before the reader refuses it outright.
const DefaultMaxMessageSize = 1 << 24 // 16MiB

// Reader is a chained-segment ingress buffer: bytes arrive in whatever
// chunks the transport hands over via Feed, and the reader recognises
// whole PostgreSQL messages without ever copying a segment it doesn't have
// to. It never blocks — HasMessage reports false until a full message is
// buffered, mirroring the cooperative, single-threaded scheduling model the
// rest of this module assumes.
type Reader struct {
	logger *slog.Logger

	segs []([]byte)
	head int // read offset into segs[0]
	total int // total unconsumed bytes buffered across all segments

	maxMessageSize int

	haveType   bool
	haveLength bool
	msgType    wire.BackendMessage
	msgLength  int32 // as declared on the wire: includes the 4 length bytes
	unread     int   // payload bytes of the current message not yet consumed
}

// NewReader constructs a Reader with the given maximum message size. A
// non-positive size selects DefaultMaxMessageSize.
func NewReader(logger *slog.Logger, maxMessageSize int) *Reader {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{logger: logger, maxMessageSize: maxMessageSize}
}

// Feed appends a segment of bytes as delivered by the transport. A
// zero-length feed is a no-op; the segment itself is never copied.
func (r *Reader) Feed(b []byte) {
	if len(b) == 0 {
		return
	}

	r.segs = append(r.segs, b)
	r.total += len(b)
}

// Buffered returns the number of bytes currently held, across all segments,
// that have not yet been consumed.
func (r *Reader) Buffered() int {
	return r.total
}

// HasMessage reports whether the current message is fully buffered. If no
// header has been parsed yet it attempts to parse one (one type byte plus
// four big-endian length bytes), returning false if either is not yet
// available rather than blocking.
func (r *Reader) HasMessage() (bool, error) {
	if !r.haveType {
		if r.total < 1 {
			return false, nil
		}

		b, err := r.takeBytesRaw(1)
		if err != nil {
			return false, err
		}

		r.msgType = wire.BackendMessage(b[0])
		r.haveType = true
	}

	if !r.haveLength {
		if r.total < 4 {
			return false, nil
		}

		b, err := r.takeBytesRaw(4)
		if err != nil {
			return false, err
		}

		length := getInt32(b)
		if length < 4 {
			return false, newShortRead(4, int(length))
		}

		payload := int(length) - 4
		if payload > r.maxMessageSize {
			return false, newMessageTooLarge(payload, r.maxMessageSize)
		}

		r.msgLength = length
		r.haveLength = true
		r.unread = payload

		r.logger.Debug("<- message framed", slog.String("type", r.msgType.String()), slog.Int("length", payload))
	}

	return r.total >= r.unread, nil
}

// MessageType returns the type tag of the current message. Only valid once
// HasMessage has parsed a header.
func (r *Reader) MessageType() wire.BackendMessage {
	return r.msgType
}

// MessageLength returns the declared length of the current message,
// including the four length bytes themselves.
func (r *Reader) MessageLength() int32 {
	return r.msgLength
}

// Unread returns the number of payload bytes of the current message not
// yet consumed.
func (r *Reader) Unread() int {
	return r.unread
}

// ReadByte consumes and returns a single byte from the current message.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.takeBounded(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadInt16 consumes a big-endian signed 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	b, err := r.takeBounded(2)
	if err != nil {
		return 0, err
	}

	return getInt16(b), nil
}

// ReadUint16 consumes a big-endian unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.takeBounded(2)
	if err != nil {
		return 0, err
	}

	return getUint16(b), nil
}

// ReadInt32 consumes a big-endian signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.takeBounded(4)
	if err != nil {
		return 0, err
	}

	return getInt32(b), nil
}

// ReadUint32 consumes a big-endian unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.takeBounded(4)
	if err != nil {
		return 0, err
	}

	return getUint32(b), nil
}

// ReadInt64 consumes a big-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.takeBounded(8)
	if err != nil {
		return 0, err
	}

	return getInt64(b), nil
}

// ReadBytes consumes and returns the next n bytes of the current message.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	return r.takeBounded(n)
}

// ReadCString reads a NUL-terminated string; the NUL is consumed but
// excluded from the returned bytes. It is an error for the NUL to lie
// outside the current message.
func (r *Reader) ReadCString() ([]byte, error) {
	pos, found := r.indexNUL()
	if !found {
		return nil, ErrMissingNulTerminator
	}

	data, err := r.takeBounded(pos)
	if err != nil {
		return nil, err
	}

	if _, err := r.takeBounded(1); err != nil { // consume the NUL itself
		return nil, err
	}

	return data, nil
}

// ConsumeMessage returns the remaining unread bytes of the current message
// without discarding the framing state.
func (r *Reader) ConsumeMessage() ([]byte, error) {
	return r.takeBounded(r.unread)
}

// DiscardMessage drops any unread tail of the current message and clears
// the framing state so the next HasMessage call starts a fresh header.
// Underreading before discard is tolerated; it is treated as the caller
// deliberately skipping the remainder of the message.
func (r *Reader) DiscardMessage() error {
	if r.unread > 0 {
		if _, err := r.takeBounded(r.unread); err != nil {
			return err
		}
	}

	r.haveType = false
	r.haveLength = false
	r.msgLength = 0
	r.unread = 0
	return nil
}

// NewMessageParser constructs a synthetic reader containing exactly one
// pre-framed message wrapping payload, used to decode descriptor bodies
// (RowDescription, ParameterDescription) that have already been extracted
// from the wire.
func NewMessageParser(payload []byte) *Reader {
	r := &Reader{
		logger:         slog.Default(),
		maxMessageSize: len(payload),
		haveType:       true,
		haveLength:     true,
		unread:         len(payload),
	}

	if len(payload) > 0 {
		r.segs = [][]byte{payload}
		r.total = len(payload)
	}

	return r
}

// takeBytesRaw consumes n bytes regardless of message framing (used only
// while parsing the header itself, before unread is established).
func (r *Reader) takeBytesRaw(n int) ([]byte, error) {
	if n > r.total {
		return nil, newShortRead(n, r.total)
	}

	return r.take(n), nil
}

// takeBounded consumes n bytes, enforcing that reads never cross the
// current message's boundary.
func (r *Reader) takeBounded(n int) ([]byte, error) {
	if n > r.unread {
		return nil, ErrOverread
	}

	if n > r.total {
		return nil, newShortRead(n, r.total)
	}

	b := r.take(n)
	r.unread -= n
	return b, nil
}

// take physically consumes n bytes (n <= r.total), taking the fast
// zero-copy path when the head segment alone satisfies the request.
func (r *Reader) take(n int) []byte {
	if n == 0 {
		return nil
	}

	if len(r.segs) > 0 && len(r.segs[0])-r.head >= n {
		b := r.segs[0][r.head : r.head+n]
		r.head += n
		r.total -= n

		if r.head == len(r.segs[0]) {
			r.segs = r.segs[1:]
			r.head = 0
		}

		return b
	}

	out := make([]byte, n)
	copied := 0

	for copied < n {
		seg := r.segs[0]
		avail := len(seg) - r.head
		take := n - copied
		if take > avail {
			take = avail
		}

		copy(out[copied:], seg[r.head:r.head+take])
		r.head += take
		copied += take

		if r.head == len(seg) {
			r.segs = r.segs[1:]
			r.head = 0
		}
	}

	r.total -= n
	return out
}

// indexNUL scans forward, without consuming, for a NUL byte within the
// unread portion of the current message. It returns the byte offset of the
// NUL (exclusive of the NUL itself) and whether one was found.
func (r *Reader) indexNUL() (int, bool) {
	scanned := 0
	idx := 0
	off := r.head

	for _, seg := range r.segs {
		for i := off; i < len(seg); i++ {
			if scanned >= r.unread {
				return idx, false
			}

			if seg[i] == 0 {
				return idx, true
			}

			idx++
			scanned++
		}

		off = 0
	}

	return idx, false
}
