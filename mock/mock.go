// Package mock builds scripted PostgreSQL backend transcripts and decodes
// frontend message bytes, so tests can drive a Frontend end-to-end without a
// real server.
package mock

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/wire"
)

// Server accumulates a sequence of backend messages to feed a Frontend.
type Server struct {
	t *testing.T
	w *buffer.Writer
}

// NewServer constructs an empty scripted transcript.
func NewServer(t *testing.T) *Server {
	t.Helper()
	return &Server{t: t, w: buffer.NewWriter(slogt.New(t))}
}

// Bytes returns the transcript built so far as a single contiguous slice,
// suitable for one or more Reader.Feed calls.
func (s *Server) Bytes() []byte {
	return append([]byte{}, s.w.View()...)
}

func (s *Server) message(tag wire.BackendMessage, build func(*buffer.Writer)) *Server {
	s.t.Helper()
	s.w.Start(wire.FrontendMessage(tag))
	if build != nil {
		build(s.w)
	}
	if err := s.w.End(); err != nil {
		s.t.Fatalf("mock: failed to close %s message: %v", tag, err)
	}
	return s
}

// AuthenticationOK appends an AuthenticationRequest(0) message.
func (s *Server) AuthenticationOK() *Server {
	return s.message(wire.BackendAuth, func(w *buffer.Writer) {
		w.WriteInt32(0)
	})
}

// AuthenticationCleartextPassword appends an AuthenticationRequest(3).
func (s *Server) AuthenticationCleartextPassword() *Server {
	return s.message(wire.BackendAuth, func(w *buffer.Writer) {
		w.WriteInt32(3)
	})
}

// ParameterStatus appends a ParameterStatus message.
func (s *Server) ParameterStatus(name, value string) *Server {
	return s.message(wire.BackendParameterStatus, func(w *buffer.Writer) {
		w.WriteCString([]byte(name))
		w.WriteCString([]byte(value))
	})
}

// BackendKeyData appends a BackendKeyData message.
func (s *Server) BackendKeyData(pid, secret int32) *Server {
	return s.message(wire.BackendKeyData, func(w *buffer.Writer) {
		w.WriteInt32(pid)
		w.WriteInt32(secret)
	})
}

// ReadyForQuery appends a ReadyForQuery message with the given transaction
// status byte ('I', 'T', or 'E').
func (s *Server) ReadyForQuery(status byte) *Server {
	return s.message(wire.BackendReadyForQuery, func(w *buffer.Writer) {
		w.WriteByte(status)
	})
}

// ParseComplete appends a ParseComplete message.
func (s *Server) ParseComplete() *Server {
	return s.message(wire.BackendParseComplete, nil)
}

// BindComplete appends a BindComplete message.
func (s *Server) BindComplete() *Server {
	return s.message(wire.BackendBindComplete, nil)
}

// CloseComplete appends a CloseComplete message.
func (s *Server) CloseComplete() *Server {
	return s.message(wire.BackendCloseComplete, nil)
}

// NoData appends a NoData message.
func (s *Server) NoData() *Server {
	return s.message(wire.BackendNoData, nil)
}

// EmptyQueryResponse appends an EmptyQueryResponse message.
func (s *Server) EmptyQueryResponse() *Server {
	return s.message(wire.BackendEmptyQueryResponse, nil)
}

// PortalSuspended appends a PortalSuspended message.
func (s *Server) PortalSuspended() *Server {
	return s.message(wire.BackendPortalSuspended, nil)
}

// Field describes one column of a scripted RowDescription.
type Field struct {
	Name         string
	TableOID     int32
	ColumnAttr   int16
	TypeOID      int32
	TypeSize     int16
	TypeModifier int32
	Format       int16
}

// ParameterDescription appends a ParameterDescription message: int16 count
// + count * uint32 oid.
func (s *Server) ParameterDescription(oids ...int32) *Server {
	return s.message(wire.BackendParameterDescription, func(w *buffer.Writer) {
		w.WriteInt16(int16(len(oids)))
		for _, o := range oids {
			w.WriteInt32(o)
		}
	})
}

// RowDescription appends a RowDescription message.
func (s *Server) RowDescription(fields ...Field) *Server {
	return s.message(wire.BackendRowDescription, func(w *buffer.Writer) {
		w.WriteInt16(int16(len(fields)))
		for _, f := range fields {
			w.WriteCString([]byte(f.Name))
			w.WriteInt32(f.TableOID)
			w.WriteInt16(f.ColumnAttr)
			w.WriteInt32(f.TypeOID)
			w.WriteInt16(f.TypeSize)
			w.WriteInt32(f.TypeModifier)
			w.WriteInt16(f.Format)
		}
	})
}

// DataRow appends a DataRow message. A nil entry in values encodes an SQL
// NULL (length -1).
func (s *Server) DataRow(values ...[]byte) *Server {
	return s.message(wire.BackendDataRow, func(w *buffer.Writer) {
		w.WriteInt16(int16(len(values)))
		for _, v := range values {
			if v == nil {
				w.WriteInt32(-1)
				continue
			}
			w.WriteInt32(int32(len(v)))
			w.WriteBytes(v)
		}
	})
}

// CommandComplete appends a CommandComplete message.
func (s *Server) CommandComplete(tag string) *Server {
	return s.message(wire.BackendCommandComplete, func(w *buffer.Writer) {
		w.WriteCString([]byte(tag))
	})
}

// ErrorResponse appends an ErrorResponse built from wire field-code/value
// pairs, e.g. {'S': "ERROR", 'C': "42601", 'M': "syntax error"}.
func (s *Server) ErrorResponse(fields map[byte]string) *Server {
	return s.message(wire.BackendErrorResponse, func(w *buffer.Writer) {
		for code, value := range fields {
			w.WriteByte(code)
			w.WriteCString([]byte(value))
		}
		w.WriteByte(0)
	})
}

// NoticeResponse appends a NoticeResponse with the same field encoding as
// ErrorResponse.
func (s *Server) NoticeResponse(fields map[byte]string) *Server {
	return s.message(wire.BackendNoticeResponse, func(w *buffer.Writer) {
		for code, value := range fields {
			w.WriteByte(code)
			w.WriteCString([]byte(value))
		}
		w.WriteByte(0)
	})
}

// NotificationResponse appends a NotificationResponse from LISTEN/NOTIFY.
func (s *Server) NotificationResponse(pid int32, channel, payload string) *Server {
	return s.message(wire.BackendNotificationResponse, func(w *buffer.Writer) {
		w.WriteInt32(pid)
		w.WriteCString([]byte(channel))
		w.WriteCString([]byte(payload))
	})
}

// FrontendFrame is a single decoded message pulled out of the bytes a
// Frontend wrote to its transport.
type FrontendFrame struct {
	Type    wire.FrontendMessage
	Payload []byte
}

// DecodeFrontend splits a contiguous write into its individual framed
// messages, for asserting what a Frontend sent without needing a real
// listening socket.
func DecodeFrontend(t *testing.T, data []byte) []FrontendFrame {
	t.Helper()

	r := buffer.NewReader(slogt.New(t), 0)
	r.Feed(data)

	var frames []FrontendFrame
	for r.Buffered() > 0 {
		has, err := r.HasMessage()
		if err != nil {
			t.Fatalf("mock: malformed frontend frame: %v", err)
		}
		if !has {
			t.Fatalf("mock: truncated frontend frame")
		}

		payload, err := r.ConsumeMessage()
		if err != nil {
			t.Fatalf("mock: failed to consume frontend frame: %v", err)
		}

		frames = append(frames, FrontendFrame{
			Type:    wire.FrontendMessage(r.MessageType()),
			Payload: append([]byte{}, payload...),
		})

		if err := r.DiscardMessage(); err != nil {
			t.Fatalf("mock: failed to discard frontend frame: %v", err)
		}
	}

	return frames
}
