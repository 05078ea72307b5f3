// Package pgfe implements the client side of the PostgreSQL v3
// frontend/backend wire protocol: framing, the extended-query state
// machine, and the codec subsystem that converts between Go values and
// PostgreSQL binary wire formats.
package pgfe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/codec"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// Transport is the raw byte-stream collaborator external to the core:
// something that reads and writes bytes and can be torn down on a hard
// cancel or connection loss. *net.Conn, *tls.Conn and net.Pipe halves
// all satisfy it.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// Frontend drives one PostgreSQL connection's extended-query state
// machine. It owns its read buffer, write buffer, pending in-flight
// operation, and a reference to the codec Registry shared for this
// session; Settings is shared by reference with whatever owns the
// Frontend.
//
// Two goroutines touch a Frontend: Run, which owns the transport's read
// side and drives dispatch, and whichever goroutine the caller uses to
// submit operations (Prepare, BindExecute, ...) and writes to the
// transport. mu linearizes the handful of fields both sides touch
// (pending, state, connState) — the one mutual-exclusion discipline
// the model requires.
type Frontend struct {
	conn     Transport
	settings *Settings
	registry *codec.Registry

	reader *buffer.Reader

	mu         sync.Mutex
	connState  connState
	state      execState
	txStatus   wire.TransactionStatus
	pending    *pendingOp
	failedWith error

	serverParams  map[string]string
	backendPID    int32
	backendSecret int32
}

// NewFrontend constructs a Frontend over an already-dialed transport. Call
// Start to send the startup packet and Run (typically in its own
// goroutine) to begin processing backend messages; Start's returned
// Future only completes once Run is pumping.
func NewFrontend(conn Transport, settings *Settings, registry *codec.Registry) *Frontend {
	if settings == nil {
		settings = defaultSettings()
	}

	return &Frontend{
		conn:         conn,
		settings:     settings,
		registry:     registry,
		reader:       buffer.NewReader(settings.Logger, settings.MaxMessageSize),
		txStatus:     wire.TxIdle,
		serverParams: map[string]string{},
	}
}

// ServerParam returns the most recently observed value of a
// ParameterStatus key (e.g. "server_version", "DateStyle"), and whether it
// has been reported at all.
func (f *Frontend) ServerParam(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.serverParams[key]
	return v, ok
}

// TxStatus reports the transaction status from the most recent
// ReadyForQuery.
func (f *Frontend) TxStatus() wire.TransactionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.txStatus
}

// BackendPID and BackendSecret identify this connection for a CancelRequest
// sent over a second connection.
func (f *Frontend) BackendPID() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backendPID
}

func (f *Frontend) BackendSecret() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backendSecret
}

// Run reads from the transport until ctx is done, a read error occurs, or
// the connection fails fatally. It is the one task responsible for
// reading from the transport; callers run it in its own goroutine.
// Run returns nil on ctx cancellation or on io.EOF (whether or not a
// Terminate/Close preceded it; a pending request still completes with a
// ConnectionLostError), the dispatch error when a message cannot be
// processed, and a ConnectionLostError for any other read failure.
func (f *Frontend) Run(ctx context.Context) error {
	buf := make([]byte, 32*1024)
	br := bufio.NewReaderSize(f.conn, len(buf))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := br.Read(buf)
		if n > 0 {
			f.reader.Feed(append([]byte{}, buf[:n]...))
			if perr := f.pump(); perr != nil {
				f.abort(perr)
				return perr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				f.abort(pgerr.NewConnectionLostError(err))
				return nil
			}
			cerr := pgerr.NewConnectionLostError(err)
			f.abort(cerr)
			return cerr
		}
	}
}

// pump dispatches every fully-buffered message currently available,
// mirroring command.go's consumeCommands loop: HasMessage, dispatch,
// DiscardMessage, repeat until no whole message remains.
func (f *Frontend) pump() error {
	for {
		has, err := f.reader.HasMessage()
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}
		if !has {
			return nil
		}

		tag := f.reader.MessageType()
		payload, err := f.reader.ConsumeMessage()
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}

		f.settings.Logger.Debug("<- incoming message", slog.String("type", tag.String()))

		f.mu.Lock()
		derr := f.dispatch(wire.BackendMessage(tag), payload)
		f.mu.Unlock()

		if err := f.reader.DiscardMessage(); err != nil {
			return pgerr.WrapProtocolError(err)
		}

		if derr != nil {
			return derr
		}
	}
}

// send writes w's framed bytes to the transport and releases its view.
// Encoding failures are surfaced before send is ever called, so no bytes
// are ever written for a DataError; any error here is a genuine
// transport failure.
func (f *Frontend) send(w *buffer.Writer) error {
	if err := w.Error(); err != nil {
		return err
	}

	payload := w.View()
	_, err := f.conn.Write(payload)
	w.ReleaseView()

	if err != nil {
		cerr := pgerr.NewConnectionLostError(err)
		f.mu.Lock()
		f.failLocked(cerr)
		f.mu.Unlock()
		return cerr
	}

	return nil
}

// submit registers op as the sole in-flight request, rejecting a second
// concurrent one: at most one outstanding request is allowed per
// connection.
func (f *Frontend) submit(state execState, op *pendingOp) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == stateFailed {
		return pgerr.NewInterfaceError("connection is permanently failed")
	}
	if f.pending != nil || f.state != stateIdle {
		return pgerr.NewInterfaceError("a request is already in progress on this connection")
	}

	f.pending = op
	f.state = state
	return nil
}

// abortCurrent rolls back a submit call whose transport write failed,
// returning the connection to idle so a later call isn't blocked forever
// by a request that never reached the wire. Only valid before any bytes of
// the request have been sent.
func (f *Frontend) abortCurrent() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = nil
	if f.state != stateFailed {
		f.state = stateIdle
	}
}

// abort is the hard-cancel path: the connection is marked failed, and
// any pending caller completes with a connection-lost error.
func (f *Frontend) abort(err error) {
	f.mu.Lock()
	f.failLocked(err)
	pending := f.pending
	f.pending = nil
	f.mu.Unlock()

	if pending != nil {
		pending.result.Err = err
		pending.future.complete(pending.result)
	}
}

func (f *Frontend) failLocked(err error) {
	f.connState = connBad
	f.state = stateFailed
	if f.failedWith == nil {
		f.failedWith = err
	}
}

// Abort tears down the transport immediately: the connection is marked
// failed and any pending caller completes with a connection-lost error.
func (f *Frontend) Abort() error {
	f.abort(pgerr.NewConnectionLostError(nil))
	return f.conn.Close()
}

// Close sends Terminate and closes the transport. It does not wait for any
// acknowledgement, since the protocol defines none for Terminate.
func (f *Frontend) Close() error {
	w := buffer.NewWriter(f.settings.Logger)
	w.Start(wire.FrontendTerminate)
	if err := w.End(); err != nil {
		return err
	}

	sendErr := f.send(w)

	f.mu.Lock()
	f.connState = connBad
	f.state = stateFailed
	f.mu.Unlock()

	closeErr := f.conn.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// connBadError renders the failure reason captured by failLocked, for
// callers inspecting why a connection is in connBad/stateFailed.
func (f *Frontend) connBadError() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failedWith != nil {
		return f.failedWith
	}
	return fmt.Errorf("pgfe: connection is not usable")
}
