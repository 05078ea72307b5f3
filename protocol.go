package pgfe

import (
	"log/slog"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/codec"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// connState is the connection lifecycle.
type connState int

const (
	connBad connState = iota
	connStarted
	connOK
)

// execState is what the protocol is currently waiting for.
type execState int

const (
	stateIdle execState = iota
	stateAuth
	statePrepare
	stateBind
	stateBindExecute
	stateExecute
	stateCloseStmtPortal
	stateSimpleQuery
	stateErrorConsume
	stateFailed
)

func (s execState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAuth:
		return "auth"
	case statePrepare:
		return "prepare"
	case stateBind:
		return "bind"
	case stateBindExecute:
		return "bind_execute"
	case stateExecute:
		return "execute"
	case stateCloseStmtPortal:
		return "close_stmt_portal"
	case stateSimpleQuery:
		return "simple_query"
	case stateErrorConsume:
		return "error_consume"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CommandResult is one statement's outcome within a simple Query cycle,
// which may run several statements back to back.
type CommandResult struct {
	Columns    []ColumnDescriptor
	Rows       [][]any
	CommandTag string
	Empty      bool
}

// Result is what a Future completes with: the accumulated outcome of one
// high-level operation (Prepare, BindExecute, Execute, Query, ...).
type Result struct {
	// Prepare.
	ParamOIDs []oid.OID
	Columns   []ColumnDescriptor

	// Bind/Execute single-portal results.
	Rows            [][]any
	CommandTag      string
	PortalSuspended bool
	NoData          bool

	// Query (simple query protocol); one entry per statement executed.
	Results []CommandResult

	Err error
}

// Future is the completion handle each high-level operation returns,
// fulfilled exactly once by the state machine.
type Future struct {
	ch chan *Result
}

func newFuture() *Future {
	return &Future{ch: make(chan *Result, 1)}
}

func (f *Future) complete(r *Result) {
	f.ch <- r
}

// Wait blocks until the operation completes, returning its Result. If the
// Result carries a non-nil Err, Wait also returns it as the error value for
// convenience.
func (f *Future) Wait() (*Result, error) {
	r := <-f.ch
	return r, r.Err
}

// Done returns the channel the Result arrives on, for callers that want to
// select on it directly (e.g. alongside a context deadline).
func (f *Future) Done() <-chan *Result {
	return f.ch
}

// pendingOp tracks what the currently in-flight request is accumulating
// into, plus the prepared statement/portal it concerns (nil for startup
// and Query).
type pendingOp struct {
	future *Future
	result *Result

	stmt   *Statement // receiving Parse/Describe results, or executing
	portal string

	currentCols []ColumnDescriptor // simple query: columns of the statement in progress
	currentRows [][]any
	gotRowDesc  bool // prepare: RowDescription|NoData has set result.Columns

	closingPortal        bool // Close(Portal) vs. Close(Statement), disambiguates completePending's cleanup
	autoDetachOnComplete bool // BindExecute/Execute: detach the portal once it runs to completion (not merely suspended)
}

// dispatch processes one fully-framed backend message. It is where every
// backend-driven execState transition happens (submit, abort and Close
// set the state from the caller's side), modelled on libpq's fe-protocol3.c
// message switch and command.go's per-type handleCommand dispatch,
// mirrored from server-receives to client-receives.
func (f *Frontend) dispatch(tag wire.BackendMessage, payload []byte) error {
	switch tag {
	case wire.BackendNoticeResponse:
		f.handleNotice(payload)
		return nil
	case wire.BackendNotificationResponse:
		return f.handleNotification(payload)
	case wire.BackendParameterStatus:
		return f.handleParameterStatus(payload)
	case wire.BackendCopyInResponse, wire.BackendCopyOutResponse, wire.BackendCopyBothResponse:
		return pgerr.NewErrCopyNotImplemented(tag)
	}

	if f.state == stateFailed {
		f.settings.Logger.Debug("message received while failed, ignoring", slog.String("type", tag.String()))
		return nil
	}

	if tag == wire.BackendErrorResponse {
		return f.handleErrorResponse(payload)
	}

	if f.state == stateErrorConsume {
		if tag == wire.BackendReadyForQuery {
			return f.handleReadyForQuery(payload)
		}
		f.settings.Logger.Debug("discarding message during error recovery", slog.String("type", tag.String()))
		return nil
	}

	switch f.state {
	case stateAuth:
		return f.dispatchAuth(tag, payload)
	case statePrepare:
		return f.dispatchPrepare(tag, payload)
	case stateBind:
		return f.dispatchBind(tag, payload)
	case stateBindExecute:
		return f.dispatchBindExecute(tag, payload)
	case stateExecute:
		return f.dispatchExecute(tag, payload)
	case stateCloseStmtPortal:
		return f.dispatchCloseStmtPortal(tag, payload)
	case stateSimpleQuery:
		return f.dispatchSimpleQuery(tag, payload)
	default:
		f.settings.Logger.Debug("unexpected message in idle state", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) handleNotice(payload []byte) {
	fields := parseErrorFields(payload)
	e := pgerr.ParseFields(fields)
	if f.settings.OnNotice != nil {
		f.settings.OnNotice(e)
	}
}

func (f *Frontend) handleNotification(payload []byte) error {
	r := buffer.NewMessageParser(payload)
	pid, err := r.ReadInt32()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}
	channel, err := r.ReadCString()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}
	msg, err := r.ReadCString()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}

	if f.settings.OnNotification != nil {
		f.settings.OnNotification(pid, string(channel), string(msg))
	}
	return nil
}

func (f *Frontend) handleParameterStatus(payload []byte) error {
	r := buffer.NewMessageParser(payload)
	name, err := r.ReadCString()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}
	value, err := r.ReadCString()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}

	f.serverParams[string(name)] = string(value)
	return nil
}

func (f *Frontend) handleErrorResponse(payload []byte) error {
	fields := parseErrorFields(payload)
	e := pgerr.ParseFields(fields)

	if f.pending != nil {
		f.pending.result.Err = pgerr.NewServerError(e)
	}

	f.state = stateErrorConsume
	return nil
}

func (f *Frontend) handleReadyForQuery(payload []byte) error {
	if len(payload) != 1 {
		return pgerr.NewProtocolError("ReadyForQuery payload length %d, want 1", len(payload))
	}

	f.txStatus = wire.TransactionStatus(payload[0])

	if f.pending != nil {
		f.completePending()
	}

	f.state = stateIdle
	return nil
}

func (f *Frontend) dispatchAuth(tag wire.BackendMessage, payload []byte) error {
	switch tag {
	case wire.BackendAuth:
		return f.handleAuthRequest(payload)
	case wire.BackendKeyData:
		return f.handleBackendKeyData(payload)
	case wire.BackendReadyForQuery:
		f.connState = connOK
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during auth", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) handleBackendKeyData(payload []byte) error {
	r := buffer.NewMessageParser(payload)
	pid, err := r.ReadInt32()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}
	secret, err := r.ReadInt32()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}

	f.backendPID = pid
	f.backendSecret = secret
	return nil
}

func (f *Frontend) dispatchPrepare(tag wire.BackendMessage, payload []byte) error {
	if f.pending == nil {
		return pgerr.NewProtocolError("prepare message %s received with no pending request", tag)
	}

	stmt := f.pending.stmt

	switch tag {
	case wire.BackendParseComplete:
		return nil
	case wire.BackendParameterDescription:
		if err := stmt.SetParamDesc(payload); err != nil {
			return err
		}
		f.pending.result.ParamOIDs = stmt.ParamOIDs
		return nil
	case wire.BackendRowDescription:
		if err := stmt.SetRowDesc(payload); err != nil {
			return err
		}
		f.pending.result.Columns = stmt.Columns
		f.pending.gotRowDesc = true
		return nil
	case wire.BackendNoData:
		f.pending.result.NoData = true
		f.pending.gotRowDesc = true
		return nil
	case wire.BackendReadyForQuery:
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during prepare", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) dispatchBind(tag wire.BackendMessage, payload []byte) error {
	switch tag {
	case wire.BackendBindComplete:
		return nil
	case wire.BackendReadyForQuery:
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during bind", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) dispatchBindExecute(tag wire.BackendMessage, payload []byte) error {
	return f.dispatchExecuteLike(tag, payload, true)
}

func (f *Frontend) dispatchExecute(tag wire.BackendMessage, payload []byte) error {
	return f.dispatchExecuteLike(tag, payload, false)
}

func (f *Frontend) dispatchExecuteLike(tag wire.BackendMessage, payload []byte, expectBind bool) error {
	if f.pending == nil {
		return pgerr.NewProtocolError("execute message %s received with no pending request", tag)
	}

	switch tag {
	case wire.BackendBindComplete:
		if !expectBind {
			f.settings.Logger.Debug("unexpected BindComplete during execute")
		}
		return nil
	case wire.BackendDataRow:
		row, err := f.pending.stmt.DecodeRow(payload, f.settings.TextEncoding)
		if err != nil {
			return err
		}
		f.pending.result.Rows = append(f.pending.result.Rows, row)
		return nil
	case wire.BackendCommandComplete:
		r := buffer.NewMessageParser(payload)
		tagStr, err := r.ReadCString()
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}
		f.pending.result.CommandTag = string(tagStr)
		return nil
	case wire.BackendPortalSuspended:
		f.pending.result.PortalSuspended = true
		return nil
	case wire.BackendEmptyQueryResponse:
		f.pending.result.NoData = true
		return nil
	case wire.BackendReadyForQuery:
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during execute", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) dispatchCloseStmtPortal(tag wire.BackendMessage, payload []byte) error {
	switch tag {
	case wire.BackendCloseComplete:
		return nil
	case wire.BackendReadyForQuery:
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during close", slog.String("type", tag.String()))
		return nil
	}
}

func (f *Frontend) dispatchSimpleQuery(tag wire.BackendMessage, payload []byte) error {
	if f.pending == nil {
		return pgerr.NewProtocolError("simple query message %s received with no pending request", tag)
	}

	switch tag {
	case wire.BackendRowDescription:
		cols, err := parseRowDescription(payload)
		if err != nil {
			return err
		}
		f.pending.currentCols = cols
		return nil
	case wire.BackendDataRow:
		row, err := decodeUntypedRow(payload, f.pending.currentCols, f.registry, f.settings.TextEncoding)
		if err != nil {
			return err
		}
		f.pending.currentRows = append(f.pending.currentRows, row)
		return nil
	case wire.BackendCommandComplete:
		r := buffer.NewMessageParser(payload)
		tagStr, err := r.ReadCString()
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}
		f.pending.result.Results = append(f.pending.result.Results, CommandResult{
			Columns:    f.pending.currentCols,
			Rows:       f.pending.currentRows,
			CommandTag: string(tagStr),
		})
		f.pending.currentCols = nil
		f.pending.currentRows = nil
		return nil
	case wire.BackendEmptyQueryResponse:
		f.pending.result.Results = append(f.pending.result.Results, CommandResult{Empty: true})
		return nil
	case wire.BackendReadyForQuery:
		return f.handleReadyForQuery(payload)
	default:
		f.settings.Logger.Debug("unexpected message during simple query", slog.String("type", tag.String()))
		return nil
	}
}

// decodeUntypedRow decodes a DataRow whose columns are known only as
// ColumnDescriptors (the simple query path, which never builds a
// Statement). Each field's codec is resolved from the registry by its
// TypeOID at decode time rather than bound once up front, since simple
// query results need no Describe round trip.
func decodeUntypedRow(data []byte, cols []ColumnDescriptor, reg *codec.Registry, enc buffer.TextEncoder) ([]any, error) {
	r := buffer.NewMessageParser(data)

	fnum, err := r.ReadInt16()
	if err != nil {
		return nil, pgerr.WrapProtocolError(err)
	}

	if int(fnum) != len(cols) {
		return nil, pgerr.NewProtocolError("DataRow has %d fields, RowDescription named %d", fnum, len(cols))
	}

	values := make([]any, fnum)
	for i := 0; i < int(fnum); i++ {
		length, err := r.ReadInt32()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}

		if length < 0 {
			values[i] = nil
			continue
		}

		payload, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}

		c, ok := reg.Lookup(cols[i].TypeOID)
		if !ok {
			return nil, pgerr.NewDataError(int(cols[i].TypeOID), "no codec registered for column %q OID %d", cols[i].Name, cols[i].TypeOID)
		}

		v, err := c.DecodeValue(payload, enc)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	return values, nil
}

func (f *Frontend) completePending() {
	p := f.pending
	f.pending = nil

	if p.result.Err == nil && p.stmt != nil {
		switch {
		case p.closingPortal:
			p.stmt.Detach()
		case f.state == stateCloseStmtPortal:
			_ = p.stmt.Close() // refs == 0 is guaranteed: callers only close a statement with no live portals
		case p.autoDetachOnComplete && !p.result.PortalSuspended:
			p.stmt.Detach()
		}
	}

	p.future.complete(p.result)
}

// parseErrorFields splits an ErrorResponse/NoticeResponse body into its
// byte-tag/NUL-terminated-string fields.
func parseErrorFields(payload []byte) map[byte]string {
	fields := map[byte]string{}
	r := buffer.NewMessageParser(payload)

	for {
		tag, err := r.ReadByte()
		if err != nil || tag == 0 {
			break
		}
		value, err := r.ReadCString()
		if err != nil {
			break
		}
		fields[tag] = string(value)
	}

	return fields
}
