package pgfe

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// Prepare sends Parse(name, query) + Describe(Statement, name) + Sync as a
// single transport write. The returned Future's Result carries ParamOIDs
// and Columns once the backend responds; the caller (the connection
// layer external to this core) is responsible for resolving any OID
// Statement.InitTypes reports missing before binding arguments.
//
// paramOIDs may be empty to let the backend infer parameter types from the
// query text; when non-empty it must list exactly one OID per "$n"
// placeholder.
func (f *Frontend) Prepare(stmt *Statement, paramOIDs ...oid.OID) (*Future, error) {
	op := &pendingOp{future: newFuture(), result: &Result{}, stmt: stmt}
	if err := f.submit(statePrepare, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)

	w.Start(wire.FrontendParse)
	w.WriteCString([]byte(stmt.Name))
	w.WriteString(stmt.Query, f.settings.TextEncoding)
	w.WriteInt16(int16(len(paramOIDs)))
	for _, o := range paramOIDs {
		w.WriteUint32(uint32(o))
	}
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendDescribe)
	w.WriteByte(byte(wire.DescribeStatement))
	w.WriteCString([]byte(stmt.Name))
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendSync)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	return op.future, nil
}

// Bind sends Bind(portal, stmt, args) + Sync, opening a portal over an
// already-prepared, already-codec-bound Statement without executing it.
func (f *Frontend) Bind(stmt *Statement, args []any, portal string) (*Future, error) {
	if stmt.Closed() {
		return nil, pgerr.NewInterfaceError("statement %q is closed", stmt.Name)
	}

	op := &pendingOp{future: newFuture(), result: &Result{}, stmt: stmt, portal: portal}
	if err := f.submit(stateBind, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)

	w.Start(wire.FrontendBind)
	if err := stmt.EncodeBind(w, portal, args, f.settings.TextEncoding); err != nil {
		f.abortCurrent()
		return nil, err
	}
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendSync)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	stmt.Attach()
	return op.future, nil
}

// BindExecute sends Bind(portal, stmt, args) + Execute(portal, limit) +
// Sync, the common single-round-trip path for a statement expected to run
// to completion (or suspend, if limit > 0 and more rows remain).
func (f *Frontend) BindExecute(stmt *Statement, args []any, portal string, limit int32) (*Future, error) {
	if stmt.Closed() {
		return nil, pgerr.NewInterfaceError("statement %q is closed", stmt.Name)
	}

	op := &pendingOp{future: newFuture(), result: &Result{}, stmt: stmt, portal: portal, autoDetachOnComplete: true}
	if err := f.submit(stateBindExecute, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)

	w.Start(wire.FrontendBind)
	if err := stmt.EncodeBind(w, portal, args, f.settings.TextEncoding); err != nil {
		f.abortCurrent()
		return nil, err
	}
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := writeExecute(w, portal, limit); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendSync)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	stmt.Attach()
	return op.future, nil
}

// Execute sends Execute(portal, limit) + Sync against a portal opened by an
// earlier Bind call. stmt must be the same Statement the portal was bound
// against, since Execute carries no codec information of its own.
func (f *Frontend) Execute(stmt *Statement, portal string, limit int32) (*Future, error) {
	op := &pendingOp{future: newFuture(), result: &Result{}, stmt: stmt, portal: portal, autoDetachOnComplete: true}
	if err := f.submit(stateExecute, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)

	if err := writeExecute(w, portal, limit); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendSync)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	return op.future, nil
}

func writeExecute(w *buffer.Writer, portal string, limit int32) error {
	w.Start(wire.FrontendExecute)
	w.WriteCString([]byte(portal))
	w.WriteInt32(limit)
	return w.End()
}

// CloseStatement sends Close(Statement, name) + Sync. stmt must have no
// portal currently attached (refs == 0); Statement.Close enforces this
// once the Future completes.
func (f *Frontend) CloseStatement(stmt *Statement) (*Future, error) {
	return f.close(wire.DescribeStatement, stmt.Name, stmt, "", false)
}

// ClosePortal sends Close(Portal, name) + Sync and, on success, detaches
// the owning statement's reference count.
func (f *Frontend) ClosePortal(stmt *Statement, portal string) (*Future, error) {
	return f.close(wire.DescribePortal, portal, stmt, portal, true)
}

func (f *Frontend) close(target wire.DescribeTarget, name string, stmt *Statement, portal string, closingPortal bool) (*Future, error) {
	op := &pendingOp{future: newFuture(), result: &Result{}, stmt: stmt, portal: portal, closingPortal: closingPortal}
	if err := f.submit(stateCloseStmtPortal, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)

	w.Start(wire.FrontendClose)
	w.WriteByte(byte(target))
	w.WriteCString([]byte(name))
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	w.Start(wire.FrontendSync)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	return op.future, nil
}

// Query runs sql through the simple query protocol: one Query message,
// awaiting any number of RowDescription/DataRow/CommandComplete groups
// (one per statement in sql) followed by ReadyForQuery. Columns are
// resolved against the Registry at decode time since no Describe round
// trip precedes a simple query.
func (f *Frontend) Query(sql string) (*Future, error) {
	op := &pendingOp{future: newFuture(), result: &Result{}}
	if err := f.submit(stateSimpleQuery, op); err != nil {
		return nil, err
	}

	w := buffer.NewWriter(f.settings.Logger)
	w.Start(wire.FrontendSimpleQuery)
	w.WriteString(sql, f.settings.TextEncoding)
	if err := w.End(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	return op.future, nil
}
