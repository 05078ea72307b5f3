package pgfe

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/wire"
)

// Start assembles and sends the startup packet (int32 total length,
// int16 major=3, int16 minor=0, then NUL-terminated key/value pairs
// terminated by an empty key) and transitions the connection to
// stateAuth. The returned Future completes once the backend's
// post-authentication ReadyForQuery arrives; Run must already be pumping
// (or start pumping immediately after) for it to ever complete.
func (f *Frontend) Start() (*Future, error) {
	op := &pendingOp{future: newFuture(), result: &Result{}}
	if err := f.submit(stateAuth, op); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.connState = connStarted
	f.mu.Unlock()

	w := buffer.NewWriter(f.settings.Logger)
	w.Untyped()
	w.WriteUint32(uint32(wire.Version30))

	encoding := "UTF8"
	if v, ok := f.settings.Params["client_encoding"]; ok {
		encoding = v
	}
	w.WriteCString([]byte("client_encoding"))
	w.WriteCString([]byte(encoding))

	if f.settings.User != "" {
		w.WriteCString([]byte("user"))
		w.WriteCString([]byte(f.settings.User))
	}

	database := f.settings.Database
	if database == "" {
		database = f.settings.User
	}
	if database != "" {
		w.WriteCString([]byte("database"))
		w.WriteCString([]byte(database))
	}

	for key, value := range f.settings.Params {
		if key == "client_encoding" {
			continue
		}
		w.WriteCString([]byte(key))
		w.WriteCString([]byte(value))
	}

	w.WriteByte(0)

	if err := w.EndUntyped(); err != nil {
		f.abortCurrent()
		return nil, err
	}

	if err := f.send(w); err != nil {
		f.abortCurrent()
		return nil, err
	}

	return op.future, nil
}
