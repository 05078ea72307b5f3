package pgfe

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/wire"
)

// SendCancelRequest writes a CancelRequest packet (int32 length=16, int32
// magic=80877102, int32 pid, int32 secret) to a transport that the caller
// has already dialed as a *second*, throwaway connection to the same
// backend, then closes it. PostgreSQL defines no response to a
// CancelRequest, so the caller only needs to know the write succeeded.
func SendCancelRequest(conn Transport, pid, secret int32) error {
	w := buffer.NewWriter(nil)
	w.Untyped()
	w.WriteUint32(uint32(wire.VersionCancel))
	w.WriteInt32(pid)
	w.WriteInt32(secret)

	if err := w.EndUntyped(); err != nil {
		return err
	}

	if err := w.Error(); err != nil {
		return err
	}

	if _, err := conn.Write(w.View()); err != nil {
		w.ReleaseView()
		return err
	}
	w.ReleaseView()

	return conn.Close()
}
