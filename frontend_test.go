package pgfe_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/pgfe/pgfe"
	"github.com/pgfe/pgfe/codec"
	"github.com/pgfe/pgfe/mock"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/stretchr/testify/require"
)

// testConn bundles a Frontend with the registry it was built on (so tests
// can call Statement.InitTypes/InitCodecs against the same resolution
// chain) and the server half of the net.Pipe driving it. A background
// goroutine continuously drains whatever the Frontend writes to the pipe
// (net.Pipe's Write blocks until matched by a Read on the other end), and
// optionally captures it for inspection.
type testConn struct {
	f        *pgfe.Frontend
	server   net.Conn
	registry *codec.Registry

	mu      sync.Mutex
	written [][]byte
}

func (tc *testConn) captured() []byte {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	var buf bytes.Buffer
	for _, chunk := range tc.written {
		buf.Write(chunk)
	}
	return buf.Bytes()
}

func (tc *testConn) resetCaptured() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.written = nil
}

// newTestFrontend wires a Frontend to one half of a net.Pipe, with the
// other half driven by the caller via tc.server. Run is started in its
// own goroutine: one task owns reading from the transport.
func newTestFrontend(t *testing.T) *testConn {
	t.Helper()
	return newTestFrontendWithSettings(t, pgfe.WithDatabase("testdb"))
}

// feed writes a scripted transcript to the server half of the pipe in its
// own goroutine, since net.Pipe is synchronous and would otherwise
// deadlock against Frontend.Run's blocking Read.
func feed(t *testing.T, server net.Conn, data []byte) {
	t.Helper()
	go func() {
		server.Write(data)
	}()
}

func mustStart(t *testing.T, tc *testConn) {
	t.Helper()

	fut, err := tc.f.Start()
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		AuthenticationOK().
		BackendKeyData(4242, 9999).
		ParameterStatus("server_version", "16.0").
		ReadyForQuery('I').
		Bytes())

	res, err := fut.Wait()
	require.NoError(t, err)
	require.Nil(t, res.Err)

	// Drop the untyped startup packet from the capture buffer so later
	// frame decoding only sees typed extended-query messages.
	tc.resetCaptured()
}

// TestSimpleIntRoundTrip runs SELECT 1::int4 over the simple query
// protocol.
func TestSimpleIntRoundTrip(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	fut, err := tc.f.Query("SELECT 1::int4")
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		RowDescription(mock.Field{Name: "int4", TypeOID: int32(oid.Int4), TypeSize: 4, Format: 1}).
		DataRow([]byte{0x00, 0x00, 0x00, 0x01}).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	res, err := fut.Wait()
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Equal(t, "SELECT 1", res.Results[0].CommandTag)
	require.Equal(t, [][]any{{int32(1)}}, res.Results[0].Rows)
}

// TestPreparedAddRoundTrip runs Parse/Describe/Sync then Bind/Execute/Sync
// for SELECT $1::int4 + $2::int4.
func TestPreparedAddRoundTrip(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	stmt := pgfe.NewStatement("", "SELECT $1::int4 + $2::int4")
	pfut, err := tc.f.Prepare(stmt)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		ParseComplete().
		ParameterStatus("dummy", "noop"). // exercise "allowed in any non-failed state"
		ParameterDescription(int32(oid.Int4), int32(oid.Int4)).
		RowDescription(mock.Field{Name: "?column?", TypeOID: int32(oid.Int4), TypeSize: 4, Format: 1}).
		ReadyForQuery('I').
		Bytes())

	pres, err := pfut.Wait()
	require.NoError(t, err)
	require.Equal(t, []oid.OID{oid.Int4, oid.Int4}, pres.ParamOIDs)
	require.Len(t, pres.Columns, 1)

	require.Empty(t, stmt.InitTypes(tc.registry))
	require.NoError(t, stmt.InitCodecs(tc.registry))
	require.False(t, stmt.HaveTextArgs)
	require.False(t, stmt.HaveTextColumns)

	bfut, err := tc.f.BindExecute(stmt, []any{int32(2), int32(3)}, "", 0)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		BindComplete().
		DataRow([]byte{0x00, 0x00, 0x00, 0x05}).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	bres, err := bfut.Wait()
	require.NoError(t, err)
	require.Equal(t, [][]any{{int32(5)}}, bres.Rows)
	require.False(t, bres.PortalSuspended)
}

// TestBindNullArgument checks that binding a NULL argument to
// SELECT $1::text produces a Bind parameter frame with int32 -1, and
// the resulting row decodes to a nil value.
func TestBindNullArgument(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	stmt := pgfe.NewStatement("", "SELECT $1::text")
	pfut, err := tc.f.Prepare(stmt)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		ParseComplete().
		ParameterDescription(int32(oid.Text)).
		RowDescription(mock.Field{Name: "text", TypeOID: int32(oid.Text), TypeSize: -1}).
		ReadyForQuery('I').
		Bytes())

	_, err = pfut.Wait()
	require.NoError(t, err)

	require.Empty(t, stmt.InitTypes(tc.registry))
	require.NoError(t, stmt.InitCodecs(tc.registry))

	tc.resetCaptured()

	bfut, err := tc.f.BindExecute(stmt, []any{nil}, "", 0)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		BindComplete().
		DataRow(nil).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	bres, err := bfut.Wait()
	require.NoError(t, err)
	require.Equal(t, [][]any{{nil}}, bres.Rows)

	frames := mock.DecodeFrontend(t, tc.captured())
	bindFrame := findFrame(t, frames, "Bind")
	require.NotNil(t, bindFrame)
	requireNullArgBeforeResultFormats(t, bindFrame.Payload)
}

// TestArrayBindRoundTrip checks that binding and decoding a
// two-dimensional int4[] value preserves shape and element order.
func TestArrayBindRoundTrip(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	stmt := pgfe.NewStatement("", "SELECT $1::int4[]")
	pfut, err := tc.f.Prepare(stmt)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		ParseComplete().
		ParameterDescription(int32(oid.Int4Array)).
		RowDescription(mock.Field{Name: "int4", TypeOID: int32(oid.Int4Array), TypeSize: -1, Format: 1}).
		ReadyForQuery('I').
		Bytes())

	_, err = pfut.Wait()
	require.NoError(t, err)

	require.Empty(t, stmt.InitTypes(tc.registry))
	require.NoError(t, stmt.InitCodecs(tc.registry))

	arg := [][]int32{{1, 2, 3}, {4, 5, 6}}
	bfut, err := tc.f.BindExecute(stmt, []any{arg}, "", 0)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		BindComplete().
		DataRow(int4ArrayPayload(2, 3, []int32{1, 2, 3, 4, 5, 6})).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	bres, err := bfut.Wait()
	require.NoError(t, err)
	require.Equal(t, [][]any{{
		[]any{
			[]any{int32(1), int32(2), int32(3)},
			[]any{int32(4), int32(5), int32(6)},
		},
	}}, bres.Rows)
}

// int4ArrayPayload builds the wire body of a two-dimensional int4 array:
// int32 ndims, int32 flags, uint32 element_oid, then
// per-dimension {length, lower_bound=1}, then each element as
// {int32 length, 4-byte payload}.
func int4ArrayPayload(dim0, dim1 int32, elems []int32) []byte {
	var buf bytes.Buffer
	write := func(v int32) { _ = binary.Write(&buf, binary.BigEndian, v) }

	write(2)                // ndims
	write(0)                // flags
	write(int32(oid.Int4))  // element_oid
	write(dim0)             // dim 0 length
	write(1)                // dim 0 lower bound
	write(dim1)             // dim 1 length
	write(1)                // dim 1 lower bound
	for _, v := range elems {
		write(4) // element length
		write(v)
	}
	return buf.Bytes()
}

// TestErrorMidQueryRecovers checks that an ErrorResponse mid-command
// completes the caller with a *pgerr.ServerError carrying the SQLSTATE
// code, and the connection returns to idle for the next request.
func TestErrorMidQueryRecovers(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	fut, err := tc.f.Query(`SELECT * FROM "x"`)
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		ErrorResponse(map[byte]string{'S': "ERROR", 'C': "42P01", 'M': `relation "x" does not exist`}).
		ReadyForQuery('I').
		Bytes())

	res, err := fut.Wait()
	require.Error(t, err)

	var serverErr *pgerr.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, "42P01", string(serverErr.Field.Code))
	require.Nil(t, res.Results)

	// the connection must be usable again for the next request.
	fut2, err := tc.f.Query("SELECT 1::int4")
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		RowDescription(mock.Field{Name: "int4", TypeOID: int32(oid.Int4), TypeSize: 4, Format: 1}).
		DataRow([]byte{0x00, 0x00, 0x00, 0x01}).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	res2, err := fut2.Wait()
	require.NoError(t, err)
	require.Equal(t, [][]any{{int32(1)}}, res2.Results[0].Rows)
}

// TestConcurrentRequestRejected checks that at most one outstanding
// request is allowed per connection: a second request before the first
// completes is rejected synchronously with an InterfaceError.
func TestConcurrentRequestRejected(t *testing.T) {
	tc := newTestFrontend(t)
	mustStart(t, tc)

	_, err := tc.f.Query("SELECT 1")
	require.NoError(t, err)

	_, err = tc.f.Query("SELECT 2")
	require.Error(t, err)

	var ifaceErr *pgerr.InterfaceError
	require.ErrorAs(t, err, &ifaceErr)

	feed(t, tc.server, mock.NewServer(t).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())
}

// TestNoticeHandlerInvokedOutOfBand checks that a NoticeResponse never
// changes connection state and is delivered to the registered handler.
func TestNoticeHandlerInvokedOutOfBand(t *testing.T) {
	var notices []string

	tc := newTestFrontendWithSettings(t, pgfe.WithNoticeHandler(func(e *pgerr.Error) {
		notices = append(notices, e.Message)
	}))
	mustStart(t, tc)

	fut, err := tc.f.Query("SELECT 1::int4")
	require.NoError(t, err)

	feed(t, tc.server, mock.NewServer(t).
		NoticeResponse(map[byte]string{'S': "NOTICE", 'M': "just so you know"}).
		RowDescription(mock.Field{Name: "int4", TypeOID: int32(oid.Int4), TypeSize: 4, Format: 1}).
		DataRow([]byte{0x00, 0x00, 0x00, 0x01}).
		CommandComplete("SELECT 1").
		ReadyForQuery('I').
		Bytes())

	_, err = fut.Wait()
	require.NoError(t, err)
	require.Equal(t, []string{"just so you know"}, notices)
}

// --- helpers ---

func newTestFrontendWithSettings(t *testing.T, opts ...pgfe.OptionFn) *testConn {
	t.Helper()

	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	allOpts := append([]pgfe.OptionFn{pgfe.WithLogger(slogt.New(t))}, opts...)
	settings := pgfe.NewSettings("alice", allOpts...)
	registry := codec.NewRegistry(codec.SessionKey{Address: "test", Database: "testdb"}, nil)

	f := pgfe.NewFrontend(client, settings, registry)
	tc := &testConn{f: f, server: server, registry: registry}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.Run(ctx)

	go func() {
		buf := make([]byte, 32*1024)
		for {
			n, err := server.Read(buf)
			if n > 0 {
				tc.mu.Lock()
				tc.written = append(tc.written, append([]byte{}, buf[:n]...))
				tc.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	return tc
}

func findFrame(t *testing.T, frames []mock.FrontendFrame, typeName string) *mock.FrontendFrame {
	t.Helper()
	for i := range frames {
		if frames[i].Type.String() == typeName {
			return &frames[i]
		}
	}
	return nil
}

// requireNullArgBeforeResultFormats checks the Bind payload's single
// argument value is NULL (int32 -1) by reading the four bytes just before
// the last four, which hold the uniform one-entry result-format array
// (int16 1 + int16 format) this statement's single-column result codec
// always produces; the result-format bytes themselves are not checked.
func requireNullArgBeforeResultFormats(t *testing.T, payload []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(payload), 8)
	argLength := payload[len(payload)-8 : len(payload)-4]
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, argLength)
}
