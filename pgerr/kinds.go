package pgerr

import "fmt"

// ProtocolError indicates the byte stream did not match the expected
// message layout for the current state: a short read, an unexpected
// message type, a mismatched column count. The connection is fatally
// failed once this surfaces.
type ProtocolError struct {
	msg string
	err error
}

func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{msg: fmt.Sprintf(format, args...)}
}

func WrapProtocolError(err error) *ProtocolError {
	return &ProtocolError{msg: err.Error(), err: err}
}

// NewErrCopyNotImplemented is called whenever the backend starts a COPY
// subprotocol (CopyInResponse/CopyOutResponse/CopyBothResponse), which this
// module does not speak. The caller cannot be made to wait for a COPY
// exchange that will never complete, so the connection is failed.
func NewErrCopyNotImplemented(tag fmt.Stringer) *ProtocolError {
	return NewProtocolError("COPY subprotocol is not implemented (%s received)", tag)
}

func (e *ProtocolError) Error() string { return "pgfe: protocol error: " + e.msg }
func (e *ProtocolError) Unwrap() error { return e.err }

// ServerError wraps an ErrorResponse from the backend. The connection
// survives: it returns to idle once the following ReadyForQuery arrives.
type ServerError struct {
	Field *Error
}

func NewServerError(e *Error) *ServerError {
	return &ServerError{Field: e}
}

func (e *ServerError) Error() string {
	return "pgfe: server error: " + e.Field.Error()
}

func (e *ServerError) Unwrap() error { return e.Field }

// DataError is raised by an encoder rejecting a caller-supplied value:
// wrong type, overflow, a ragged array, a tuple-shape mismatch. Raised
// synchronously; no bytes are written to the transport and the connection
// stays healthy.
type DataError struct {
	OID int
	msg string
	err error
}

func NewDataError(oid int, format string, args ...any) *DataError {
	return &DataError{OID: oid, msg: fmt.Sprintf(format, args...)}
}

func WrapDataError(oid int, err error) *DataError {
	return &DataError{OID: oid, msg: err.Error(), err: err}
}

func (e *DataError) Error() string {
	return fmt.Sprintf("pgfe: data error (oid %d): %s", e.OID, e.msg)
}

func (e *DataError) Unwrap() error { return e.err }

// InterfaceError signals caller misuse: a second concurrent request on one
// connection, closing a prepared statement with live portals, operating on
// a closed connection. Always synchronous.
type InterfaceError struct {
	msg string
}

func NewInterfaceError(format string, args ...any) *InterfaceError {
	return &InterfaceError{msg: fmt.Sprintf(format, args...)}
}

func (e *InterfaceError) Error() string { return "pgfe: interface error: " + e.msg }

// ConnectionLostError indicates a transport EOF or write failure mid-
// request. Fatal: any pending caller completes with this error and the
// connection transitions to failed.
type ConnectionLostError struct {
	err error
}

func NewConnectionLostError(err error) *ConnectionLostError {
	return &ConnectionLostError{err: err}
}

func (e *ConnectionLostError) Error() string {
	if e.err == nil {
		return "pgfe: connection lost"
	}
	return "pgfe: connection lost: " + e.err.Error()
}

func (e *ConnectionLostError) Unwrap() error { return e.err }
