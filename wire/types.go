// Package wire defines the byte-level vocabulary of the PostgreSQL v3
// frontend/backend protocol: message type tags, the startup/cancel version
// codes, and backend transaction-status bytes. It carries no behavior of
// its own; protocol and codec packages import it for their constants.
package wire

// FrontendMessage represents a message type tag sent by the frontend
// (client) to the backend.
type FrontendMessage byte

// BackendMessage represents a message type tag sent by the backend
// (server) to the frontend.
type BackendMessage byte

// DescribeTarget distinguishes a Describe message targeting a prepared
// statement from one targeting a portal.
type DescribeTarget byte

// http://www.postgresql.org/docs/current/static/protocol-message-formats.html
const (
	FrontendBind        FrontendMessage = 'B'
	FrontendClose       FrontendMessage = 'C'
	FrontendCopyData    FrontendMessage = 'd'
	FrontendCopyDone    FrontendMessage = 'c'
	FrontendCopyFail    FrontendMessage = 'f'
	FrontendDescribe    FrontendMessage = 'D'
	FrontendExecute     FrontendMessage = 'E'
	FrontendFlush       FrontendMessage = 'H'
	FrontendParse       FrontendMessage = 'P'
	FrontendPassword    FrontendMessage = 'p'
	FrontendSimpleQuery FrontendMessage = 'Q'
	FrontendSync        FrontendMessage = 'S'
	FrontendTerminate   FrontendMessage = 'X'

	BackendAuth                 BackendMessage = 'R'
	BackendKeyData              BackendMessage = 'K'
	BackendBindComplete         BackendMessage = '2'
	BackendCloseComplete        BackendMessage = '3'
	BackendCommandComplete      BackendMessage = 'C'
	BackendCopyInResponse       BackendMessage = 'G'
	BackendCopyOutResponse      BackendMessage = 'H'
	BackendCopyBothResponse     BackendMessage = 'W'
	BackendCopyData             BackendMessage = 'd'
	BackendCopyDone             BackendMessage = 'c'
	BackendDataRow              BackendMessage = 'D'
	BackendEmptyQueryResponse   BackendMessage = 'I'
	BackendErrorResponse        BackendMessage = 'E'
	BackendNoticeResponse       BackendMessage = 'N'
	BackendNotificationResponse BackendMessage = 'A'
	BackendNoData               BackendMessage = 'n'
	BackendParameterDescription BackendMessage = 't'
	BackendParameterStatus      BackendMessage = 'S'
	BackendParseComplete        BackendMessage = '1'
	BackendPortalSuspended      BackendMessage = 's'
	BackendReadyForQuery        BackendMessage = 'Z'
	BackendRowDescription       BackendMessage = 'T'

	DescribeStatement DescribeTarget = 'S'
	DescribePortal    DescribeTarget = 'P'
)

func (m FrontendMessage) String() string {
	switch m {
	case FrontendBind:
		return "Bind"
	case FrontendClose:
		return "Close"
	case FrontendCopyData:
		return "CopyData"
	case FrontendCopyDone:
		return "CopyDone"
	case FrontendCopyFail:
		return "CopyFail"
	case FrontendDescribe:
		return "Describe"
	case FrontendExecute:
		return "Execute"
	case FrontendFlush:
		return "Flush"
	case FrontendParse:
		return "Parse"
	case FrontendPassword:
		return "Password"
	case FrontendSimpleQuery:
		return "Query"
	case FrontendSync:
		return "Sync"
	case FrontendTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

func (m BackendMessage) String() string {
	switch m {
	case BackendAuth:
		return "Authentication"
	case BackendKeyData:
		return "BackendKeyData"
	case BackendBindComplete:
		return "BindComplete"
	case BackendCloseComplete:
		return "CloseComplete"
	case BackendCommandComplete:
		return "CommandComplete"
	case BackendCopyInResponse:
		return "CopyInResponse"
	case BackendCopyOutResponse:
		return "CopyOutResponse"
	case BackendCopyBothResponse:
		return "CopyBothResponse"
	case BackendCopyData:
		return "CopyData"
	case BackendCopyDone:
		return "CopyDone"
	case BackendDataRow:
		return "DataRow"
	case BackendEmptyQueryResponse:
		return "EmptyQueryResponse"
	case BackendErrorResponse:
		return "ErrorResponse"
	case BackendNoticeResponse:
		return "NoticeResponse"
	case BackendNotificationResponse:
		return "NotificationResponse"
	case BackendNoData:
		return "NoData"
	case BackendParameterDescription:
		return "ParameterDescription"
	case BackendParameterStatus:
		return "ParameterStatus"
	case BackendParseComplete:
		return "ParseComplete"
	case BackendPortalSuspended:
		return "PortalSuspended"
	case BackendReadyForQuery:
		return "ReadyForQuery"
	case BackendRowDescription:
		return "RowDescription"
	default:
		return "Unknown"
	}
}

func (m DescribeTarget) String() string {
	switch m {
	case DescribeStatement:
		return "Statement"
	case DescribePortal:
		return "Portal"
	default:
		return "Unknown"
	}
}

// TransactionStatus is the status byte reported on every ReadyForQuery
// message.
type TransactionStatus byte

const (
	TxIdle                TransactionStatus = 'I'
	TxInTransaction       TransactionStatus = 'T'
	TxInFailedTransaction TransactionStatus = 'E'
)

func (s TransactionStatus) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxInTransaction:
		return "in_transaction"
	case TxInFailedTransaction:
		return "in_failed_transaction"
	default:
		return "unknown"
	}
}
