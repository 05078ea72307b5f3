package pgfe

import (
	"log/slog"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/pgerr"
)

// NoticeHandler is invoked for every NoticeResponse the backend sends
// outside of an error path (e.g. a NOTICE raised by a PL/pgSQL function).
type NoticeHandler func(*pgerr.Error)

// NotificationHandler is invoked for every NotificationResponse delivered
// by LISTEN/NOTIFY.
type NotificationHandler func(pid int32, channel, payload string)

// Settings holds everything about a Frontend that is fixed for the
// lifetime of a connection: how it logs, how large a message it will
// accept, what it sends in the startup packet, and the callbacks it uses
// to surface out-of-band server messages.
type Settings struct {
	Logger *slog.Logger

	// MaxMessageSize bounds the payload size of any single backend
	// message. Zero selects buffer.DefaultMaxMessageSize.
	MaxMessageSize int

	// User and Database are sent as startup parameters; User is
	// mandatory, Database defaults to User when empty.
	User     string
	Database string

	// Password authenticates the connection when the backend requests
	// cleartext or MD5 password authentication.
	Password string

	// Params carries additional startup parameters such as
	// application_name, client_encoding, or search_path.
	Params map[string]string

	// TextEncoding, when non-nil, encodes/decodes text-format values for
	// a client_encoding other than UTF-8.
	TextEncoding buffer.TextEncoder

	OnNotice       NoticeHandler
	OnNotification NotificationHandler
}

func defaultSettings() *Settings {
	return &Settings{
		Logger: slog.Default(),
		Params: map[string]string{},
	}
}

// NewSettings builds a Settings value from the given user, applying any
// number of OptionFn on top of the defaults.
func NewSettings(user string, opts ...OptionFn) *Settings {
	s := defaultSettings()
	s.User = user

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// OptionFn configures a Settings value. See WithLogger, WithDatabase, and
// friends.
type OptionFn func(*Settings)

// WithLogger overrides the structured logger used for protocol tracing.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithMaxMessageSize overrides the maximum accepted backend message size.
func WithMaxMessageSize(size int) OptionFn {
	return func(s *Settings) {
		s.MaxMessageSize = size
	}
}

// WithDatabase sets the database startup parameter. Without it, Start
// sends the connecting user's name as the database.
func WithDatabase(database string) OptionFn {
	return func(s *Settings) {
		s.Database = database
	}
}

// WithPassword sets the password sent in response to a cleartext or MD5
// AuthenticationRequest.
func WithPassword(password string) OptionFn {
	return func(s *Settings) {
		s.Password = password
	}
}

// WithStartupParameter adds a run-time parameter to the startup packet,
// e.g. WithStartupParameter("application_name", "pgfe").
func WithStartupParameter(key, value string) OptionFn {
	return func(s *Settings) {
		if s.Params == nil {
			s.Params = map[string]string{}
		}
		s.Params[key] = value
	}
}

// WithTextEncoding installs a non-UTF-8 text codec, matching whatever
// client_encoding is requested via WithStartupParameter.
func WithTextEncoding(enc buffer.TextEncoder) OptionFn {
	return func(s *Settings) {
		s.TextEncoding = enc
	}
}

// WithNoticeHandler installs a callback invoked for unsolicited
// NoticeResponse messages.
func WithNoticeHandler(fn NoticeHandler) OptionFn {
	return func(s *Settings) {
		s.OnNotice = fn
	}
}

// WithNotificationHandler installs a callback invoked for
// NotificationResponse messages delivered by LISTEN/NOTIFY.
func WithNotificationHandler(fn NotificationHandler) OptionFn {
	return func(s *Settings) {
		s.OnNotification = fn
	}
}
