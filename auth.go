package pgfe

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// Authentication sub-kinds carried in the int32 that follows an
// AuthenticationRequest's tag and length, per
// https://www.postgresql.org/docs/current/protocol-message-formats.html.
const (
	authOK                authKind = 0
	authKindClearText     authKind = 3
	authKindMD5           authKind = 5
	authKindSASL          authKind = 10
	authKindSASLContinue  authKind = 11
	authKindSASLFinal     authKind = 12
)

type authKind int32

// ErrAuthMethodNotImplemented is returned for authentication sub-kinds this
// module does not speak. Cleartext and MD5 passwords are handled;
// SCRAM-SHA-256 is a named, explicit failure rather than a silent one, so a
// caller hitting it knows exactly what is missing.
var ErrAuthMethodNotImplemented = pgerr.NewInterfaceError("authentication method not implemented")

// handleAuthRequest parses the body of an AuthenticationRequest (tag 'R')
// and reacts to whichever sub-kind the backend announced.
func (f *Frontend) handleAuthRequest(payload []byte) error {
	r := buffer.NewMessageParser(payload)

	kind, err := r.ReadInt32()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}

	switch authKind(kind) {
	case authOK:
		return nil
	case authKindClearText:
		return f.sendCleartextPassword()
	case authKindMD5:
		salt, err := r.ReadBytes(4)
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}
		return f.sendMD5Password(salt)
	case authKindSASL, authKindSASLContinue, authKindSASLFinal:
		return pgerr.WrapProtocolError(ErrAuthMethodNotImplemented)
	default:
		return pgerr.NewProtocolError("unsupported authentication method %d", kind)
	}
}

// sendCleartextPassword replies to an AuthenticationCleartextPassword
// request with a PasswordMessage carrying Settings.Password verbatim.
func (f *Frontend) sendCleartextPassword() error {
	w := buffer.NewWriter(f.settings.Logger)
	w.Start(wire.FrontendPassword)
	w.WriteCString([]byte(f.settings.Password))
	if err := w.End(); err != nil {
		return err
	}

	return f.send(w)
}

// sendMD5Password replies to an AuthenticationMD5Password request. The
// hash is "md5" + hex(md5(hex(md5(password+user)) + salt)), PostgreSQL's
// documented double round.
func (f *Frontend) sendMD5Password(salt []byte) error {
	inner := md5.Sum([]byte(f.settings.Password + f.settings.User))
	outer := md5.Sum(append([]byte(hex.EncodeToString(inner[:])), salt...))
	hashed := "md5" + hex.EncodeToString(outer[:])

	w := buffer.NewWriter(f.settings.Logger)
	w.Start(wire.FrontendPassword)
	w.WriteCString([]byte(hashed))
	if err := w.End(); err != nil {
		return err
	}

	return f.send(w)
}
