package pgerr_test

import (
	"testing"

	"github.com/pgfe/pgfe/pgerr"
	"github.com/stretchr/testify/require"
)

type fakeTag string

func (t fakeTag) String() string { return string(t) }

func TestNewErrCopyNotImplemented(t *testing.T) {
	err := pgerr.NewErrCopyNotImplemented(fakeTag("CopyInResponse"))

	var protoErr *pgerr.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Contains(t, err.Error(), "COPY subprotocol is not implemented")
	require.Contains(t, err.Error(), "CopyInResponse")
}

func TestNewInterfaceError(t *testing.T) {
	err := pgerr.NewInterfaceError("second request while %s pending", "Bind")
	require.Contains(t, err.Error(), "interface error")
	require.Contains(t, err.Error(), "second request while Bind pending")
}
