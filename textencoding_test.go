package pgfe_test

import (
	"testing"

	"github.com/pgfe/pgfe"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestXTextEncodingRoundTrip(t *testing.T) {
	enc := pgfe.NewXTextEncoding(charmap.ISO8859_1)

	encoded, err := enc.Encode("café")
	require.NoError(t, err)
	require.NotEqual(t, []byte("café"), encoded, "ISO-8859-1 encodes é as a single non-UTF-8 byte")

	decoded, err := enc.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "café", decoded)
}

func TestXTextEncodingSatisfiesSettingsOption(t *testing.T) {
	settings := pgfe.NewSettings("tester", pgfe.WithTextEncoding(pgfe.NewXTextEncoding(charmap.ISO8859_1)))
	require.NotNil(t, settings.TextEncoding)

	encoded, err := settings.TextEncoding.Encode("plain")
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), encoded)
}
