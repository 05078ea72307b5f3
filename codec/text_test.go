package codec

import (
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func TestTextFamilyRoundTripsUTF8(t *testing.T) {
	c := textFamilyCodec(oid.Text, "text")

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, "héllo, 世界"))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, "héllo, 世界", got)
}

func TestTextFamilyAcceptsByteSliceAndStringer(t *testing.T) {
	c := textFamilyCodec(oid.Varchar, "varchar")

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []byte("raw bytes")))
	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, "raw bytes", got)

	w = buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, oid.Int4))
	got, err = c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, got)
}

func TestTextFamilyRejectsUnsupportedType(t *testing.T) {
	c := textFamilyCodec(oid.Text, "text")

	w := buffer.NewWriter(nil)
	err := c.EncodeValue(w, nil, struct{}{})
	require.Error(t, err)
}
