package codec

import (
	"testing"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func TestCompositeRoundTripsNamedFields(t *testing.T) {
	const rowOID oid.OID = 99999

	fields := []CompositeField{{Name: "id", OID: oid.Int4}, {Name: "label", OID: oid.Text}}
	elements := []*Codec{intCodec(oid.Int4, "int4", 4), textFamilyCodec(oid.Text, "text")}

	c := NewCompositeCodec(rowOID, "row_type", fields, elements)

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []any{int32(7), "hello"}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(7), "hello"}, got)
}

func TestCompositeRoundTripsNullField(t *testing.T) {
	const rowOID oid.OID = 99999

	fields := []CompositeField{{Name: "id", OID: oid.Int4}, {Name: "label", OID: oid.Text}}
	elements := []*Codec{intCodec(oid.Int4, "int4", 4), textFamilyCodec(oid.Text, "text")}

	c := NewCompositeCodec(rowOID, "row_type", fields, elements)

	w := buffer.NewWriter(nil)
	require.NoError(t, c.EncodeValue(w, nil, []any{int32(7), nil}))

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(7), nil}, got)
}

func TestCompositeRejectsWrongFieldCount(t *testing.T) {
	fields := []CompositeField{{Name: "id", OID: oid.Int4}}
	elements := []*Codec{intCodec(oid.Int4, "int4", 4)}

	c := NewCompositeCodec(99998, "row_type", fields, elements)

	w := buffer.NewWriter(nil)
	err := c.EncodeValue(w, nil, []any{int32(1), int32(2)})
	require.Error(t, err)
}

func TestAnonymousRecordHasNoEncoder(t *testing.T) {
	c, ok := Builtin(oid.Record)
	require.True(t, ok)
	require.Nil(t, c.Encode)
}

func TestAnonymousRecordDecodeFallsBackToBuiltinByOID(t *testing.T) {
	c, ok := Builtin(oid.Record)
	require.True(t, ok)

	int4, ok := Builtin(oid.Int4)
	require.True(t, ok)

	scratch := buffer.NewWriter(nil)
	require.NoError(t, int4.EncodeValue(scratch, nil, int32(42)))
	fieldPayload := scratch.View()

	w := buffer.NewWriter(nil)
	w.WriteInt32(1)
	w.WriteUint32(uint32(oid.Int4))
	w.WriteInt32(int32(len(fieldPayload)))
	w.WriteBytes(fieldPayload)

	got, err := c.DecodeValue(w.View(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(42)}, got)
}
