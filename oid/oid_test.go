package oid_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgfe/pgfe/oid"
	"github.com/stretchr/testify/require"
)

func TestElementStaticTable(t *testing.T) {
	elem, ok := oid.Element(oid.Int4Array)
	require.True(t, ok)
	require.Equal(t, oid.Int4, elem)
}

// TestElementFallsBackToPgxTypeMap exercises the pgx/v5/pgtype.Map fallback
// for an array OID this package's hand-written table doesn't carry.
func TestElementFallsBackToPgxTypeMap(t *testing.T) {
	elem, ok := oid.Element(oid.OID(pgtype.MoneyArrayOID))
	require.True(t, ok)
	require.Equal(t, oid.OID(pgtype.MoneyOID), elem)

	require.True(t, oid.IsArray(oid.OID(pgtype.MoneyArrayOID)))
}

func TestIsArrayFalseForScalar(t *testing.T) {
	require.False(t, oid.IsArray(oid.Int4))
}

func TestIsArrayFalseForUnknownOID(t *testing.T) {
	require.False(t, oid.IsArray(oid.OID(999999999)))
}
