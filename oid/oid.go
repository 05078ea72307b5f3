// Package oid names the built-in PostgreSQL type OIDs the codec package
// resolves against. It is a thin, domain-specific facade over
// github.com/lib/pq/oid, which already carries the full pg_type catalog;
// this package just groups the subset the codec table cares about under
// names that read naturally at call sites (oid.Int4 rather than oid.T_int4).
package oid

import (
	"github.com/jackc/pgx/v5/pgtype"
	pqoid "github.com/lib/pq/oid"
)

// OID is the wire representation of a PostgreSQL type identifier.
type OID = pqoid.Oid

// Scalar types.
const (
	Bool        OID = pqoid.T_bool
	Bytea       OID = pqoid.T_bytea
	Char        OID = pqoid.T_char
	Name        OID = pqoid.T_name
	Int8        OID = pqoid.T_int8
	Int2        OID = pqoid.T_int2
	Int4        OID = pqoid.T_int4
	Text        OID = pqoid.T_text
	OIDType     OID = pqoid.T_oid
	TID         OID = pqoid.T_tid
	XID         OID = pqoid.T_xid
	JSON        OID = pqoid.T_json
	JSONB       OID = pqoid.T_jsonb
	Point       OID = pqoid.T_point
	LSeg        OID = pqoid.T_lseg
	Path        OID = pqoid.T_path
	Box         OID = pqoid.T_box
	Polygon     OID = pqoid.T_polygon
	Line        OID = pqoid.T_line
	CIDR        OID = pqoid.T_cidr
	Float4      OID = pqoid.T_float4
	Float8      OID = pqoid.T_float8
	Circle      OID = pqoid.T_circle
	Money       OID = pqoid.T_money
	MacAddr     OID = pqoid.T_macaddr
	Inet        OID = pqoid.T_inet
	BPChar      OID = pqoid.T_bpchar
	Varchar     OID = pqoid.T_varchar
	Date        OID = pqoid.T_date
	Time        OID = pqoid.T_time
	Timestamp   OID = pqoid.T_timestamp
	TimestampTZ OID = pqoid.T_timestamptz
	Interval    OID = pqoid.T_interval
	TimeTZ      OID = pqoid.T_timetz
	Bit         OID = pqoid.T_bit
	VarBit      OID = pqoid.T_varbit
	Numeric     OID = pqoid.T_numeric
	Record      OID = pqoid.T_record
	Void        OID = pqoid.T_void
	UUID        OID = pqoid.T_uuid
	TSVector    OID = pqoid.T_tsvector
	TSQuery     OID = pqoid.T_tsquery
	Int4Range   OID = pqoid.T_int4range
	NumRange    OID = pqoid.T_numrange
	TSRange     OID = pqoid.T_tsrange
	TSTZRange   OID = pqoid.T_tstzrange
	DateRange   OID = pqoid.T_daterange
	Int8Range   OID = pqoid.T_int8range
	TxidSnapshot OID = pqoid.T_txid_snapshot
)

// Array types, one per scalar above that has a standard array counterpart.
const (
	BoolArray        OID = pqoid.T__bool
	ByteaArray       OID = pqoid.T__bytea
	CharArray        OID = pqoid.T__char
	NameArray        OID = pqoid.T__name
	Int8Array        OID = pqoid.T__int8
	Int2Array        OID = pqoid.T__int2
	Int4Array        OID = pqoid.T__int4
	TextArray        OID = pqoid.T__text
	OIDArray         OID = pqoid.T__oid
	TIDArray         OID = pqoid.T__tid
	JSONArray        OID = pqoid.T__json
	JSONBArray       OID = pqoid.T__jsonb
	PointArray       OID = pqoid.T__point
	Float4Array      OID = pqoid.T__float4
	Float8Array      OID = pqoid.T__float8
	MacAddrArray     OID = pqoid.T__macaddr
	InetArray        OID = pqoid.T__inet
	CIDRArray        OID = pqoid.T__cidr
	BPCharArray      OID = pqoid.T__bpchar
	VarcharArray     OID = pqoid.T__varchar
	DateArray        OID = pqoid.T__date
	TimeArray        OID = pqoid.T__time
	TimestampArray   OID = pqoid.T__timestamp
	TimestampTZArray OID = pqoid.T__timestamptz
	IntervalArray    OID = pqoid.T__interval
	NumericArray     OID = pqoid.T__numeric
	UUIDArray        OID = pqoid.T__uuid
	TSVectorArray    OID = pqoid.T__tsvector
	TSQueryArray     OID = pqoid.T__tsquery
	RecordArray      OID = pqoid.T__record
)

// arrayElement maps each array OID above back to the OID of its element
// type, so the codec package can resolve an array's member codec without a
// hand-maintained parallel table at the call site.
var arrayElement = map[OID]OID{
	BoolArray:        Bool,
	ByteaArray:       Bytea,
	CharArray:        Char,
	NameArray:        Name,
	Int8Array:        Int8,
	Int2Array:        Int2,
	Int4Array:        Int4,
	TextArray:        Text,
	OIDArray:         OIDType,
	TIDArray:         TID,
	JSONArray:        JSON,
	JSONBArray:       JSONB,
	PointArray:       Point,
	Float4Array:      Float4,
	Float8Array:      Float8,
	MacAddrArray:     MacAddr,
	InetArray:        Inet,
	CIDRArray:        CIDR,
	BPCharArray:      BPChar,
	VarcharArray:     Varchar,
	DateArray:        Date,
	TimeArray:        Time,
	TimestampArray:   Timestamp,
	TimestampTZArray: TimestampTZ,
	IntervalArray:    Interval,
	NumericArray:     Numeric,
	UUIDArray:        UUID,
	TSVectorArray:    TSVector,
	TSQueryArray:     TSQuery,
	RecordArray:      Record,
}

// fallback is consulted whenever a caller asks about an OID this package
// doesn't enumerate by hand (system-catalog ranges, multiranges, and
// extension array types lib/pq/oid never carried). pgx/v5/pgtype.Map
// builds its array-to-element relationship from the same pg_type catalog
// structure PostgreSQL itself uses, so it stands in for a hand-maintained
// table we would otherwise have to keep growing ourselves.
var fallback = pgtype.NewMap()

// Element returns the element type of a known array OID. The static table
// above is tried first; an OID it doesn't carry falls through to
// pgx/v5/pgtype's registered type map, and resolves only if the map
// registers it with a *pgtype.ArrayCodec. Range and multirange OIDs
// themselves therefore report no element.
func Element(array OID) (OID, bool) {
	if elem, ok := arrayElement[array]; ok {
		return elem, true
	}

	t, ok := fallback.TypeForOID(uint32(array))
	if !ok {
		return 0, false
	}

	ac, ok := t.Codec.(*pgtype.ArrayCodec)
	if !ok || ac.ElementType == nil {
		return 0, false
	}

	return OID(ac.ElementType.OID), true
}

// IsArray reports whether o is one of the standard array OIDs above, or is
// otherwise known to pgx/v5/pgtype's type map as an array.
func IsArray(o OID) bool {
	_, ok := Element(o)
	return ok
}
