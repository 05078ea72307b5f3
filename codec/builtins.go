package codec

import "github.com/pgfe/pgfe/oid"

// init populates the builtin table once, at process start, with every
// scalar, array, composite and range codec this package ships. Nothing
// outside this file ever calls registerBuiltin, matching the "immutable
// after init" contract registry.go documents.
func init() {
	scalars := []*Codec{
		boolCodec(),
		byteaCodec(),
		textFamilyCodec(oid.Char, "char"),
		textFamilyCodec(oid.Name, "name"),
		intCodec(oid.Int8, "int8", 8),
		intCodec(oid.Int2, "int2", 2),
		intCodec(oid.Int4, "int4", 4),
		textFamilyCodec(oid.Text, "text"),
		oidCodec(oid.OIDType, "oid"),
		tidCodec(),
		oidCodec(oid.XID, "xid"),
		jsonCodec(),
		jsonbCodec(),
		pointCodec(),
		lsegCodec(),
		pathCodec(),
		boxCodec(),
		polygonCodec(),
		lineCodec(),
		inetFamilyCodec(oid.CIDR, "cidr", true),
		float4Codec(),
		float8Codec(),
		circleCodec(),
		textFallbackCodec(oid.Money, "money"),
		macaddrCodec(),
		inetFamilyCodec(oid.Inet, "inet", false),
		textFamilyCodec(oid.BPChar, "bpchar"),
		textFamilyCodec(oid.Varchar, "varchar"),
		dateCodec(),
		timeCodec(),
		timestampCodec(oid.Timestamp, "timestamp", false),
		timestampCodec(oid.TimestampTZ, "timestamptz", true),
		intervalCodec(),
		timetzCodec(),
		bitFamilyCodec(oid.Bit, "bit"),
		bitFamilyCodec(oid.VarBit, "varbit"),
		numericCodec(),
		voidCodec(),
		uuidCodec(),
		textFallbackCodec(oid.TSVector, "tsvector"),
		textFallbackCodec(oid.TSQuery, "tsquery"),
		txidSnapshotCodec(),
	}

	for _, c := range scalars {
		registerBuiltin(c)
	}

	registerBuiltin(NewCompositeCodec(oid.Record, "record", nil, nil))

	for arrayOID, elemOID := range map[oid.OID]oid.OID{
		oid.BoolArray:        oid.Bool,
		oid.ByteaArray:       oid.Bytea,
		oid.CharArray:        oid.Char,
		oid.NameArray:        oid.Name,
		oid.Int8Array:        oid.Int8,
		oid.Int2Array:        oid.Int2,
		oid.Int4Array:        oid.Int4,
		oid.TextArray:        oid.Text,
		oid.OIDArray:         oid.OIDType,
		oid.TIDArray:         oid.TID,
		oid.JSONArray:        oid.JSON,
		oid.JSONBArray:       oid.JSONB,
		oid.PointArray:       oid.Point,
		oid.Float4Array:      oid.Float4,
		oid.Float8Array:      oid.Float8,
		oid.MacAddrArray:     oid.MacAddr,
		oid.InetArray:        oid.Inet,
		oid.CIDRArray:        oid.CIDR,
		oid.BPCharArray:      oid.BPChar,
		oid.VarcharArray:     oid.Varchar,
		oid.DateArray:        oid.Date,
		oid.TimeArray:        oid.Time,
		oid.TimestampArray:   oid.Timestamp,
		oid.TimestampTZArray: oid.TimestampTZ,
		oid.IntervalArray:    oid.Interval,
		oid.NumericArray:     oid.Numeric,
		oid.UUIDArray:        oid.UUID,
		oid.TSVectorArray:    oid.TSVector,
		oid.TSQueryArray:     oid.TSQuery,
	} {
		element, ok := Builtin(elemOID)
		if !ok {
			panic("codec: no builtin scalar for array element OID")
		}
		registerBuiltin(NewArrayCodec(arrayOID, element.Name+"[]", element))
	}

	recordCodec, _ := Builtin(oid.Record)
	registerBuiltin(NewArrayCodec(oid.RecordArray, "record[]", recordCodec))

	int4, _ := Builtin(oid.Int4)
	int8, _ := Builtin(oid.Int8)
	numeric, _ := Builtin(oid.Numeric)
	date, _ := Builtin(oid.Date)
	timestamp, _ := Builtin(oid.Timestamp)
	timestamptz, _ := Builtin(oid.TimestampTZ)

	registerBuiltin(NewRangeCodec(oid.Int4Range, "int4range", int4))
	registerBuiltin(NewRangeCodec(oid.NumRange, "numrange", numeric))
	registerBuiltin(NewRangeCodec(oid.TSRange, "tsrange", timestamp))
	registerBuiltin(NewRangeCodec(oid.TSTZRange, "tstzrange", timestamptz))
	registerBuiltin(NewRangeCodec(oid.DateRange, "daterange", date))
	registerBuiltin(NewRangeCodec(oid.Int8Range, "int8range", int8))
}
