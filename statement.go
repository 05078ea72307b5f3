package pgfe

import (
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/codec"
	"github.com/pgfe/pgfe/oid"
	"github.com/pgfe/pgfe/pgerr"
	"github.com/pgfe/pgfe/wire"
)

// ColumnDescriptor is one field of a RowDescription, grounded on row.go's
// Column shape but parsed from the wire instead of written to it.
type ColumnDescriptor struct {
	Name      string
	TableOID  oid.OID
	ColumnNum int16
	TypeOID   oid.OID
	TypeSize  int16
	TypeMod   int32
	Format    wire.FormatCode
}

// Statement is one-shot prepared-statement state: parameter and row
// descriptors parsed out of ParameterDescription/RowDescription, the
// per-column codecs bound once every OID resolves, and a portal
// reference count gating Close.
//
// The connection layer owns a map of these keyed by name; Statement
// itself holds no lock since the single-request invariant in
// frontend.go already serializes all access.
type Statement struct {
	Name  string
	Query string

	ParamOIDs   []oid.OID
	ParamCodecs []*codec.Codec

	Columns   []ColumnDescriptor
	RowCodecs []*codec.Codec

	HaveTextArgs    bool
	HaveTextColumns bool

	refs   int32
	closed bool
}

// NewStatement constructs an unprepared Statement for the given name and
// query text (before Parse has been sent).
func NewStatement(name, query string) *Statement {
	return &Statement{Name: name, Query: query}
}

// SetParamDesc parses a ParameterDescription body: int16 count + count *
// uint32 oid.
func (s *Statement) SetParamDesc(data []byte) error {
	if s.closed {
		return pgerr.NewInterfaceError("statement %q is closed", s.Name)
	}

	r := buffer.NewMessageParser(data)

	count, err := r.ReadInt16()
	if err != nil {
		return pgerr.WrapProtocolError(err)
	}

	oids := make([]oid.OID, count)
	for i := range oids {
		v, err := r.ReadUint32()
		if err != nil {
			return pgerr.WrapProtocolError(err)
		}
		oids[i] = oid.OID(v)
	}

	s.ParamOIDs = oids
	return nil
}

// SetRowDesc parses a RowDescription body: int16 count + per-field
// {cstr name, uint32 table_oid, int16 col_num, uint32 type_oid,
// int16 type_size, int32 type_mod, int16 format}.
func (s *Statement) SetRowDesc(data []byte) error {
	if s.closed {
		return pgerr.NewInterfaceError("statement %q is closed", s.Name)
	}

	cols, err := parseRowDescription(data)
	if err != nil {
		return err
	}

	s.Columns = cols
	return nil
}

// parseRowDescription parses a RowDescription body: int16 count + per-field
// {cstr name, uint32 table_oid, int16 col_num, uint32 type_oid, int16
// type_size, int32 type_mod, int16 format}. Shared by Statement.SetRowDesc
// (extended query, describing a prepared statement) and the simple query
// path (describing each statement's result columns inline, with no
// Statement object backing them).
func parseRowDescription(data []byte) ([]ColumnDescriptor, error) {
	r := buffer.NewMessageParser(data)

	count, err := r.ReadInt16()
	if err != nil {
		return nil, pgerr.WrapProtocolError(err)
	}

	cols := make([]ColumnDescriptor, count)
	for i := range cols {
		name, err := r.ReadCString()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		tableOID, err := r.ReadUint32()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		colNum, err := r.ReadInt16()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		typeOID, err := r.ReadUint32()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		typeSize, err := r.ReadInt16()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		typeMod, err := r.ReadInt32()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}
		format, err := r.ReadInt16()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}

		cols[i] = ColumnDescriptor{
			Name:      string(name),
			TableOID:  oid.OID(tableOID),
			ColumnNum: colNum,
			TypeOID:   oid.OID(typeOID),
			TypeSize:  typeSize,
			TypeMod:   typeMod,
			Format:    wire.FormatCode(format),
		}
	}

	return cols, nil
}

// InitTypes returns the OIDs among this statement's parameters and columns
// that have no registered codec. The connection layer runs a catalog
// introspection query for these and registers them before InitCodecs can
// succeed.
func (s *Statement) InitTypes(reg *codec.Registry) []oid.OID {
	seen := map[oid.OID]bool{}
	var missing []oid.OID

	add := func(o oid.OID) {
		if seen[o] {
			return
		}
		seen[o] = true
		if _, ok := reg.Lookup(o); !ok {
			missing = append(missing, o)
		}
	}

	for _, o := range s.ParamOIDs {
		add(o)
	}
	for _, c := range s.Columns {
		add(c.TypeOID)
	}

	return missing
}

// InitCodecs binds a codec to every parameter and column OID, and derives
// HaveTextArgs/HaveTextColumns. Every OID named by ParamOIDs/Columns must
// already resolve via reg (see InitTypes); any that don't produce a
// DataError naming the offending OID.
func (s *Statement) InitCodecs(reg *codec.Registry) error {
	if s.closed {
		return pgerr.NewInterfaceError("statement %q is closed", s.Name)
	}

	paramCodecs := make([]*codec.Codec, len(s.ParamOIDs))
	for i, o := range s.ParamOIDs {
		c, ok := reg.Lookup(o)
		if !ok {
			return pgerr.NewDataError(int(o), "no codec registered for parameter %d OID %d", i, o)
		}
		paramCodecs[i] = c
		if c.Format == wire.TextFormat {
			s.HaveTextArgs = true
		}
	}

	rowCodecs := make([]*codec.Codec, len(s.Columns))
	for i, col := range s.Columns {
		c, ok := reg.Lookup(col.TypeOID)
		if !ok {
			return pgerr.NewDataError(int(col.TypeOID), "no codec registered for column %q OID %d", col.Name, col.TypeOID)
		}
		rowCodecs[i] = c
		if c.Format == wire.TextFormat {
			s.HaveTextColumns = true
		}
	}

	s.ParamCodecs = paramCodecs
	s.RowCodecs = rowCodecs
	return nil
}

// EncodeBind writes the portal name, statement name, parameter-format
// array, argument values and result-format array into an already-open
// Bind message. args must have exactly len(s.ParamCodecs) elements.
func (s *Statement) EncodeBind(w *buffer.Writer, portal string, args []any, enc buffer.TextEncoder) error {
	if s.closed {
		return pgerr.NewInterfaceError("statement %q is closed", s.Name)
	}

	if len(args) != len(s.ParamCodecs) {
		return pgerr.NewInterfaceError("statement %q expects %d parameters, got %d", s.Name, len(s.ParamCodecs), len(args))
	}

	w.WriteCString([]byte(portal))
	w.WriteCString([]byte(s.Name))

	writeFormatArray(w, paramFormats(s.ParamCodecs))

	w.WriteInt16(int16(len(args)))
	for i, arg := range args {
		c := s.ParamCodecs[i]

		if arg == nil {
			w.WriteInt32(-1)
			continue
		}

		scratch := buffer.NewWriter(nil)
		if err := c.EncodeValue(scratch, enc, arg); err != nil {
			return err
		}

		payload := scratch.View()
		w.WriteInt32(int32(len(payload)))
		w.WriteBytes(payload)
	}

	writeFormatArray(w, rowFormats(s.RowCodecs))

	return w.Error()
}

// DecodeRow parses a DataRow body: int16 fnum (must equal the column
// count) followed by fnum * {int32 length, payload}. Each field is
// decoded by its bound column codec; a -1 length decodes to nil.
func (s *Statement) DecodeRow(data []byte, enc buffer.TextEncoder) ([]any, error) {
	r := buffer.NewMessageParser(data)

	fnum, err := r.ReadInt16()
	if err != nil {
		return nil, pgerr.WrapProtocolError(err)
	}

	if int(fnum) != len(s.RowCodecs) {
		return nil, pgerr.NewProtocolError("DataRow has %d fields, statement %q describes %d", fnum, s.Name, len(s.RowCodecs))
	}

	values := make([]any, fnum)
	for i := 0; i < int(fnum); i++ {
		length, err := r.ReadInt32()
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}

		if length < 0 {
			values[i] = nil
			continue
		}

		payload, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, pgerr.WrapProtocolError(err)
		}

		v, err := s.RowCodecs[i].DecodeValue(payload, enc)
		if err != nil {
			return nil, err
		}

		values[i] = v
	}

	if r.Unread() != 0 {
		return nil, pgerr.NewProtocolError("DataRow for statement %q has %d trailing bytes", s.Name, r.Unread())
	}

	return values, nil
}

// Attach increments the portal reference count; Detach decrements it.
// Close only succeeds once the count returns to zero.
func (s *Statement) Attach() { s.refs++ }
func (s *Statement) Detach() { s.refs-- }

// Close marks the statement permanently closed. It is an error to call
// while any portal is still attached.
func (s *Statement) Close() error {
	if s.refs > 0 {
		return pgerr.NewInterfaceError("cannot close statement %q with %d live portal(s)", s.Name, s.refs)
	}

	s.closed = true
	return nil
}

// Closed reports whether Close has already succeeded.
func (s *Statement) Closed() bool { return s.closed }

func paramFormats(codecs []*codec.Codec) []wire.FormatCode {
	formats := make([]wire.FormatCode, len(codecs))
	for i, c := range codecs {
		formats[i] = c.Format
	}
	return formats
}

func rowFormats(codecs []*codec.Codec) []wire.FormatCode {
	formats := make([]wire.FormatCode, len(codecs))
	for i, c := range codecs {
		formats[i] = c.Format
	}
	return formats
}

// writeFormatArray emits the compact-or-expanded format-code array:
// int16 0 for "none, all default to text", int16 1 + int16 format when
// every entry shares one format (0x00010001 when that format is binary),
// or int16 count + count format codes otherwise.
func writeFormatArray(w *buffer.Writer, formats []wire.FormatCode) {
	if len(formats) == 0 {
		w.WriteInt16(0)
		return
	}

	uniform := true
	for _, f := range formats {
		if f != formats[0] {
			uniform = false
			break
		}
	}

	if uniform {
		w.WriteInt16(1)
		w.WriteInt16(int16(formats[0]))
		return
	}

	w.WriteInt16(int16(len(formats)))
	for _, f := range formats {
		w.WriteInt16(int16(f))
	}
}
