package wire

// FormatCode represents the wire encoding of a parameter or result column:
// text or binary, as carried in Bind's format-code arrays and
// RowDescription/ParameterDescription.
type FormatCode int16

const (
	// TextFormat is PostgreSQL's human-readable representation.
	TextFormat FormatCode = 0
	// BinaryFormat is the type-specific binary representation.
	BinaryFormat FormatCode = 1
)

func (f FormatCode) String() string {
	switch f {
	case TextFormat:
		return "text"
	case BinaryFormat:
		return "binary"
	default:
		return "unknown"
	}
}
