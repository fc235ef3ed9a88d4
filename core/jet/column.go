package jet

import "fmt"

// ColumnType is the storage type tag of a column definition.
type ColumnType byte

// Column types.
const (
	ColumnTypeBoolean          ColumnType = 0x01
	ColumnTypeByte             ColumnType = 0x02
	ColumnTypeInteger          ColumnType = 0x03
	ColumnTypeLong             ColumnType = 0x04
	ColumnTypeCurrency         ColumnType = 0x05
	ColumnTypeFloat            ColumnType = 0x06
	ColumnTypeDouble           ColumnType = 0x07
	ColumnTypeDateTime         ColumnType = 0x08
	ColumnTypeBinary           ColumnType = 0x09
	ColumnTypeText             ColumnType = 0x0a
	ColumnTypeOLE              ColumnType = 0x0b
	ColumnTypeMemo             ColumnType = 0x0c
	ColumnTypeRepID            ColumnType = 0x0f
	ColumnTypeNumeric          ColumnType = 0x10
	ColumnTypeComplex          ColumnType = 0x12
	ColumnTypeBigInt           ColumnType = 0x13
	ColumnTypeDateTimeExtended ColumnType = 0x14
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeBoolean:          "boolean",
	ColumnTypeByte:             "byte",
	ColumnTypeInteger:          "integer",
	ColumnTypeLong:             "long",
	ColumnTypeCurrency:         "currency",
	ColumnTypeFloat:            "float",
	ColumnTypeDouble:           "double",
	ColumnTypeDateTime:         "datetime",
	ColumnTypeBinary:           "binary",
	ColumnTypeText:             "text",
	ColumnTypeOLE:              "ole",
	ColumnTypeMemo:             "memo",
	ColumnTypeRepID:            "repid",
	ColumnTypeNumeric:          "numeric",
	ColumnTypeComplex:          "complex",
	ColumnTypeBigInt:           "bigint",
	ColumnTypeDateTimeExtended: "datetime_extended",
}

// Valid reports whether t is a recognized column type.
func (t ColumnType) Valid() bool {
	_, ok := columnTypeNames[t]
	return ok
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(0x%02x)", byte(t))
}

// ColumnFlags is the flag byte of a column definition.
type ColumnFlags byte

// Column flag bits.
const (
	ColumnFlagFixedLength ColumnFlags = 0x01
	ColumnFlagNullable    ColumnFlags = 0x02
	ColumnFlagAutoLong    ColumnFlags = 0x04
	ColumnFlagReplication ColumnFlags = 0x10
	ColumnFlagAutoUUID    ColumnFlags = 0x40
	ColumnFlagHyperlink   ColumnFlags = 0x80
)

// FixedLength reports whether the value lives in the fixed-length area of a row.
func (f ColumnFlags) FixedLength() bool { return f&ColumnFlagFixedLength != 0 }

// Nullable reports whether the column accepts nulls.
func (f ColumnFlags) Nullable() bool { return f&ColumnFlagNullable != 0 }

// AutoLong reports an AutoNumber (long) column.
func (f ColumnFlags) AutoLong() bool { return f&ColumnFlagAutoLong != 0 }

// AutoUUID reports an AutoNumber (replication ID) column.
func (f ColumnFlags) AutoUUID() bool { return f&ColumnFlagAutoUUID != 0 }

// Hyperlink reports a memo column holding hyperlinks.
func (f ColumnFlags) Hyperlink() bool { return f&ColumnFlagHyperlink != 0 }

// Column is one parsed column definition.
type Column struct {
	Name  string
	Type  ColumnType
	Size  int // 0 for boolean columns
	Pos   int
	Flags ColumnFlags

	// Precision and Scale are only set for numeric columns.
	Precision int
	Scale     int

	// VariableIndex and FixedIndex locate the value within a row.
	VariableIndex int
	FixedIndex    int
}
