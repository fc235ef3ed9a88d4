// Package format holds the version-keyed layout constants of the Jet and ACE
// database file formats.
//
// A Descriptor is selected once per file from the version byte on page 0 and
// is never mutated. All descriptors live in a static table built at package
// initialization.
package format

import (
	"fmt"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

// VersionOffset is the header position of the format version byte.
const VersionOffset = 0x14

// Version identifies a Jet/ACE file format revision.
type Version byte

// Recognized format versions.
const (
	VersionJet3  Version = 0x00 // Access 97
	VersionJet4  Version = 0x01 // Access 2000/2002/2003
	VersionACE12 Version = 0x02 // Access 2007
	VersionACE14 Version = 0x03 // Access 2010
	VersionACE15 Version = 0x04 // Access 2013
	VersionACE16 Version = 0x05 // Access 2016
	VersionACE17 Version = 0x06 // Access 2019
)

// TextEncoding selects how names and passwords are decoded.
type TextEncoding int

const (
	// TextCodePage is single-byte text in the database code page (Jet3).
	TextCodePage TextEncoding = iota
	// TextUCS2 is UTF-16LE text, optionally using the compressed-Unicode scheme.
	TextUCS2
)

// SortOrder is a database collation identifier.
type SortOrder struct {
	Value   uint16
	Version int
}

// Well-known sort orders. Value 1033 is the "General" collation.
var (
	General97SortOrder     = SortOrder{Value: 1033, Version: -1}
	GeneralLegacySortOrder = SortOrder{Value: 1033, Version: 0}
	GeneralSortOrder       = SortOrder{Value: 1033, Version: 1}
)

// Field locates a fixed-width header field.
type Field struct {
	Offset int
	Size   int
}

// DatabaseDefinitionPage describes page 0.
type DatabaseDefinitionPage struct {
	EncryptedSize      int
	PasswordSize       int
	CreationDateOffset int // -1 when the format has no creation date
	DefaultSortOrder   Field
}

// HasCreationDate reports whether the header carries a creation date.
func (p DatabaseDefinitionPage) HasCreationDate() bool {
	return p.CreationDateOffset >= 0
}

// DataPage describes the slot directory of data pages.
type DataPage struct {
	RecordCountOffset int
}

// ColumnDefinition describes one fixed-size column record.
type ColumnDefinition struct {
	TypeOffset          int
	PosOffset           int
	VariableIndexOffset int
	PrecisionOffset     int
	ScaleOffset         int
	FlagsOffset         int
	FixedIndexOffset    int
	SizeOffset          int
	EntrySize           int
}

// TableDefinitionPage describes the assembled table definition buffer.
type TableDefinitionPage struct {
	RowCountOffset            int
	VariableColumnCountOffset int
	ColumnCountOffset         int
	LogicalIndexCountOffset   int
	RealIndexCountOffset      int
	UsageMapOffset            int
	RealIndexStartOffset      int
	RealIndexEntrySize        int
	LogicalIndexEntrySize     int
	ColumnsDefinition         ColumnDefinition
	ColumnNameLengthSize      int
}

// Descriptor is the complete layout profile of one format version.
type Descriptor struct {
	Version                Version
	Name                   string
	PageSize               int
	TextEncoding           TextEncoding
	DefaultSortOrder       SortOrder
	DatabaseDefinitionPage DatabaseDefinitionPage
	DataPage               DataPage
	TableDefinitionPage    TableDefinitionPage
}

// String returns the descriptor name.
func (d *Descriptor) String() string {
	return d.Name
}

var jet3 = Descriptor{
	Version:          VersionJet3,
	Name:             "Jet3",
	PageSize:         2048,
	TextEncoding:     TextCodePage,
	DefaultSortOrder: General97SortOrder,
	DatabaseDefinitionPage: DatabaseDefinitionPage{
		EncryptedSize:      126,
		PasswordSize:       20,
		CreationDateOffset: -1,
		DefaultSortOrder:   Field{Offset: 0x3a, Size: 2},
	},
	DataPage: DataPage{RecordCountOffset: 8},
	TableDefinitionPage: TableDefinitionPage{
		RowCountOffset:            12,
		VariableColumnCountOffset: 23,
		ColumnCountOffset:         25,
		LogicalIndexCountOffset:   27,
		RealIndexCountOffset:      31,
		UsageMapOffset:            35,
		RealIndexStartOffset:      43,
		RealIndexEntrySize:        8,
		LogicalIndexEntrySize:     20,
		ColumnsDefinition: ColumnDefinition{
			TypeOffset:          0,
			PosOffset:           1,
			VariableIndexOffset: 3,
			PrecisionOffset:     11,
			ScaleOffset:         12,
			FlagsOffset:         13,
			FixedIndexOffset:    14,
			SizeOffset:          16,
			EntrySize:           18,
		},
		ColumnNameLengthSize: 1,
	},
}

var jet4 = Descriptor{
	Version:          VersionJet4,
	Name:             "Jet4",
	PageSize:         4096,
	TextEncoding:     TextUCS2,
	DefaultSortOrder: GeneralLegacySortOrder,
	DatabaseDefinitionPage: DatabaseDefinitionPage{
		EncryptedSize:      128,
		PasswordSize:       40,
		CreationDateOffset: 0x72,
		DefaultSortOrder:   Field{Offset: 0x6e, Size: 4},
	},
	DataPage: DataPage{RecordCountOffset: 12},
	TableDefinitionPage: TableDefinitionPage{
		RowCountOffset:            16,
		VariableColumnCountOffset: 43,
		ColumnCountOffset:         45,
		LogicalIndexCountOffset:   47,
		RealIndexCountOffset:      51,
		UsageMapOffset:            55,
		RealIndexStartOffset:      63,
		RealIndexEntrySize:        12,
		LogicalIndexEntrySize:     28,
		ColumnsDefinition: ColumnDefinition{
			TypeOffset:          0,
			PosOffset:           5,
			VariableIndexOffset: 7,
			PrecisionOffset:     11,
			ScaleOffset:         12,
			FlagsOffset:         15,
			FixedIndexOffset:    21,
			SizeOffset:          23,
			EntrySize:           25,
		},
		ColumnNameLengthSize: 2,
	},
}

// ace derives an ACE profile from Jet4; the on-disk layout is unchanged.
func ace(v Version, name string, sortOrder SortOrder) Descriptor {
	d := jet4
	d.Version = v
	d.Name = name
	d.DefaultSortOrder = sortOrder
	return d
}

var descriptors = map[Version]*Descriptor{}

func init() {
	all := []Descriptor{
		jet3,
		jet4,
		ace(VersionACE12, "ACE12", GeneralLegacySortOrder),
		ace(VersionACE14, "ACE14", GeneralSortOrder),
		ace(VersionACE15, "ACE15", GeneralSortOrder),
		ace(VersionACE16, "ACE16", GeneralSortOrder),
		ace(VersionACE17, "ACE17", GeneralSortOrder),
	}
	for i := range all {
		d := all[i]
		descriptors[d.Version] = &d
	}
}

// Lookup selects the descriptor for a file from the bytes of its first page.
func Lookup(header []byte) (*Descriptor, error) {
	if len(header) <= VersionOffset {
		return nil, apperrors.NewFormatf("signature", "header too short: %d bytes", len(header))
	}
	return ForVersion(Version(header[VersionOffset]))
}

// ForVersion returns the descriptor registered for v.
func ForVersion(v Version) (*Descriptor, error) {
	d, ok := descriptors[v]
	if !ok {
		return nil, apperrors.NewFormatf("signature", "unrecognized format version 0x%02x", byte(v))
	}
	return d, nil
}

// Versions lists every recognized version in ascending order.
func Versions() []Version {
	return []Version{
		VersionJet3, VersionJet4, VersionACE12, VersionACE14,
		VersionACE15, VersionACE16, VersionACE17,
	}
}

// String returns a human-readable version name.
func (v Version) String() string {
	if d, ok := descriptors[v]; ok {
		return d.Name
	}
	return fmt.Sprintf("Version(0x%02x)", byte(v))
}
