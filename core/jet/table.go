package jet

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"slices"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
	"github.com/FocuswithJustin/jetdb/core/jet/text"
	"github.com/FocuswithJustin/jetdb/core/jet/usagemap"
)

// DefinitionChainOffset is where a table definition page stores the number of
// the next page in its chain.
const DefinitionChainOffset = 4

// definitionPageHeaderSize is the prefix dropped from continuation pages.
const definitionPageHeaderSize = 8

// Table is a parsed table definition. The definition chain, usage map and
// column list are all read by NewTable; a Table never changes afterwards.
type Table struct {
	name                string
	db                  *Database
	firstDefinitionPage uint32

	definitionBuffer []byte
	dataPages        []uint32

	rowCount            int
	columnCount         int
	variableColumnCount int
	fixedColumnCount    int
	logicalIndexCount   int
	realIndexCount      int

	columns []Column
}

// NewTable reads the table whose definition starts at firstDefinitionPage.
// The name comes from the system catalog and is only carried along.
func NewTable(name string, db *Database, firstDefinitionPage uint32) (*Table, error) {
	t := &Table{
		name:                name,
		db:                  db,
		firstDefinitionPage: firstDefinitionPage,
	}

	buf, err := readDefinitionChain(db, firstDefinitionPage)
	if err != nil {
		return nil, apperrors.Wrapf(err, "table %q", name)
	}
	t.definitionBuffer = buf

	if err := t.readCounts(); err != nil {
		return nil, apperrors.Wrapf(err, "table %q", name)
	}

	ref := binary.LittleEndian.Uint32(buf[db.format.TableDefinitionPage.UsageMapOffset:])
	record, err := db.FindPageRow(ref)
	if err != nil {
		return nil, apperrors.Wrapf(err, "table %q: usage map row 0x%08x", name, ref)
	}
	if t.dataPages, err = usagemap.Decode(record); err != nil {
		return nil, apperrors.Wrapf(err, "table %q", name)
	}

	if t.columns, err = t.parseColumns(); err != nil {
		return nil, apperrors.Wrapf(err, "table %q", name)
	}

	db.logger.Debug("parsed table definition",
		"table", name,
		"definition_page", firstDefinitionPage,
		"definition_bytes", len(buf),
		"rows", t.rowCount,
		"columns", t.columnCount,
		"data_pages", len(t.dataPages),
	)
	return t, nil
}

// readDefinitionChain concatenates a linked list of table definition pages.
// Continuation pages contribute everything after their 8-byte header.
func readDefinitionChain(db *Database, first uint32) ([]byte, error) {
	if first == 0 {
		return nil, apperrors.NewFormat("table definition", "page 0 cannot hold a table definition")
	}

	var buf []byte
	visited := make(map[uint32]bool)
	for next := first; next != 0; {
		if visited[next] {
			return nil, apperrors.NewFormatf("table definition", "chain revisits page %d", next)
		}
		visited[next] = true

		page, err := db.Page(next)
		if err != nil {
			return nil, err
		}
		if err := format.AssertPageType(page, format.PageTypeTableDefinition); err != nil {
			return nil, apperrors.Wrapf(err, "definition page %d", next)
		}

		if buf == nil {
			buf = bytes.Clone(page)
		} else {
			buf = append(buf, page[definitionPageHeaderSize:]...)
		}
		next = binary.LittleEndian.Uint32(page[DefinitionChainOffset:])
	}
	return buf, nil
}

func (t *Table) readCounts() error {
	td := t.db.format.TableDefinitionPage
	buf := t.definitionBuffer

	need := max(td.RowCountOffset+4, td.ColumnCountOffset+2, td.VariableColumnCountOffset+2,
		td.LogicalIndexCountOffset+4, td.RealIndexCountOffset+4, td.UsageMapOffset+4)
	if len(buf) < need {
		return apperrors.NewFormatf("table definition", "%d bytes, header needs %d", len(buf), need)
	}

	t.rowCount = int(binary.LittleEndian.Uint32(buf[td.RowCountOffset:]))
	t.columnCount = int(binary.LittleEndian.Uint16(buf[td.ColumnCountOffset:]))
	t.variableColumnCount = int(binary.LittleEndian.Uint16(buf[td.VariableColumnCountOffset:]))
	t.logicalIndexCount = int(int32(binary.LittleEndian.Uint32(buf[td.LogicalIndexCountOffset:])))
	t.realIndexCount = int(int32(binary.LittleEndian.Uint32(buf[td.RealIndexCountOffset:])))

	if t.variableColumnCount > t.columnCount {
		return apperrors.NewFormatf("table definition", "%d variable columns exceed %d columns",
			t.variableColumnCount, t.columnCount)
	}
	if t.realIndexCount < 0 || t.logicalIndexCount < 0 {
		return apperrors.NewFormatf("table definition", "negative index count (logical %d, real %d)",
			t.logicalIndexCount, t.realIndexCount)
	}
	t.fixedColumnCount = t.columnCount - t.variableColumnCount
	return nil
}

func (t *Table) parseColumns() ([]Column, error) {
	f := t.db.format
	td := f.TableDefinitionPage
	cd := td.ColumnsDefinition
	buf := t.definitionBuffer

	start := td.RealIndexStartOffset + t.realIndexCount*td.RealIndexEntrySize
	namesStart := start + t.columnCount*cd.EntrySize
	if namesStart > len(buf) {
		return nil, apperrors.NewFormatf("column definitions", "%d columns at offset %d overrun %d-byte definition",
			t.columnCount, start, len(buf))
	}

	columns := make([]Column, t.columnCount)
	for i := range columns {
		rec := buf[start+i*cd.EntrySize : start+(i+1)*cd.EntrySize]

		typ := ColumnType(rec[cd.TypeOffset])
		if !typ.Valid() {
			return nil, apperrors.NewFormatf("column definitions", "column %d has unknown type 0x%02x", i, byte(typ))
		}

		col := Column{
			Type:          typ,
			Size:          int(binary.LittleEndian.Uint16(rec[cd.SizeOffset:])),
			Pos:           int(rec[cd.PosOffset]),
			Flags:         ColumnFlags(rec[cd.FlagsOffset]),
			VariableIndex: int(binary.LittleEndian.Uint16(rec[cd.VariableIndexOffset:])),
			FixedIndex:    int(binary.LittleEndian.Uint16(rec[cd.FixedIndexOffset:])),
		}
		switch typ {
		case ColumnTypeBoolean:
			// stored in the row's null bitmap
			col.Size = 0
		case ColumnTypeNumeric:
			col.Precision = int(rec[cd.PrecisionOffset])
			col.Scale = int(rec[cd.ScaleOffset])
		}
		columns[i] = col
	}

	cursor := namesStart
	for i := range columns {
		name, next, err := readColumnName(buf, cursor, td.ColumnNameLengthSize, f.TextEncoding)
		if err != nil {
			return nil, apperrors.Wrapf(err, "column %d name", i)
		}
		columns[i].Name = name
		cursor = next
	}

	slices.SortStableFunc(columns, func(a, b Column) int {
		return cmp.Compare(a.Pos, b.Pos)
	})
	return columns, nil
}

func readColumnName(buf []byte, pos, lengthSize int, enc format.TextEncoding) (string, int, error) {
	if pos+lengthSize > len(buf) {
		return "", 0, apperrors.NewFormatf("column names", "length prefix at %d overruns definition", pos)
	}
	var n int
	if lengthSize == 1 {
		n = int(buf[pos])
	} else {
		n = int(binary.LittleEndian.Uint16(buf[pos:]))
	}
	pos += lengthSize
	if pos+n > len(buf) {
		return "", 0, apperrors.NewFormatf("column names", "%d-byte name at %d overruns definition", n, pos)
	}
	return text.Decode(buf[pos:pos+n], enc), pos + n, nil
}

// Name returns the table name given to NewTable.
func (t *Table) Name() string { return t.name }

// FirstDefinitionPage returns the head of the definition chain.
func (t *Table) FirstDefinitionPage() uint32 { return t.firstDefinitionPage }

// DefinitionBuffer returns the assembled definition. Callers must not modify it.
func (t *Table) DefinitionBuffer() []byte { return t.definitionBuffer }

// DataPages returns the pages listed in the table's usage map, ascending.
func (t *Table) DataPages() []uint32 { return slices.Clone(t.dataPages) }

// RowCount returns the row count recorded in the definition.
func (t *Table) RowCount() int { return t.rowCount }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return t.columnCount }

// VariableColumnCount returns the number of variable-length columns.
func (t *Table) VariableColumnCount() int { return t.variableColumnCount }

// FixedColumnCount returns the number of fixed-length columns.
func (t *Table) FixedColumnCount() int { return t.fixedColumnCount }

// LogicalIndexCount returns the number of logical indexes.
func (t *Table) LogicalIndexCount() int { return t.logicalIndexCount }

// RealIndexCount returns the number of physical indexes.
func (t *Table) RealIndexCount() int { return t.realIndexCount }

// Columns returns the column definitions sorted by Pos.
func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

// ColumnNames returns column names in Pos order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column named exactly name.
func (t *Table) Column(name string) (Column, error) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, apperrors.NewNotFound("column", name)
}
