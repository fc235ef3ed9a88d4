// Package jettest builds synthetic Jet database files for tests.
//
// A Builder keeps every page in plaintext so tests can compare what the
// reader returns against the exact bytes that were written. Bytes applies the
// same header and page encryption Access does.
package jettest

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/FocuswithJustin/jetdb/core/jet/crypt"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
	"github.com/FocuswithJustin/jetdb/core/jet/text"
	"github.com/FocuswithJustin/jetdb/core/jet/usagemap"
)

const (
	encodingKeyOffset = 0x3e
	passwordOffset    = 0x42
)

var oleEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Builder assembles a Jet file page by page.
type Builder struct {
	Format *format.Descriptor

	// EncodingKey, when non-zero, encrypts every page after page 0.
	EncodingKey [4]byte

	// Password is stored masked with the creation date on Jet4+.
	Password string

	// CreationDate is written for formats that carry one. Zero leaves it 0.0.
	CreationDate time.Time

	// SortOrderValue and SortOrderVersion populate the sort order field.
	SortOrderValue   uint16
	SortOrderVersion byte

	pages [][]byte
}

// New returns a Builder whose only page is an empty database definition page.
func New(v format.Version) *Builder {
	f, err := format.ForVersion(v)
	if err != nil {
		panic(err)
	}
	b := &Builder{Format: f}
	b.pages = append(b.pages, make([]byte, f.PageSize))
	return b
}

// PageSize returns the page size of the target format.
func (b *Builder) PageSize() int {
	return b.Format.PageSize
}

// NextPage returns the number the next added page will receive.
func (b *Builder) NextPage() uint32 {
	return uint32(len(b.pages))
}

// AddPage appends a plaintext page, zero-padded or truncated to the page size.
func (b *Builder) AddPage(page []byte) uint32 {
	p := make([]byte, b.Format.PageSize)
	copy(p, page)
	b.pages = append(b.pages, p)
	return uint32(len(b.pages) - 1)
}

// SetPage replaces page n with plaintext content.
func (b *Builder) SetPage(n uint32, page []byte) {
	p := make([]byte, b.Format.PageSize)
	copy(p, page)
	b.pages[n] = p
}

// Page returns the plaintext of page n as the reader should return it.
// Page 0 is returned with its header region in plaintext.
func (b *Builder) Page(n uint32) []byte {
	if n == 0 {
		return b.header()
	}
	return append([]byte(nil), b.pages[n]...)
}

// Bytes renders the file with encrypted header and, if keyed, encrypted pages.
func (b *Builder) Bytes() []byte {
	ps := b.Format.PageSize
	out := make([]byte, 0, ps*len(b.pages))

	page0 := b.header()
	region := page0[crypt.HeaderStart : crypt.HeaderStart+b.Format.DatabaseDefinitionPage.EncryptedSize]
	copy(region, crypt.Decrypt(crypt.HeaderKey, region))
	out = append(out, page0...)

	encrypted := !crypt.IsZeroKey(b.EncodingKey[:])
	for n := 1; n < len(b.pages); n++ {
		p := b.pages[n]
		if encrypted {
			p = crypt.Decrypt(crypt.PageKey(uint32(n), b.EncodingKey[:]), p)
		}
		out = append(out, p...)
	}
	return out
}

// header renders page 0 in plaintext.
func (b *Builder) header() []byte {
	f := b.Format
	ddp := f.DatabaseDefinitionPage
	page := append([]byte(nil), b.pages[0]...)

	page[0] = byte(format.PageTypeDatabaseDefinition)
	page[format.VersionOffset] = byte(f.Version)
	copy(page[encodingKeyOffset:], b.EncodingKey[:])

	var dateValue float64
	if ddp.HasCreationDate() && !b.CreationDate.IsZero() {
		dateValue = b.CreationDate.Sub(oleEpoch).Hours() / 24
		binary.LittleEndian.PutUint64(page[ddp.CreationDateOffset:], math.Float64bits(dateValue))
	}

	pw := make([]byte, ddp.PasswordSize)
	if b.Password != "" {
		if f.TextEncoding == format.TextCodePage {
			copy(pw, text.EncodeCodePage(b.Password))
		} else {
			copy(pw, text.EncodeUCS2(b.Password))
		}
	}
	if ddp.HasCreationDate() {
		var mask [4]byte
		binary.LittleEndian.PutUint32(mask[:], uint32(int32(dateValue)))
		for i := range pw {
			pw[i] ^= mask[i%4]
		}
	}
	copy(page[passwordOffset:], pw)

	so := ddp.DefaultSortOrder
	binary.LittleEndian.PutUint16(page[so.Offset:], b.SortOrderValue)
	if so.Size == 4 && b.SortOrderValue != 0 {
		page[so.Offset+3] = b.SortOrderVersion
	}
	return page
}

// Row is one slot of a data page.
type Row struct {
	Data     []byte
	Deleted  bool
	Overflow bool
}

const (
	rowDeletedFlag  = 0x8000
	rowOverflowFlag = 0x4000
)

// DataPage renders a data page owned by the table defined at owner. Rows are
// packed from the end of the page backwards, slot 0 last.
func (b *Builder) DataPage(owner uint32, rows ...Row) []byte {
	ps := b.Format.PageSize
	rco := b.Format.DataPage.RecordCountOffset
	page := make([]byte, ps)

	page[0] = byte(format.PageTypeData)
	page[1] = 0x01
	binary.LittleEndian.PutUint32(page[4:], owner)
	binary.LittleEndian.PutUint16(page[rco:], uint16(len(rows)))

	end := ps
	for i, r := range rows {
		start := end - len(r.Data)
		copy(page[start:end], r.Data)
		entry := uint16(start)
		if r.Deleted {
			entry |= rowDeletedFlag
		}
		if r.Overflow {
			entry |= rowOverflowFlag
		}
		binary.LittleEndian.PutUint16(page[rco+2+2*i:], entry)
		end = start
	}
	binary.LittleEndian.PutUint16(page[2:], uint16(end-(rco+2+2*len(rows))))
	return page
}

// AddDataPage appends a data page and returns its number.
func (b *Builder) AddDataPage(owner uint32, rows ...Row) uint32 {
	return b.AddPage(b.DataPage(owner, rows...))
}

// AddUsageMap stores a usage-map record as slot 0 of a new page and returns
// the packed row reference pointing at it.
func (b *Builder) AddUsageMap(record []byte) uint32 {
	n := b.AddDataPage(0, Row{Data: record})
	return n << 8
}

// AddBitmapUsageMap is AddUsageMap with a type 0 record listing pages.
func (b *Builder) AddBitmapUsageMap(start uint32, pages ...uint32) uint32 {
	return b.AddUsageMap(usagemap.EncodeBitmap(start, pages))
}

// Column describes one column record of a table definition.
type Column struct {
	Name          string
	Type          byte
	Size          int
	Pos           int
	Flags         byte
	Precision     int
	Scale         int
	VariableIndex int
	FixedIndex    int
}

// Table describes a table definition.
type Table struct {
	RowCount            uint32
	VariableColumns     int
	LogicalIndexes      int
	RealIndexes         int
	UsageMap            uint32
	Columns             []Column
	TrailingBytes       int // zero bytes appended after the column names
	ColumnCountOverride int // stored instead of len(Columns) when non-zero
}

// Definition renders the logical definition buffer: the first page header
// followed by counts, the real index block, column records and names.
func (b *Builder) Definition(t Table) []byte {
	td := b.Format.TableDefinitionPage
	cd := td.ColumnsDefinition

	buf := make([]byte, td.RealIndexStartOffset+t.RealIndexes*td.RealIndexEntrySize)
	buf[0] = byte(format.PageTypeTableDefinition)
	buf[1] = 0x01
	binary.LittleEndian.PutUint32(buf[td.RowCountOffset:], t.RowCount)
	binary.LittleEndian.PutUint16(buf[td.VariableColumnCountOffset:], uint16(t.VariableColumns))
	columnCount := len(t.Columns)
	if t.ColumnCountOverride != 0 {
		columnCount = t.ColumnCountOverride
	}
	binary.LittleEndian.PutUint16(buf[td.ColumnCountOffset:], uint16(columnCount))
	binary.LittleEndian.PutUint32(buf[td.LogicalIndexCountOffset:], uint32(int32(t.LogicalIndexes)))
	binary.LittleEndian.PutUint32(buf[td.RealIndexCountOffset:], uint32(int32(t.RealIndexes)))
	binary.LittleEndian.PutUint32(buf[td.UsageMapOffset:], t.UsageMap)

	for _, c := range t.Columns {
		rec := make([]byte, cd.EntrySize)
		rec[cd.TypeOffset] = c.Type
		rec[cd.PosOffset] = byte(c.Pos)
		binary.LittleEndian.PutUint16(rec[cd.VariableIndexOffset:], uint16(c.VariableIndex))
		rec[cd.PrecisionOffset] = byte(c.Precision)
		rec[cd.ScaleOffset] = byte(c.Scale)
		rec[cd.FlagsOffset] = c.Flags
		binary.LittleEndian.PutUint16(rec[cd.FixedIndexOffset:], uint16(c.FixedIndex))
		binary.LittleEndian.PutUint16(rec[cd.SizeOffset:], uint16(c.Size))
		buf = append(buf, rec...)
	}

	for _, c := range t.Columns {
		var name []byte
		if b.Format.TextEncoding == format.TextCodePage {
			name = text.EncodeCodePage(c.Name)
		} else {
			name = text.Compress(c.Name)
		}
		if td.ColumnNameLengthSize == 1 {
			buf = append(buf, byte(len(name)))
		} else {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(name)))
		}
		buf = append(buf, name...)
	}

	return append(buf, make([]byte, t.TrailingBytes)...)
}

// AddTable writes the definition of t across as many chained pages as it
// needs and returns the first page number.
func (b *Builder) AddTable(t Table) uint32 {
	return b.AddDefinitionChain(b.Definition(t))
}

// AddDefinitionChain splits a logical definition buffer into chained table
// definition pages. The first page holds the first PageSize bytes; each
// continuation page holds an 8-byte header and the next PageSize-8 bytes.
func (b *Builder) AddDefinitionChain(def []byte) uint32 {
	ps := b.Format.PageSize
	first := b.NextPage()

	var chunks [][]byte
	chunks = append(chunks, def[:min(len(def), ps)])
	for rest := def[min(len(def), ps):]; len(rest) > 0; {
		n := min(len(rest), ps-8)
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}

	for i, chunk := range chunks {
		page := make([]byte, ps)
		if i == 0 {
			copy(page, chunk)
		} else {
			page[0] = byte(format.PageTypeTableDefinition)
			page[1] = 0x01
			copy(page[8:], chunk)
		}
		var next uint32
		if i < len(chunks)-1 {
			next = first + uint32(i) + 1
		}
		binary.LittleEndian.PutUint32(page[4:], next)
		b.AddPage(page)
	}
	return first
}
