package jet

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"strings"
	"time"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
	"github.com/FocuswithJustin/jetdb/core/jet/crypt"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
	"github.com/FocuswithJustin/jetdb/core/jet/text"
)

// Header offsets shared by every format version.
const (
	// EncodingKeyOffset is where the 4-byte page encoding key sits on page 0.
	EncodingKeyOffset = 0x3e

	// PasswordOffset is the start of the (masked) database password on page 0.
	PasswordOffset = 0x42
)

// Database is a Jet file held entirely in memory.
//
// The header region of the private buffer copy is decrypted during Open;
// after that the Database is immutable and safe for concurrent readers.
type Database struct {
	buf         []byte
	format      *format.Descriptor
	encodingKey [crypt.EncodingKeySize]byte
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Open parses the header of a Jet file. buf is copied; the caller keeps
// ownership of its slice.
func Open(buf []byte, opts ...Option) (*Database, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	if err := format.AssertPageType(buf, format.PageTypeDatabaseDefinition); err != nil {
		return nil, apperrors.Wrap(err, "page 0")
	}

	f, err := format.Lookup(buf)
	if err != nil {
		return nil, err
	}

	headerEnd := crypt.HeaderStart + f.DatabaseDefinitionPage.EncryptedSize
	if len(buf) < headerEnd {
		return nil, apperrors.NewFormatf("header", "file is %d bytes, %s header needs %d", len(buf), f, headerEnd)
	}

	db := &Database{
		buf:    bytes.Clone(buf),
		format: f,
		logger: o.logger,
	}
	decryptHeader(db.buf, f)
	copy(db.encodingKey[:], db.buf[EncodingKeyOffset:EncodingKeyOffset+crypt.EncodingKeySize])

	db.logger.Debug("opened jet database",
		"format", f.Name,
		"page_size", f.PageSize,
		"pages", db.PageCount(),
		"encrypted", db.Encrypted(),
	)
	return db, nil
}

func decryptHeader(buf []byte, f *format.Descriptor) {
	region := buf[crypt.HeaderStart : crypt.HeaderStart+f.DatabaseDefinitionPage.EncryptedSize]
	copy(region, crypt.Decrypt(crypt.HeaderKey, region))
}

// Format returns the layout descriptor selected for the file.
func (d *Database) Format() *format.Descriptor {
	return d.format
}

// Encrypted reports whether pages after page 0 are RC4-encoded.
func (d *Database) Encrypted() bool {
	return !crypt.IsZeroKey(d.encodingKey[:])
}

// PageCount returns the number of pages, counting a trailing partial page.
func (d *Database) PageCount() int {
	ps := d.format.PageSize
	return (len(d.buf) + ps - 1) / ps
}

// Page returns page n, decrypted if the database is encoded. Unencoded pages
// and page 0 are read-only views into the database buffer; callers must not
// modify them. A trailing partial page is zero-padded to the full page size.
func (d *Database) Page(n uint32) ([]byte, error) {
	ps := d.format.PageSize
	offset := int64(n) * int64(ps)
	if offset >= int64(len(d.buf)) {
		return nil, apperrors.NewRange("page", int64(n), int64(d.PageCount()))
	}

	end := offset + int64(ps)
	var page []byte
	if end <= int64(len(d.buf)) {
		page = d.buf[offset:end:end]
	} else {
		page = make([]byte, ps)
		copy(page, d.buf[offset:])
	}

	if n == 0 || !d.Encrypted() {
		return page, nil
	}
	return crypt.Decrypt(crypt.PageKey(n, d.encodingKey[:]), page), nil
}

// FindPageRow resolves a packed row reference: the page number in the upper
// 24 bits and the slot in the low byte.
func (d *Database) FindPageRow(ref uint32) ([]byte, error) {
	page, err := d.Page(ref >> 8)
	if err != nil {
		return nil, err
	}
	return d.FindRow(page, int(ref&0xff))
}

// Row offset flags stored in the high bits of slot directory entries.
const (
	rowOffsetMask   = 0x1fff
	rowDeletedFlag  = 0x8000
	rowOverflowFlag = 0x4000
)

// FindRow returns the bytes of slot within a data page. Slot 0 extends to the
// end of the page; slot k ends where slot k-1 starts.
func (d *Database) FindRow(page []byte, slot int) ([]byte, error) {
	start, end, err := d.rowBounds(page, slot)
	if err != nil {
		return nil, err
	}
	return page[start:end], nil
}

// RecordCount returns the number of slots in a data page's directory.
func (d *Database) RecordCount(page []byte) int {
	rco := d.format.DataPage.RecordCountOffset
	if len(page) < rco+2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(page[rco:]))
}

func (d *Database) slotEntry(page []byte, slot int) (uint16, error) {
	pos := d.format.DataPage.RecordCountOffset + 2 + 2*slot
	if slot < 0 || pos+2 > len(page) {
		limit := (len(page) - d.format.DataPage.RecordCountOffset - 2) / 2
		return 0, apperrors.NewRange("slot", int64(slot), int64(max(limit, 0)))
	}
	return binary.LittleEndian.Uint16(page[pos:]), nil
}

func (d *Database) rowBounds(page []byte, slot int) (int, int, error) {
	entry, err := d.slotEntry(page, slot)
	if err != nil {
		return 0, 0, err
	}
	start := int(entry & rowOffsetMask)

	end := d.format.PageSize
	if slot > 0 {
		prev, err := d.slotEntry(page, slot-1)
		if err != nil {
			return 0, 0, err
		}
		end = int(prev & rowOffsetMask)
	}

	if end > len(page) {
		return 0, 0, apperrors.NewRange("row end", int64(end), int64(len(page)))
	}
	if start > end {
		return 0, 0, apperrors.NewRange("row start", int64(start), int64(end))
	}
	return start, end, nil
}

// Password returns the database password, or false when none is set.
func (d *Database) Password() (string, bool) {
	ddp := d.format.DatabaseDefinitionPage
	pw := bytes.Clone(d.buf[PasswordOffset : PasswordOffset+ddp.PasswordSize])

	if mask, ok := d.passwordMask(); ok {
		for i := range pw {
			pw[i] ^= mask[i%len(mask)]
		}
	}

	if crypt.IsZeroKey(pw) {
		return "", false
	}

	s := text.Decode(pw, d.format.TextEncoding)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s, true
}

// passwordMask is the creation date, truncated to an int32, as 4 LE bytes.
func (d *Database) passwordMask() ([4]byte, bool) {
	var mask [4]byte
	off := d.format.DatabaseDefinitionPage.CreationDateOffset
	if off < 0 {
		return mask, false
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[off:]))
	binary.LittleEndian.PutUint32(mask[:], uint32(int32(v)))
	return mask, true
}

// CreationDate returns the creation timestamp stored in the header, or false
// for formats without one.
func (d *Database) CreationDate() (time.Time, bool) {
	off := d.format.DatabaseDefinitionPage.CreationDateOffset
	if off < 0 {
		return time.Time{}, false
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.buf[off:]))
	return FromOLEDate(v), true
}

// DefaultSortOrder returns the database collation, falling back to the
// format default when the header field is zero. The value is the u16 at the
// start of the field, as Jackcess reads it, not the u16 at offset+3 that some
// readers use; offset+3 holds the version byte on Jet4 and later.
func (d *Database) DefaultSortOrder() format.SortOrder {
	field := d.format.DatabaseDefinitionPage.DefaultSortOrder
	value := binary.LittleEndian.Uint16(d.buf[field.Offset:])
	if value == 0 {
		return d.format.DefaultSortOrder
	}

	version := d.format.DefaultSortOrder.Version
	if field.Size == 4 {
		version = int(d.buf[field.Offset+3])
	}
	return format.SortOrder{Value: value, Version: version}
}
