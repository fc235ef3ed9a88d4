package jet

import (
	"encoding/binary"
	"iter"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
	"github.com/FocuswithJustin/jetdb/core/jet/format"
)

// dataPageOwnerOffset holds the definition page of the table owning a data page.
const dataPageOwnerOffset = 4

// RowDecoder turns the raw bytes of one stored row into column values.
// Value decoding is not part of this package; callers plug one in.
type RowDecoder interface {
	DecodeRow(columns []Column, row []byte) (map[string]any, error)
}

// RowDecoderFunc adapts a function to RowDecoder.
type RowDecoderFunc func(columns []Column, row []byte) (map[string]any, error)

// DecodeRow calls f.
func (f RowDecoderFunc) DecodeRow(columns []Column, row []byte) (map[string]any, error) {
	return f(columns, row)
}

// Rows yields the raw bytes of every stored row, in data page order and then
// slot order. Deleted slots are skipped and overflow rows are followed to
// their target. Pages that are not data pages owned by this table are
// skipped. Each call starts a fresh pass.
func (t *Table) Rows() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for _, n := range t.dataPages {
			page, err := t.db.Page(n)
			if err != nil {
				yield(nil, err)
				return
			}
			if !t.ownsDataPage(page) {
				continue
			}
			for slot := range t.db.RecordCount(page) {
				row, ok, err := t.db.readSlot(page, slot)
				if err != nil {
					yield(nil, apperrors.Wrapf(err, "page %d slot %d", n, slot))
					return
				}
				if !ok {
					continue
				}
				if !yield(row, nil) {
					return
				}
			}
		}
	}
}

func (t *Table) ownsDataPage(page []byte) bool {
	if format.TypeOf(page) != format.PageTypeData || len(page) < dataPageOwnerOffset+4 {
		return false
	}
	return binary.LittleEndian.Uint32(page[dataPageOwnerOffset:]) == t.firstDefinitionPage
}

// readSlot returns a slot's row, following one overflow pointer. ok is false
// for deleted slots.
func (d *Database) readSlot(page []byte, slot int) ([]byte, bool, error) {
	entry, err := d.slotEntry(page, slot)
	if err != nil {
		return nil, false, err
	}
	if entry&rowDeletedFlag != 0 {
		return nil, false, nil
	}

	row, err := d.FindRow(page, slot)
	if err != nil {
		return nil, false, err
	}
	if entry&rowOverflowFlag == 0 {
		return row, true, nil
	}

	if len(row) < 4 {
		return nil, false, apperrors.NewFormatf("row", "overflow pointer is %d bytes", len(row))
	}
	row, err = d.FindPageRow(binary.LittleEndian.Uint32(row))
	if err != nil {
		return nil, false, apperrors.Wrap(err, "overflow row")
	}
	return row, true, nil
}

// Data yields one name-to-value mapping per stored row using dec. With a nil
// decoder it yields a single NotImplementedError.
func (t *Table) Data(dec RowDecoder) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		if dec == nil {
			yield(nil, apperrors.NewNotImplemented("Table.Data"))
			return
		}
		for row, err := range t.Rows() {
			if err != nil {
				yield(nil, err)
				return
			}
			values, err := dec.DecodeRow(t.columns, row)
			if !yield(values, err) {
				return
			}
		}
	}
}
