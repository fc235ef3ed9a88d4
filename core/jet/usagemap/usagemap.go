// Package usagemap decodes usage-map records, the structures that list the
// pages owned by a table.
//
// Record layouts (little-endian):
//
//	Type 0, inline bitmap:
//	  0x00  1  type tag (0x00)
//	  0x01  4  start page
//	  0x05  n  bitmap, LSB first; bit i set => page start+i
//
//	Type 1, range list:
//	  0x00  1  type tag (0x01)
//	  0x01  5k {start page [4], run length [1]} entries
package usagemap

import (
	"encoding/binary"
	"math"
	"slices"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

// Map type tags.
const (
	TypeBitmap    = 0x00
	TypeRangeList = 0x01
)

const (
	bitmapHeaderSize = 5
	rangeEntrySize   = 5
)

// Decode returns the ascending, duplicate-free list of pages designated by a
// usage-map record.
func Decode(record []byte) ([]uint32, error) {
	if len(record) == 0 {
		return nil, apperrors.NewFormat("usage map", "empty record")
	}

	var pages []uint32
	var err error
	switch record[0] {
	case TypeBitmap:
		pages, err = decodeBitmap(record)
	case TypeRangeList:
		pages, err = decodeRangeList(record)
	default:
		return nil, apperrors.NewFormatf("usage map", "unknown type 0x%02x", record[0])
	}
	if err != nil {
		return nil, err
	}

	slices.Sort(pages)
	return slices.Compact(pages), nil
}

func decodeBitmap(record []byte) ([]uint32, error) {
	if len(record) < bitmapHeaderSize {
		return nil, apperrors.NewFormatf("usage map", "bitmap header truncated: %d bytes", len(record))
	}
	start := binary.LittleEndian.Uint32(record[1:5])
	bitmap := record[bitmapHeaderSize:]

	var pages []uint32
	for i, b := range bitmap {
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				continue
			}
			page := uint64(start) + uint64(i*8+bit)
			if page > math.MaxUint32 {
				return nil, apperrors.NewFormatf("usage map", "bitmap from page %d overflows at bit %d", start, i*8+bit)
			}
			pages = append(pages, uint32(page))
		}
	}
	return pages, nil
}

func decodeRangeList(record []byte) ([]uint32, error) {
	body := record[1:]
	if len(body)%rangeEntrySize != 0 {
		return nil, apperrors.NewFormatf("usage map", "range list length %d is not a multiple of %d",
			len(body), rangeEntrySize)
	}

	var pages []uint32
	for off := 0; off < len(body); off += rangeEntrySize {
		start := binary.LittleEndian.Uint32(body[off:])
		run := uint32(body[off+4])
		if run > 0 && uint64(start)+uint64(run)-1 > math.MaxUint32 {
			return nil, apperrors.NewFormatf("usage map", "range of %d pages from %d overflows", run, start)
		}
		for p := uint32(0); p < run; p++ {
			pages = append(pages, start+p)
		}
	}
	return pages, nil
}

// EncodeBitmap builds a type 0 record covering pages, which must all be >= start.
func EncodeBitmap(start uint32, pages []uint32) []byte {
	var span uint32
	for _, p := range pages {
		if p-start > span {
			span = p - start
		}
	}
	record := make([]byte, bitmapHeaderSize+int(span/8)+1)
	record[0] = TypeBitmap
	binary.LittleEndian.PutUint32(record[1:5], start)
	for _, p := range pages {
		i := p - start
		record[bitmapHeaderSize+int(i/8)] |= 1 << (i % 8)
	}
	return record
}

// Range is one entry of a type 1 record.
type Range struct {
	Start  uint32
	Length uint8
}

// EncodeRangeList builds a type 1 record.
func EncodeRangeList(ranges ...Range) []byte {
	record := make([]byte, 1, 1+rangeEntrySize*len(ranges))
	record[0] = TypeRangeList
	for _, r := range ranges {
		record = binary.LittleEndian.AppendUint32(record, r.Start)
		record = append(record, r.Length)
	}
	return record
}
