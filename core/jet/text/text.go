// Package text decodes the string encodings found in Jet headers and table
// definitions.
//
// Jet4 and later store text as UTF-16LE, optionally packed with the
// "compressed Unicode" scheme: a leading FF FE marker, after which characters
// whose high byte is zero are stored as a single byte. A 0x00 byte toggles
// between the compressed mode and a literal mode of two bytes per code unit.
// Jet3 stores text in the single-byte database code page.
package text

import (
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/FocuswithJustin/jetdb/core/jet/format"
)

// CompressionMarker prefixes compressed-Unicode text.
var CompressionMarker = [2]byte{0xff, 0xfe}

// IsCompressed reports whether b starts with the compression marker.
func IsCompressed(b []byte) bool {
	return len(b) >= 2 && b[0] == CompressionMarker[0] && b[1] == CompressionMarker[1]
}

// Decode converts stored text to a Go string using the format's encoding.
func Decode(b []byte, enc format.TextEncoding) string {
	if enc == format.TextCodePage {
		return decodeCodePage(b)
	}
	return string(utf16.Decode(Uncompress(b)))
}

// Uncompress expands b into UTF-16 code units. Text without the compression
// marker is read as plain UTF-16LE; a trailing odd byte is dropped.
func Uncompress(b []byte) []uint16 {
	if !IsCompressed(b) {
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
		return units
	}

	units := make([]uint16, 0, len(b)-2)
	compressed := true
	for pos := 2; pos < len(b); {
		c := b[pos]
		switch {
		case c == 0x00:
			compressed = !compressed
			pos++
		case compressed:
			units = append(units, uint16(c))
			pos++
		case len(b)-pos >= 2:
			units = append(units, binary.LittleEndian.Uint16(b[pos:]))
			pos += 2
		default:
			// odd trailing byte in literal mode
			pos = len(b)
		}
	}
	return units
}

// Compress encodes s in the compressed-Unicode scheme and is the inverse of
// Uncompress. A code unit with a zero low byte cannot appear in a literal run,
// since the decoder reads that byte as a mode toggle; such text is returned as
// plain UTF-16LE without the marker, as Jet stores it.
func Compress(s string) []byte {
	units := utf16.Encode([]rune(s))
	for _, u := range units {
		if u >= 0x100 && u&0xff == 0 {
			return EncodeUCS2(s)
		}
	}

	out := []byte{CompressionMarker[0], CompressionMarker[1]}
	compressed := true
	for _, u := range units {
		fits := u > 0 && u < 0x100
		if fits != compressed {
			out = append(out, 0x00)
			compressed = fits
		}
		if compressed {
			out = append(out, byte(u))
		} else {
			out = binary.LittleEndian.AppendUint16(out, u)
		}
	}
	return out
}

// EncodeUCS2 encodes s as plain UTF-16LE.
func EncodeUCS2(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, 2*len(units))
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return out
}

func decodeCodePage(b []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// EncodeCodePage encodes s in the Jet3 code page, replacing unmappable runes.
func EncodeCodePage(s string) []byte {
	out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
