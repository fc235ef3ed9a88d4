// Package jetfile loads Jet database files from disk, transparently
// decompressing xz and gzip archives of them.
package jetfile

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

// Compression identifies how a file on disk is wrapped.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionXZ   Compression = "xz"
	CompressionGzip Compression = "gzip"
)

// MaxSize caps the decompressed size of a database. Jet files are limited
// to 2 GiB by the engine itself.
const MaxSize = 2 << 30

var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

// Detect inspects the leading bytes of a file.
func Detect(magic []byte) Compression {
	if bytes.HasPrefix(magic, xzMagic) {
		return CompressionXZ
	}
	if len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip
	}
	return CompressionNone
}

// Load reads the database at path into memory.
func Load(path string) ([]byte, Compression, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	defer file.Close()

	data, compression, err := Read(file)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return data, compression, nil
}

// Read reads a possibly compressed database from r.
func Read(r io.Reader) ([]byte, Compression, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("failed to read magic bytes: %w", err)
	}

	compression := Detect(magic)
	var src io.Reader = br
	switch compression {
	case CompressionXZ:
		xzReader, err := xz.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create xz reader: %w", err)
		}
		src = xzReader
	case CompressionGzip:
		gzReader, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		src = gzReader
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s database: %w", compression, err)
	}
	if int64(len(data)) > MaxSize {
		return nil, "", apperrors.NewRange("database size", int64(len(data)), MaxSize)
	}
	return data, compression, nil
}

// WriteXZ compresses data as an xz stream to w.
func WriteXZ(w io.Writer, data []byte) error {
	xzWriter, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xzWriter.Write(data); err != nil {
		xzWriter.Close()
		return fmt.Errorf("failed to write xz data: %w", err)
	}
	return xzWriter.Close()
}
