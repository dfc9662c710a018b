// Package format detects how tabcite input files are compressed and reads
// and writes the JSON-lines records they hold.
package format

import (
	"bufio"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Compression represents a supported input encoding.
type Compression int

const (
	// None indicates plain JSON lines.
	None Compression = iota
	// Gzip indicates a gzip stream.
	Gzip
	// Zlib indicates a zlib (deflate) stream.
	Zlib
)

// String returns the string representation of the compression.
func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zlib:
		return "zlib"
	default:
		return "none"
	}
}

// Extension returns the typical file suffix for the compression.
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Zlib:
		return ".zz"
	default:
		return ""
	}
}

// Detect determines compression from the filename suffix.
func Detect(filename string) Compression {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zz", ".zlib":
		return Zlib
	default:
		return None
	}
}

// DetectFromMagic checks leading bytes to determine compression. This is
// more reliable than the suffix: the label stage receives gzip files named
// .jsonl.
func DetectFromMagic(data []byte) Compression {
	if len(data) < 2 {
		return None
	}

	// gzip magic: 1f 8b
	if data[0] == 0x1f && data[1] == 0x8b {
		return Gzip
	}

	// zlib: CM=8 in the low nibble of CMF and CMF*256+FLG divisible by 31
	if data[0]&0x0f == 8 && data[0]>>4 <= 7 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0 {
		return Zlib
	}

	return None
}

// NewReader peeks at r and returns a reader over the decompressed content.
func NewReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	c := DetectFromMagic(magic)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("format: gzip: %w", err)
		}
		return zr, c, nil
	case Zlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("format: zlib: %w", err)
		}
		return zr, c, nil
	default:
		return io.NopCloser(br), c, nil
	}
}

// NewWriter wraps w so that what is written is compressed with c.
func NewWriter(w io.Writer, c Compression) io.WriteCloser {
	switch c {
	case Gzip:
		return gzip.NewWriter(w)
	case Zlib:
		return zlib.NewWriter(w)
	default:
		return nopWriteCloser{w}
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
