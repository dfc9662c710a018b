package format

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxLineSize bounds a single JSON-lines record. Documents with many large
// tables run to tens of megabytes.
const MaxLineSize = 256 << 20

// Reader decodes one JSON value per line.
type Reader struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   int
}

// NewJSONLReader reads records from r, decompressing it if needed.
func NewJSONLReader(r io.Reader) (*Reader, error) {
	rc, _, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{sc: sc, closer: rc}, nil
}

// Open opens a JSON-lines file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewJSONLReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = multiCloser{r.closer, f}
	return r, nil
}

// Next decodes the next non-blank line into v. It returns io.EOF when the
// input is exhausted.
func (r *Reader) Next(v any) error {
	for r.sc.Scan() {
		r.line++
		line := r.sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return fmt.Errorf("line %d: %w", r.line, err)
		}
		return nil
	}
	if err := r.sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Line returns the number of the line last read.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying input.
func (r *Reader) Close() error {
	return r.closer.Close()
}

// ReadAll decodes every record of r as a T.
func ReadAll[T any](r *Reader) ([]T, error) {
	var out []T
	for {
		var v T
		err := r.Next(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
}

// Writer encodes one JSON value per line.
type Writer struct {
	bw  *bufio.Writer
	zw  io.WriteCloser
	c   io.Closer
	enc *json.Encoder
}

// NewJSONLWriter writes records to w with the given compression.
func NewJSONLWriter(w io.Writer, c Compression) *Writer {
	zw := NewWriter(w, c)
	bw := bufio.NewWriter(zw)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Writer{bw: bw, zw: zw, enc: enc}
}

// Create creates (or truncates) a JSON-lines file. The compression follows
// the file suffix.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewJSONLWriter(f, Detect(path))
	w.c = f
	return w, nil
}

// Write encodes v as one line.
func (w *Writer) Write(v any) error {
	return w.enc.Encode(v)
}

// Close flushes buffered records and closes the output.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if cerr := w.zw.Close(); err == nil {
		err = cerr
	}
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
