package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const maxLineLength = 1 << 20

// Reader streams records from a trace.
type Reader struct {
	scanner *bufio.Scanner
	closers []func() error
	line    int
}

// NewReader reads an uncompressed trace from r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineLength)

	return &Reader{scanner: s}
}

// Open opens a trace file. Names ending in .gz or .zst are decompressed.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	closers := []func() error{f.Close}

	var src io.Reader = f

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open gzip trace: %w", err)
		}

		src = gz
		closers = append([]func() error{gz.Close}, closers...)
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open zstd trace: %w", err)
		}

		src = zr
		closers = append([]func() error{
			func() error { zr.Close(); return nil },
		}, closers...)
	}

	r := NewReader(src)
	r.closers = closers

	return r, nil
}

// Next returns the next record. Blank lines are skipped. It returns io.EOF
// once the trace is exhausted and a *MalformedRecordError for lines that do
// not parse; reading may continue after a malformed line.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		rec, err := ParseLine(text)
		if err != nil {
			if m, ok := err.(*MalformedRecordError); ok {
				m.Line = r.line
			}

			return Record{}, err
		}

		rec.Line = r.line

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read trace at line %d: %w", r.line+1, err)
	}

	return Record{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file and decompressor, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}

	r.closers = nil

	return first
}
