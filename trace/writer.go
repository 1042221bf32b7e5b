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

// Writer writes records in the format Reader accepts.
type Writer struct {
	w       *bufio.Writer
	closers []func() error
}

// NewWriter creates a Writer on top of w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Create creates a trace file. Names ending in .gz or .zst are compressed.
// Close must be called to finish the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	closers := []func() error{f.Close}

	var dst io.Writer = f

	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(f)
		dst = gz
		closers = append([]func() error{gz.Close}, closers...)
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create zstd trace: %w", err)
		}

		dst = zw
		closers = append([]func() error{zw.Close}, closers...)
	}

	w := NewWriter(dst)
	w.closers = closers

	return w, nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	if _, err := fmt.Fprintln(w.w, r.String()); err != nil {
		return fmt.Errorf("failed to write trace record: %w", err)
	}

	return nil
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the file opened by Create. It only flushes
// Writers made with NewWriter.
func (w *Writer) Close() error {
	err := w.Flush()

	for _, c := range w.closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}

	w.closers = nil

	return err
}
