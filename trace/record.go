// Package trace reads and writes memory access traces.
//
// A trace has one access per line with four whitespace-separated fields:
//
//	<pc> <address> <op> <size>
//
// The address is hexadecimal (an optional 0x prefix is accepted), op is R or
// W and size is a decimal byte count. The program counter is kept verbatim.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/cache"
)

// ErrMalformedRecord is wrapped by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed trace record")

// MalformedRecordError reports a trace line that cannot be parsed.
type MalformedRecordError struct {
	// Line is the 1-based line number, or 0 when unknown.
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v at line %d (%q): %s",
			ErrMalformedRecord, e.Line, e.Text, e.Reason)
	}

	return fmt.Sprintf("%v (%q): %s", ErrMalformedRecord, e.Text, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedRecord) hold.
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Record is one memory access of a trace.
type Record struct {
	// PC is the program counter field as written in the trace.
	PC        string
	Address   uint64
	Operation cache.Operation
	Size      int
	// Line is the 1-based line number the record was read from.
	Line int
}

// String formats the record as a trace line.
func (r Record) String() string {
	pc := r.PC
	if pc == "" {
		pc = "0"
	}

	return fmt.Sprintf("%s %016x %s %d", pc, r.Address, r.Operation, r.Size)
}

// ParseLine parses one trace line.
func ParseLine(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 {
		return Record{}, &MalformedRecordError{
			Text:   text,
			Reason: fmt.Sprintf("expected 4 fields, got %d", len(fields)),
		}
	}

	addr, err := ParseAddress(fields[1])
	if err != nil {
		return Record{}, &MalformedRecordError{
			Text:   text,
			Reason: fmt.Sprintf("address %q is not hexadecimal", fields[1]),
		}
	}

	op, err := ParseOperation(fields[2])
	if err != nil {
		return Record{}, &MalformedRecordError{Text: text, Reason: err.Error()}
	}

	size, err := strconv.Atoi(fields[3])
	if err != nil || size < 0 {
		return Record{}, &MalformedRecordError{
			Text:   text,
			Reason: fmt.Sprintf("size %q is not a byte count", fields[3]),
		}
	}

	return Record{
		PC:        fields[0],
		Address:   addr,
		Operation: op,
		Size:      size,
	}, nil
}

// ParseAddress parses a 64-bit hexadecimal address.
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, strconv.ErrSyntax
	}

	return strconv.ParseUint(s, 16, 64)
}

// ParseOperation parses the operation field.
func ParseOperation(s string) (cache.Operation, error) {
	switch strings.ToLower(s) {
	case "r", "read":
		return cache.Read, nil
	case "w", "write":
		return cache.Write, nil
	}

	return 0, fmt.Errorf("unknown operation %q", s)
}
