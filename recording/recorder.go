// Package recording stores simulation results in a SQLite database.
package recording

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/datarecording"
)

const fileSuffix = ".sqlite3"

// Recorder writes rows of flat structs through an akita data recorder. Each
// struct field becomes a column named after the field. It is safe for
// concurrent use.
type Recorder struct {
	mu sync.Mutex

	data   datarecording.DataRecorder
	path   string
	closed bool
}

// DefaultPath returns a fresh database file name.
func DefaultPath() string {
	return "cachesim_" + xid.New().String() + fileSuffix
}

// New creates the database file at path. An empty path picks a fresh name.
// The ".sqlite3" suffix is added when missing. An existing file is never
// overwritten.
func New(path string) (*Recorder, error) {
	if path == "" {
		path = DefaultPath()
	}

	base := strings.TrimSuffix(path, fileSuffix)
	file := base + fileSuffix

	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("file %s already exists", file)
	}

	r := &Recorder{path: file}

	err := catch(func() { r.data = datarecording.NewDataRecorder(base) })
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}

	return r, nil
}

// NewWithDB creates a Recorder writing to an open database.
func NewWithDB(db *sql.DB) *Recorder {
	return &Recorder{data: datarecording.NewDataRecorderWithDB(db)}
}

// Path returns the database file, if the Recorder created one.
func (r *Recorder) Path() string {
	return r.path
}

// CreateTable creates a table whose columns are the fields of sampleEntry.
func (r *Recorder) CreateTable(name string, sampleEntry any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("table %s: recorder is closed", name)
	}

	err := catch(func() { r.data.CreateTable(name, sampleEntry) })
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	return nil
}

// Insert buffers one row. Rows reach the database in batches or on Flush.
func (r *Recorder) Insert(name string, entry any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("table %s: recorder is closed", name)
	}

	err := catch(func() { r.data.InsertData(name, entry) })
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", name, err)
	}

	return nil
}

// ListTables returns the names of the tables in the database.
func (r *Recorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	return r.data.ListTables()
}

// Flush writes all buffered rows.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	return catch(r.data.Flush)
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	if err := catch(r.data.Flush); err != nil {
		return err
	}

	return catch(func() { r.data.Close() })
}

// catch turns a panic raised by the data recorder into an error.
func catch(op func()) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		if e, ok := p.(error); ok {
			err = e
			return
		}

		err = fmt.Errorf("%v", p)
	}()

	op()

	return nil
}
