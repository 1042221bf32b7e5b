package recording

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/report"
)

// Table names.
const (
	TableRuns     = "runs"
	TableCaches   = "caches"
	TableAccesses = "accesses"
)

// RunRow is one simulation run.
type RunRow struct {
	RunID     string
	Config    string
	Trace     string
	Records   uint64
	Skipped   uint64
	Complete  bool
	StartTime string
}

// CacheRow is the final state of one cache in a run. HitRateValid is false
// when the cache saw no accesses.
type CacheRow struct {
	RunID         string
	Name          string
	Kind          string
	Size          uint64
	LineSize      uint64
	Associativity int
	Sets          int
	Policy        string
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Reads         uint64
	Writes        uint64
	HitRate       float64
	HitRateValid  bool
}

// AccessRow is one cache access. Addresses and tags are stored as hex
// strings since SQLite integers are signed.
type AccessRow struct {
	RunID          string
	Seq            uint64
	Cache          string
	Address        string
	Operation      string
	Size           int
	Tag            string
	SetIndex       int64
	Way            int
	Hit            bool
	Evicted        bool
	EvictedAddress string
}

// NewRunID returns a unique identifier for a run.
func NewRunID() string {
	return xid.New().String()
}

// RunInfo describes where a run's inputs came from.
type RunInfo struct {
	RunID     string
	Config    string
	Trace     string
	StartTime time.Time
}

// RecordReport writes the run summary and one row per cache.
func RecordReport(r *Recorder, info RunInfo, rep report.Report) error {
	if err := ensureTable(r, TableRuns, RunRow{}); err != nil {
		return err
	}

	if err := ensureTable(r, TableCaches, CacheRow{}); err != nil {
		return err
	}

	err := r.Insert(TableRuns, RunRow{
		RunID:     info.RunID,
		Config:    info.Config,
		Trace:     info.Trace,
		Records:   rep.Records,
		Skipped:   rep.Skipped,
		Complete:  rep.Complete,
		StartTime: info.StartTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	for _, c := range rep.Caches {
		row := CacheRow{
			RunID:         info.RunID,
			Name:          c.Name,
			Kind:          c.Kind,
			Size:          c.Size,
			LineSize:      c.LineSize,
			Associativity: c.Associativity,
			Sets:          c.Sets,
			Policy:        c.Policy,
			Hits:          c.Hits,
			Misses:        c.Misses,
			Evictions:     c.Evictions,
			Reads:         c.Reads,
			Writes:        c.Writes,
		}

		if c.HitRate != nil {
			row.HitRate = *c.HitRate
			row.HitRateValid = true
		}

		if err := r.Insert(TableCaches, row); err != nil {
			return err
		}
	}

	return nil
}

func ensureTable(r *Recorder, name string, sample any) error {
	for _, t := range r.ListTables() {
		if t == name {
			return nil
		}
	}

	return r.CreateTable(name, sample)
}

// AccessHook records every cache access it is attached to.
type AccessHook struct {
	recorder *Recorder
	runID    string

	mu  sync.Mutex
	seq uint64
	err error
}

// NewAccessHook creates the accesses table and returns a hook filling it.
func NewAccessHook(r *Recorder, runID string) (*AccessHook, error) {
	if err := ensureTable(r, TableAccesses, AccessRow{}); err != nil {
		return nil, err
	}

	return &AccessHook{recorder: r, runID: runID}, nil
}

// Func records the access in ctx.
func (h *AccessHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	c, ok := ctx.Item.(*cache.Cache)
	if !ok {
		return
	}

	detail, ok := ctx.Detail.(cache.AccessDetail)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return
	}

	h.seq++

	row := AccessRow{
		RunID:     h.runID,
		Seq:       h.seq,
		Cache:     c.Name(),
		Address:   hex(detail.Address),
		Operation: detail.Operation.String(),
		Size:      detail.Size,
		Tag:       hex(detail.Decoded.Tag),
		SetIndex:  int64(detail.Decoded.SetIndex),
		Way:       detail.Way,
		Hit:       detail.Outcome == cache.Hit,
		Evicted:   detail.Evicted,
	}

	if detail.Evicted {
		row.EvictedAddress = hex(detail.EvictedAddress)
	}

	h.err = h.recorder.Insert(TableAccesses, row)
}

// Err returns the first error met while recording.
func (h *AccessHook) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

// Count returns the number of accesses recorded.
func (h *AccessHook) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.seq
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
