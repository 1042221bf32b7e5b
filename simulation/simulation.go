// Package simulation replays memory traces against a set of independent
// caches.
package simulation

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

const (
	defaultBatchSize        = 512
	defaultProgressInterval = 1_000_000
)

// RecordSource yields trace records in order. It returns io.EOF after the
// last record.
type RecordSource interface {
	Next() (trace.Record, error)
}

// Result summarizes a run.
type Result struct {
	// Records is the number of records offered to the caches.
	Records uint64

	// Skipped is the number of malformed records that were skipped.
	Skipped uint64

	// Complete is set when the whole trace was consumed.
	Complete bool
}

// Simulator offers every trace record to every cache, in configuration order,
// before moving to the next record.
type Simulator struct {
	caches []*cache.Cache
	logger *logrus.Logger

	splitAccesses    bool
	skipMalformed    bool
	parallel         bool
	progressInterval uint64
	batchSize        int
}

// New creates a Simulator driving caches.
func New(caches []*cache.Cache, opts ...Option) *Simulator {
	s := &Simulator{
		caches:           caches,
		logger:           logrus.StandardLogger(),
		progressInterval: defaultProgressInterval,
		batchSize:        defaultBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger.IsLevelEnabled(logrus.TraceLevel) {
		hook := NewLogHook(s.logger)
		for _, c := range s.caches {
			c.AcceptHook(hook)
		}
	}

	return s
}

// Caches returns the simulated caches in configuration order.
func (s *Simulator) Caches() []*cache.Cache {
	return s.caches
}

// Run consumes source until it is exhausted, ctx is cancelled, or a record
// cannot be used. The returned Result is valid even when err is not nil.
func (s *Simulator) Run(ctx context.Context, source RecordSource) (Result, error) {
	s.logger.WithFields(logrus.Fields{
		"caches":   len(s.caches),
		"parallel": s.parallel,
		"split":    s.splitAccesses,
	}).Info("simulation started")

	var (
		result Result
		err    error
	)

	if s.parallel && len(s.caches) > 1 {
		result, err = s.runParallel(ctx, source)
	} else {
		result, err = s.runSequential(ctx, source)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"records": result.Records,
		"skipped": result.Skipped,
	})

	if err != nil {
		entry.WithError(err).Error("simulation stopped")
		return result, err
	}

	entry.Info("simulation finished")

	return result, nil
}

func (s *Simulator) runSequential(
	ctx context.Context,
	source RecordSource,
) (Result, error) {
	var result Result

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, ok, err := s.next(source, &result)
		if err != nil {
			return result, err
		}

		if !ok {
			result.Complete = true
			return result, nil
		}

		for _, c := range s.caches {
			s.apply(c, rec)
		}
	}
}

// runParallel fans batches of records out to one worker per cache. Each cache
// is only touched by its own worker and sees records in trace order.
func (s *Simulator) runParallel(
	ctx context.Context,
	source RecordSource,
) (Result, error) {
	var result Result

	g, gctx := errgroup.WithContext(ctx)

	queues := make([]chan []trace.Record, len(s.caches))
	for i, c := range s.caches {
		queue := make(chan []trace.Record, 4)
		queues[i] = queue

		g.Go(func() error {
			for batch := range queue {
				for _, rec := range batch {
					s.apply(c, rec)
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, queue := range queues {
				close(queue)
			}
		}()

		batch := make([]trace.Record, 0, s.batchSize)

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			rec, ok, err := s.next(source, &result)
			if err != nil {
				return err
			}

			if ok {
				batch = append(batch, rec)
			}

			if len(batch) == s.batchSize || (!ok && len(batch) > 0) {
				if err := s.dispatch(gctx, queues, batch); err != nil {
					return err
				}

				batch = make([]trace.Record, 0, s.batchSize)
			}

			if !ok {
				result.Complete = true
				return nil
			}
		}
	})

	err := g.Wait()
	if err != nil {
		result.Complete = false
	}

	return result, err
}

func (s *Simulator) dispatch(
	ctx context.Context,
	queues []chan []trace.Record,
	batch []trace.Record,
) error {
	for _, queue := range queues {
		select {
		case queue <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// next reads the next usable record. ok is false at the end of the trace.
func (s *Simulator) next(
	source RecordSource,
	result *Result,
) (rec trace.Record, ok bool, err error) {
	for {
		rec, err = source.Next()
		if err == nil {
			result.Records++
			s.logProgress(result.Records)

			return rec, true, nil
		}

		if errors.Is(err, io.EOF) {
			return trace.Record{}, false, nil
		}

		if s.skipMalformed && errors.Is(err, trace.ErrMalformedRecord) {
			result.Skipped++
			s.logger.WithError(err).Warn("skipping malformed trace record")

			continue
		}

		return trace.Record{}, false, err
	}
}

func (s *Simulator) apply(c *cache.Cache, rec trace.Record) {
	if s.splitAccesses {
		c.AccessSpan(rec.Address, rec.Operation, rec.Size)
		return
	}

	c.Access(rec.Address, rec.Operation, rec.Size)
}

func (s *Simulator) logProgress(records uint64) {
	if s.progressInterval == 0 || records%s.progressInterval != 0 {
		return
	}

	s.logger.WithField("records", records).Debug("simulation progress")
}
