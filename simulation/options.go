package simulation

import "github.com/sirupsen/logrus"

// Option configures a Simulator.
type Option func(*Simulator)

// WithSplitAccesses makes an access touch every line in its byte range
// instead of only the line of its first byte.
func WithSplitAccesses() Option {
	return func(s *Simulator) {
		s.splitAccesses = true
	}
}

// WithSkipMalformed skips malformed trace records with a warning instead of
// failing the run.
func WithSkipMalformed() Option {
	return func(s *Simulator) {
		s.skipMalformed = true
	}
}

// WithParallel simulates every cache on its own goroutine. Results are the
// same as in sequential mode.
func WithParallel() Option {
	return func(s *Simulator) {
		s.parallel = true
	}
}

// WithLogger sets the logger. Accesses are logged when the logger is at
// trace level.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithProgressInterval logs progress at debug level every n records. Zero
// disables progress logging.
func WithProgressInterval(n uint64) Option {
	return func(s *Simulator) {
		s.progressInterval = n
	}
}

// WithBatchSize sets how many records are handed to each worker at a time in
// parallel mode.
func WithBatchSize(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.batchSize = n
		}
	}
}
