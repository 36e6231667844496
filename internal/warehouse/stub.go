package warehouse

import (
	"context"
	"log/slog"
	"sync"
)

// StubRunner stands in when the warehouse is unreachable: every query
// returns no rows so pages render empty panels instead of failing. The
// degradation is logged once.
type StubRunner struct {
	logger *slog.Logger
	once   sync.Once
}

// NewStubRunner constructs a StubRunner.
func NewStubRunner(logger *slog.Logger) *StubRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubRunner{logger: logger}
}

// Query always succeeds with zero rows.
func (s *StubRunner) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	s.once.Do(func() {
		s.logger.Warn("warehouse unavailable, serving empty result sets")
	})
	return nil, nil
}

// Ping always succeeds.
func (s *StubRunner) Ping(ctx context.Context) error {
	return nil
}

var _ Runner = (*StubRunner)(nil)
