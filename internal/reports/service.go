package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/warehouse"
)

// DataAccessRecorder receives one audit event per warehouse read.
type DataAccessRecorder interface {
	DataAccess(ctx context.Context, user, dataType string, recordCount int, ip string, queryInfo map[string]any)
}

// CacheMeter counts memo lookups by outcome.
type CacheMeter interface {
	ReportCacheLookup(outcome string)
}

// Service runs scoped warehouse queries for report pages, memoising results
// and auditing every access.
type Service struct {
	runner warehouse.Runner
	cache  *warehouse.Cache
	audit  DataAccessRecorder
	meter  CacheMeter
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a report Service.
func NewService(runner warehouse.Runner, cache *warehouse.Cache, audit DataAccessRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runner: runner, cache: cache, audit: audit, logger: logger, now: time.Now}
}

// WithMeter attaches a cache lookup counter.
func (s *Service) WithMeter(meter CacheMeter) {
	s.meter = meter
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// fetch executes query through the memo and records a DATA_ACCESS event
// naming the data type and row count.
func (s *Service) fetch(ctx context.Context, req Request, dataType, query string, args ...any) ([]warehouse.Row, error) {
	keyParts := []string{req.Scope.Brand}
	for _, arg := range args {
		keyParts = append(keyParts, fmt.Sprint(arg))
	}
	key := warehouse.Key(dataType, query, keyParts...)

	rows, cached, err := s.cache.FetchRows(ctx, key, func(ctx context.Context) ([]warehouse.Row, error) {
		return s.runner.Query(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	if s.meter != nil {
		outcome := "miss"
		if cached {
			outcome = "hit"
		}
		s.meter.ReportCacheLookup(outcome)
	}
	if s.audit != nil {
		s.audit.DataAccess(ctx, req.Username, dataType, len(rows), req.ClientIP, map[string]any{
			"schema": req.Scope.Schema,
			"cached": cached,
		})
	}
	return rows, nil
}

// tabulate projects rows onto the given column order, stringifying values
// for the template. Missing columns render empty.
func tabulate(rows []warehouse.Row, columns []string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = cellString(row[col])
		}
		out = append(out, line)
	}
	return out
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case float32:
		return cellString(float64(val))
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprint(val)
	}
}

func cellFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
