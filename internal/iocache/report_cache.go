package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/rs/zerolog"
)

// reportCacheVersion changes whenever the serialized report layout changes.
const reportCacheVersion = 1

// ReportFormatVersion is the layout version stamped on every cached report.
func ReportFormatVersion() int { return reportCacheVersion }

// ErrCacheMiss is returned by stores that have no entry for a key.
var ErrCacheMiss = errors.New("cache miss")

// CacheKey returns the cache key of a project's report.
func CacheKey(projectID string) string {
	return fmt.Sprintf("Project(%s).scrum_statistics", projectID)
}

// ReportCache serves reports from a CacheStore and rebuilds them once they expire.
// Concurrent misses for the same project may build redundantly; the last write wins.
type ReportCache struct {
	store   contract.CacheStore
	builder contract.ReportBuilder
	clock   contract.Clock
	ttl     time.Duration
	log     zerolog.Logger
}

var _ contract.ReportAccessor = &ReportCache{} // Compile-time check

// NewReportCache creates a cache with the default TTL over the given store and builder.
func NewReportCache(store contract.CacheStore, builder contract.ReportBuilder) *ReportCache {
	return &ReportCache{
		store:   store,
		builder: builder,
		clock:   contract.SystemClock{},
		ttl:     contract.DefaultCacheTTL,
		log:     zerolog.Nop(),
	}
}

// WithTTL sets how long an entry stays live. Non-positive values keep the current TTL.
func (c *ReportCache) WithTTL(ttl time.Duration) *ReportCache {
	if ttl > 0 {
		c.ttl = ttl
	}
	return c
}

// WithClock replaces the clock used for expiry decisions.
func (c *ReportCache) WithClock(clock contract.Clock) *ReportCache {
	c.clock = clock
	return c
}

// WithLogger sets the structured logger.
func (c *ReportCache) WithLogger(log zerolog.Logger) *ReportCache {
	c.log = log
	return c
}

// TTL returns how long an entry stays live.
func (c *ReportCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached report while it is live and rebuilds it otherwise.
func (c *ReportCache) Get(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	key := CacheKey(projectID)

	report, err := c.lookup(key)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return schema.StatisticsReport{}, err
	}

	report, err = c.builder.Build(ctx, projectID)
	if err != nil {
		return schema.StatisticsReport{}, err
	}
	if err := c.save(key, report); err != nil {
		return schema.StatisticsReport{}, err
	}
	c.log.Debug().Str("project", projectID).Str("key", key).Msg("report cached")
	return report, nil
}

// ForceRefresh builds a new report, then evicts the cached entry and stores
// the new one through a single store Replace. Readers see either the old entry
// or the new one and never trigger a rebuild of their own.
func (c *ReportCache) ForceRefresh(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	key := CacheKey(projectID)

	report, err := c.builder.Build(contract.WithForcedRefresh(ctx), projectID)
	if err != nil {
		return schema.StatisticsReport{}, err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return schema.StatisticsReport{}, fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := c.store.Replace(key, data, reportCacheVersion, c.clock.Now().Unix()); err != nil {
		return schema.StatisticsReport{}, fmt.Errorf("failed to replace cache entry %q: %w", key, err)
	}
	c.log.Info().Str("project", projectID).Str("key", key).Msg("report refreshed")
	return report, nil
}

// lookup returns the live report under key, or ErrCacheMiss.
func (c *ReportCache) lookup(key string) (schema.StatisticsReport, error) {
	data, version, ts, err := c.store.Get(key)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrCacheMiss) {
		c.log.Debug().Str("key", key).Msg("cache miss")
		return schema.StatisticsReport{}, ErrCacheMiss
	}
	if err != nil {
		return schema.StatisticsReport{}, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	if version != reportCacheVersion {
		c.log.Debug().Str("key", key).Int("version", version).Msg("cache entry has an old layout")
		return schema.StatisticsReport{}, ErrCacheMiss
	}
	age := c.clock.Now().Sub(time.Unix(ts, 0))
	if age >= c.ttl {
		c.log.Debug().Str("key", key).Dur("age", age).Msg("cache entry expired")
		return schema.StatisticsReport{}, ErrCacheMiss
	}

	var report schema.StatisticsReport
	if err := json.Unmarshal(data, &report); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return schema.StatisticsReport{}, ErrCacheMiss
	}
	c.log.Debug().Str("key", key).Dur("age", age).Msg("cache hit")
	return report, nil
}

// save serializes report under key with the current timestamp.
func (c *ReportCache) save(key string, report schema.StatisticsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := c.store.Set(key, data, reportCacheVersion, c.clock.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// ReportSession memoizes reports for one unit of work, such as a single CLI
// invocation. Memoized reports never expire and bypass the TTL.
type ReportSession struct {
	accessor contract.ReportAccessor
	mu       sync.Mutex
	reports  map[string]schema.StatisticsReport
}

var _ contract.ReportAccessor = &ReportSession{} // Compile-time check

// NewReportSession starts an empty session over accessor.
func NewReportSession(accessor contract.ReportAccessor) *ReportSession {
	return &ReportSession{accessor: accessor, reports: make(map[string]schema.StatisticsReport)}
}

// Get returns the report memoized in this session, fetching it on first use.
func (s *ReportSession) Get(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	s.mu.Lock()
	report, ok := s.reports[projectID]
	s.mu.Unlock()
	if ok {
		return report, nil
	}

	report, err := s.accessor.Get(ctx, projectID)
	if err != nil {
		return schema.StatisticsReport{}, err
	}
	s.remember(projectID, report)
	return report, nil
}

// ForceRefresh refreshes through the underlying accessor and memoizes the result.
func (s *ReportSession) ForceRefresh(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	report, err := s.accessor.ForceRefresh(ctx, projectID)
	if err != nil {
		return schema.StatisticsReport{}, err
	}
	s.remember(projectID, report)
	return report, nil
}

func (s *ReportSession) remember(projectID string, report schema.StatisticsReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[projectID] = report
}
