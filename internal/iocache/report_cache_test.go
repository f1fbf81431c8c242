package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cacheEpoch = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestCache(store contract.CacheStore, builder contract.ReportBuilder) (*ReportCache, *contract.ManualClock) {
	clock := contract.NewManualClock(cacheEpoch)
	return NewReportCache(store, builder).WithClock(clock), clock
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "Project(42).scrum_statistics", CacheKey("42"))
	assert.Equal(t, "Project(web-app).scrum_statistics", CacheKey("web-app"))
}

func TestReportCacheGet(t *testing.T) {
	builder := &sequenceBuilder{}
	cache, clock := newTestCache(NewMemoryCacheStore(), builder)
	ctx := context.Background()

	first, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, generationOf(first))

	clock.Advance(contract.DefaultCacheTTL - time.Second)
	second, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), builder.builds.Load())

	clock.Advance(time.Second)
	third, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, generationOf(third))

	other, err := cache.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", other.ProjectID())
	assert.Equal(t, int64(3), builder.builds.Load())
	assert.Zero(t, builder.forced.Load())
}

func TestReportCacheCustomTTL(t *testing.T) {
	builder := &sequenceBuilder{}
	cache, clock := newTestCache(NewMemoryCacheStore(), builder)
	cache.WithTTL(time.Minute).WithTTL(0)
	assert.Equal(t, time.Minute, cache.TTL())

	_, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), builder.builds.Load())
}

func TestReportCacheDiscardsUnusableEntries(t *testing.T) {
	current, err := json.Marshal(sampleReport("p1", 99))
	require.NoError(t, err)

	tests := []struct {
		name    string
		value   []byte
		version int
	}{
		{"old layout", current, reportCacheVersion + 1},
		{"unreadable", []byte("{not json"), reportCacheVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryCacheStore()
			require.NoError(t, store.Set(CacheKey("p1"), tt.value, tt.version, cacheEpoch.Unix()))
			cache, _ := newTestCache(store, &sequenceBuilder{})

			report, err := cache.Get(context.Background(), "p1")
			require.NoError(t, err)
			assert.Equal(t, 1.0, generationOf(report))

			_, version, _, err := store.Get(CacheKey("p1"))
			require.NoError(t, err)
			assert.Equal(t, reportCacheVersion, version)
		})
	}
}

func TestReportCacheStoreErrors(t *testing.T) {
	key := CacheKey("p1")

	t.Run("no rows is a miss", func(t *testing.T) {
		store := &MockCacheStore{}
		store.On("Get", key).Return(nil, 0, int64(0), sql.ErrNoRows)
		store.On("Set", key, mock.Anything, reportCacheVersion, cacheEpoch.Unix()).Return(nil)
		cache, _ := newTestCache(store, &sequenceBuilder{})

		_, err := cache.Get(context.Background(), "p1")
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("read failure surfaces", func(t *testing.T) {
		boom := errors.New("connection refused")
		store := &MockCacheStore{}
		store.On("Get", key).Return(nil, 0, int64(0), boom)
		builder := &sequenceBuilder{}
		cache, _ := newTestCache(store, builder)

		_, err := cache.Get(context.Background(), "p1")
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, builder.builds.Load())
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		boom := errors.New("read-only")
		store := &MockCacheStore{}
		store.On("Get", key).Return(nil, 0, int64(0), ErrCacheMiss)
		store.On("Set", key, mock.Anything, reportCacheVersion, mock.Anything).Return(boom)
		cache, _ := newTestCache(store, &sequenceBuilder{})

		report, err := cache.Get(context.Background(), "p1")
		assert.ErrorIs(t, err, boom)
		assert.True(t, report.IsZero())
	})

	t.Run("build failure is not cached", func(t *testing.T) {
		boom := errors.New("project not found")
		store := NewMemoryCacheStore()
		cache, _ := newTestCache(store, &sequenceBuilder{err: boom})

		_, err := cache.Get(context.Background(), "p1")
		assert.ErrorIs(t, err, boom)
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Zero(t, status.TotalEntries)
	})
}

func TestReportCacheForceRefresh(t *testing.T) {
	builder := &sequenceBuilder{}
	store := NewMemoryCacheStore()
	cache, _ := newTestCache(store, builder)
	ctx := context.Background()

	before, err := cache.Get(ctx, "p1")
	require.NoError(t, err)

	refreshed, err := cache.ForceRefresh(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, generationOf(before)+1, generationOf(refreshed))
	assert.Equal(t, int64(1), builder.forced.Load())

	after, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, refreshed, after)
}

func TestReportCacheForceRefreshOrder(t *testing.T) {
	key := CacheKey("p1")
	var calls []string
	store := &MockCacheStore{}
	store.On("Replace", key, mock.Anything, reportCacheVersion, cacheEpoch.Unix()).Run(func(mock.Arguments) { calls = append(calls, "replace") }).Return(nil)

	builder := &contract.MockReportBuilder{}
	builder.On("Build", mock.Anything, "p1").Run(func(mock.Arguments) { calls = append(calls, "build") }).Return(sampleReport("p1", 1), nil)

	cache, _ := newTestCache(store, builder)
	_, err := cache.ForceRefresh(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "replace"}, calls)
	store.AssertNotCalled(t, "Delete", key)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	failing := &MockCacheStore{}
	failing.On("Replace", key, mock.Anything, reportCacheVersion, cacheEpoch.Unix()).Return(errors.New("disk full"))
	cache, _ = newTestCache(failing, builder)
	_, err = cache.ForceRefresh(context.Background(), "p1")
	assert.ErrorContains(t, err, "failed to replace cache entry")
}

// replaceObserver reads through the cache just before and just after the
// store swaps the entry.
type replaceObserver struct {
	*MemoryCacheStore
	cache  *ReportCache
	before schema.StatisticsReport
	after  schema.StatisticsReport
	errs   []error
}

func (o *replaceObserver) Replace(key string, value []byte, version int, ts int64) error {
	var err error
	o.before, err = o.cache.Get(context.Background(), "p1")
	o.errs = append(o.errs, err)
	if err := o.MemoryCacheStore.Replace(key, value, version, ts); err != nil {
		return err
	}
	o.after, err = o.cache.Get(context.Background(), "p1")
	o.errs = append(o.errs, err)
	return nil
}

func TestReportCacheForceRefreshReadersDoNotRebuild(t *testing.T) {
	builder := &sequenceBuilder{}
	observer := &replaceObserver{MemoryCacheStore: NewMemoryCacheStore()}
	cache, _ := newTestCache(observer, builder)
	observer.cache = cache
	ctx := context.Background()

	pre, err := cache.Get(ctx, "p1")
	require.NoError(t, err)

	post, err := cache.ForceRefresh(ctx, "p1")
	require.NoError(t, err)

	for _, err := range observer.errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, pre, observer.before)
	assert.Equal(t, post, observer.after)
	assert.Equal(t, int64(2), builder.builds.Load())
	assert.Equal(t, int64(1), builder.forced.Load())
}

func TestReportCacheForceRefreshKeepsEntryOnBuildFailure(t *testing.T) {
	store := NewMemoryCacheStore()
	builder := &sequenceBuilder{}
	cache, _ := newTestCache(store, builder)

	before, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)

	builder.err = errors.New("source offline")
	_, err = cache.ForceRefresh(context.Background(), "p1")
	assert.Error(t, err)

	builder.err = nil
	after, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReportCacheConcurrentRefresh(t *testing.T) {
	builder := &sequenceBuilder{}
	cache, _ := newTestCache(NewMemoryCacheStore(), builder)
	ctx := context.Background()

	_, err := cache.Get(ctx, "p1")
	require.NoError(t, err)

	const readers = 16
	const refreshes = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers*10+refreshes)

	for range refreshes {
		wg.Go(func() {
			if _, err := cache.ForceRefresh(ctx, "p1"); err != nil {
				errs <- err
			}
		})
	}
	for range readers {
		wg.Go(func() {
			for range 10 {
				report, err := cache.Get(ctx, "p1")
				if err != nil {
					errs <- err
					continue
				}
				if report.IsZero() || report.ProjectID() != "p1" || generationOf(report) < 1 {
					errs <- errors.New("reader saw an empty report")
				}
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(refreshes), builder.forced.Load())
	// Only the first Get and the refreshes build; readers never fall into a gap
	assert.Equal(t, int64(1+refreshes), builder.builds.Load())
}

func TestReportSession(t *testing.T) {
	builder := &sequenceBuilder{}
	cache, clock := newTestCache(NewMemoryCacheStore(), builder)
	session := NewReportSession(cache)
	ctx := context.Background()

	first, err := session.Get(ctx, "p1")
	require.NoError(t, err)

	// Memoized reports outlive the cache TTL
	clock.Advance(2 * contract.DefaultCacheTTL)
	again, err := session.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, int64(1), builder.builds.Load())

	refreshed, err := session.ForceRefresh(ctx, "p1")
	require.NoError(t, err)
	memo, err := session.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, refreshed, memo)
	assert.NotEqual(t, first, memo)

	builder.err = errors.New("boom")
	_, err = session.Get(ctx, "p2")
	assert.Error(t, err)
}

func TestReportCacheRoundTripsReport(t *testing.T) {
	cache, _ := newTestCache(NewMemoryCacheStore(), &sequenceBuilder{})

	built, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)
	cached, err := cache.Get(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, built.Succeeded(), cached.Succeeded())
	assert.Equal(t, built.Failed(), cached.Failed())
	assert.Equal(t, built.Stats(), cached.Stats())
	assert.Equal(t, built.Score(), cached.Score())
	ppd, ok := cached.PointsPerDay()
	assert.True(t, ok)
	assert.Equal(t, 1.5, ppd)
	assert.Equal(t, built, cached)
}
