package iocache

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

type memoryEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoryCacheStore keeps cache entries in process memory.
type MemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ contract.CacheStore = &MemoryCacheStore{} // Compile-time check

// NewMemoryCacheStore returns an empty in-memory cache store.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]memoryEntry)}
}

// Get retrieves a value by key. Missing keys return ErrCacheMiss.
func (ms *MemoryCacheStore) Get(key string) ([]byte, int, int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	entry, ok := ms.entries[key]
	if !ok {
		return nil, 0, 0, ErrCacheMiss
	}
	return slices.Clone(entry.value), entry.version, entry.timestamp, nil
}

// Set inserts or replaces a key/value pair.
func (ms *MemoryCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[key] = memoryEntry{value: slices.Clone(value), version: version, timestamp: timestamp}
	return nil
}

// Delete removes a key.
func (ms *MemoryCacheStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, key)
	return nil
}

// Replace swaps the entry under key while holding the write lock.
func (ms *MemoryCacheStore) Replace(key string, value []byte, version int, timestamp int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, key)
	ms.entries[key] = memoryEntry{value: slices.Clone(value), version: version, timestamp: timestamp}
	return nil
}

// GetStatus returns status information about the cache store.
func (ms *MemoryCacheStore) GetStatus() (schema.CacheStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	status := schema.CacheStatus{
		Backend:      string(schema.MemoryBackend),
		Connected:    true,
		TotalEntries: len(ms.entries),
	}
	var oldest, last int64
	for _, entry := range ms.entries {
		if last == 0 || entry.timestamp > last {
			last = entry.timestamp
		}
		if oldest == 0 || entry.timestamp < oldest {
			oldest = entry.timestamp
		}
		status.TableSizeBytes += int64(len(entry.value))
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(last, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Close drops every entry.
func (ms *MemoryCacheStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	clear(ms.entries)
	return nil
}

// MemoryHistoryStore keeps report runs in process memory.
type MemoryHistoryStore struct {
	mu    sync.RWMutex
	runs  []schema.ReportRunRecord
	stats []schema.ReportStatRecord
}

var _ contract.HistoryStore = &MemoryHistoryStore{} // Compile-time check

// NewMemoryHistoryStore returns an empty in-memory history store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

// RecordRun stores a computed report and returns its run ID.
func (mh *MemoryHistoryStore) RecordRun(run schema.ReportRun) (int64, error) {
	record, err := newReportRunRecord(run)
	if err != nil {
		return 0, err
	}

	mh.mu.Lock()
	defer mh.mu.Unlock()
	record.RunID = int64(len(mh.runs)) + 1
	mh.runs = append(mh.runs, record)
	mh.stats = append(mh.stats, newReportStatRecords(record.RunID, run.Report)...)
	return record.RunID, nil
}

// GetStatus returns status information about the history store.
func (mh *MemoryHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()

	status := schema.HistoryStatus{
		Backend:   string(schema.MemoryBackend),
		Connected: true,
		TotalRuns: len(mh.runs),
		TableSizes: map[string]int64{
			reportRunsTable:  int64(len(mh.runs)),
			reportStatsTable: int64(len(mh.stats)),
		},
	}
	if len(mh.runs) == 0 {
		return status, nil
	}

	projects := make(map[string]struct{})
	for _, r := range mh.runs {
		projects[r.ProjectID] = struct{}{}
	}
	last := mh.runs[len(mh.runs)-1]
	status.DistinctProjects = len(projects)
	status.LastRunID = last.RunID
	status.LastRunTime = last.ComputedAt
	status.OldestRunTime = mh.runs[0].ComputedAt
	return status, nil
}

// GetAllRuns returns every recorded run ordered by run ID.
func (mh *MemoryHistoryStore) GetAllRuns() ([]schema.ReportRunRecord, error) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	return slices.Clone(mh.runs), nil
}

// GetAllStats returns every recorded stat ordered by run ID and name.
func (mh *MemoryHistoryStore) GetAllStats() ([]schema.ReportStatRecord, error) {
	mh.mu.RLock()
	defer mh.mu.RUnlock()
	return slices.Clone(mh.stats), nil
}

// Close drops every recorded run.
func (mh *MemoryHistoryStore) Close() error {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	mh.runs, mh.stats = nil, nil
	return nil
}

// newReportStatRecords flattens the stats of a report into rows sorted by name.
func newReportStatRecords(runID int64, report schema.StatisticsReport) []schema.ReportStatRecord {
	stats := report.Stats()
	records := make([]schema.ReportStatRecord, 0, len(stats))
	for _, name := range slices.Sorted(maps.Keys(stats)) {
		records = append(records, schema.ReportStatRecord{
			RunID:     runID,
			ProjectID: report.ProjectID(),
			StatName:  name,
			StatValue: stats[name],
		})
	}
	return records
}
