package iocache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*HistoryStoreImpl)
	require.True(t, ok)
	return impl
}

func TestHistoryStoreRecordRun(t *testing.T) {
	store := newSQLiteHistoryStore(t)
	at := time.Date(2024, 6, 15, 9, 30, 0, 123456789, time.UTC)

	id, err := store.RecordRun(schema.ReportRun{
		ProjectID:  "p1",
		ComputedAt: at,
		Duration:   42 * time.Millisecond,
		Report:     sampleReport("p1", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = store.RecordRun(schema.ReportRun{
		ProjectID:  "p1",
		ComputedAt: at.Add(time.Minute),
		Forced:     true,
		Report:     sampleReport("p1", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, int64(1), first.RunID)
	assert.Equal(t, "p1", first.ProjectID)
	assert.Equal(t, at.Truncate(time.Millisecond), first.ComputedAt)
	assert.Equal(t, int32(42), first.DurationMs)
	assert.Equal(t, int32(66), first.Score)
	assert.Equal(t, int32(2), first.SucceededCount)
	assert.Equal(t, int32(1), first.FailedCount)
	assert.False(t, first.Forced)
	assert.True(t, runs[1].Forced)

	var report schema.StatisticsReport
	require.NoError(t, json.Unmarshal([]byte(first.ReportJSON), &report))
	assert.Equal(t, sampleReport("p1", 1), report)

	stats, err := store.GetAllStats()
	require.NoError(t, err)
	require.Len(t, stats, 4)
	assert.Equal(t, []schema.ReportStatRecord{
		{RunID: 1, ProjectID: "p1", StatName: "generation", StatValue: 1},
		{RunID: 1, ProjectID: "p1", StatName: "sprints", StatValue: 2},
		{RunID: 2, ProjectID: "p1", StatName: "generation", StatValue: 2},
		{RunID: 2, ProjectID: "p1", StatName: "sprints", StatValue: 2},
	}, stats)
}

func TestHistoryStoreStatus(t *testing.T) {
	store := newSQLiteHistoryStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)
	assert.Equal(t, map[string]int64{reportRunsTable: 0, reportStatsTable: 0}, status.TableSizes)

	at := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	for i, project := range []string{"p1", "p2", "p1"} {
		_, err := store.RecordRun(schema.ReportRun{
			ProjectID:  project,
			ComputedAt: at.Add(time.Duration(i) * time.Hour),
			Report:     schema.NewStatisticsReport(project, nil, nil, map[string]float64{"sprints": 1}, 100, nil),
		})
		require.NoError(t, err)
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, 2, status.DistinctProjects)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.Equal(t, at.Add(2*time.Hour), status.LastRunTime)
	assert.Equal(t, at, status.OldestRunTime)
	assert.Equal(t, map[string]int64{reportRunsTable: 3, reportStatsTable: 3}, status.TableSizes)
}

func TestHistoryStoreNone(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.RecordRun(schema.ReportRun{ProjectID: "p1", Report: sampleReport("p1", 1)})
	require.NoError(t, err)
	assert.Zero(t, id)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
	stats, err := store.GetAllStats()
	require.NoError(t, err)
	assert.Empty(t, stats)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStoreBackends(t *testing.T) {
	store, err := NewHistoryStore(schema.MemoryBackend, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryHistoryStore{}, store)

	_, err = NewHistoryStore(schema.DatabaseBackend("mongo"), "")
	assert.Error(t, err)
}
