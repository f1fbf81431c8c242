package iocache

import (
	"bytes"
	"testing"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrintCacheStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   schema.CacheStatus
		contains []string
		excludes []string
	}{
		{
			name:     "disconnected",
			status:   schema.CacheStatus{Backend: "none"},
			contains: []string{"Cache Backend: none", "Connected: false"},
			excludes: []string{"Total Entries"},
		},
		{
			name:     "empty",
			status:   schema.CacheStatus{Backend: "sqlite", Connected: true, TableSizeBytes: 4096},
			contains: []string{"Total Entries: 0", "Table Size: 4096 bytes"},
			excludes: []string{"Last Entry"},
		},
		{
			name: "populated",
			status: schema.CacheStatus{
				Backend: "memory", Connected: true, TotalEntries: 3,
				LastEntryTime:   time.Date(2024, 6, 15, 10, 0, 0, 0, time.Local),
				OldestEntryTime: time.Date(2024, 6, 14, 8, 30, 0, 0, time.Local),
			},
			contains: []string{"Total Entries: 3", "Last Entry: 2024-06-15 10:00:00", "Oldest Entry: 2024-06-14 08:30:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintCacheStatus(&buf, tt.status)
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:          "sqlite",
		Connected:        true,
		TotalRuns:        4,
		DistinctProjects: 2,
		LastRunID:        4,
		LastRunTime:      time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		OldestRunTime:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		TableSizes:       map[string]int64{reportStatsTable: 20, reportRunsTable: 4},
	})

	out := buf.String()
	assert.Contains(t, out, "Total Runs: 4")
	assert.Contains(t, out, "Projects: 2")
	assert.Contains(t, out, "Last Run ID: 4")
	assert.Contains(t, out, "Oldest Run: 2024-06-01 10:00:00")
	assert.Less(t,
		bytes.Index(buf.Bytes(), []byte(reportRunsTable)),
		bytes.Index(buf.Bytes(), []byte(reportStatsTable)))
	assert.Contains(t, out, "sprinthealth_report_stats: 20 rows")
}
