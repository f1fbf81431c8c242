package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistory(t *testing.T) {
	store := NewMemoryHistoryStore()
	for i, project := range []string{"p1", "p2"} {
		_, err := store.RecordRun(schema.ReportRun{
			ProjectID:  project,
			ComputedAt: time.Date(2024, 6, 15, 9, i, 0, 0, time.UTC),
			Report:     sampleReport(project, float64(i+1)),
		})
		require.NoError(t, err)
	}

	base := filepath.Join(t.TempDir(), "history")
	var out bytes.Buffer
	require.NoError(t, ExportHistory(store, base, &out))

	assert.Contains(t, out.String(), "Exporting data from memory backend")
	assert.Contains(t, out.String(), "Exported 2 report runs")
	assert.Contains(t, out.String(), "Exported 4 stat values")
	for _, suffix := range []string{".report_runs.parquet", ".report_stats.parquet"} {
		info, err := os.Stat(base + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestExportHistoryErrors(t *testing.T) {
	failing := &MockHistoryStore{}
	failing.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("disk gone"))

	broken := &MockHistoryStore{}
	broken.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", TotalRuns: 1}, nil)
	broken.On("GetAllRuns").Return(nil, errors.New("query failed"))

	tests := []struct {
		name    string
		store   *MockHistoryStore
		output  string
		wantErr string
	}{
		{"missing output", &MockHistoryStore{}, "", "--output-file is required"},
		{"status failure", failing, "out", "failed to get history status"},
		{"empty history", nil, "out", "no report history"},
		{"runs failure", broken, "out", "failed to retrieve report runs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.output
			if output != "" {
				output = filepath.Join(t.TempDir(), output)
			}
			var err error
			if tt.store == nil {
				err = ExportHistory(NewMemoryHistoryStore(), output, &bytes.Buffer{})
			} else {
				err = ExportHistory(tt.store, output, &bytes.Buffer{})
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	assert.ErrorContains(t, ExportHistory(nil, "out", &bytes.Buffer{}), "not initialized")
}
