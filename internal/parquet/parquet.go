// Package parquet exports report history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun is one computed report. It maps to the sprinthealth_report_runs table.
type ReportRun struct {
	RunID          int64     `parquet:"run_id,snappy"`
	ProjectID      string    `parquet:"project_id,snappy,dict"`
	ComputedAt     time.Time `parquet:"computed_at,snappy"`
	DurationMs     int32     `parquet:"duration_ms,snappy"`
	Score          int32     `parquet:"score,snappy"`
	SucceededCount int32     `parquet:"succeeded_count,snappy"`
	FailedCount    int32     `parquet:"failed_count,snappy"`
	Forced         bool      `parquet:"forced"`

	// ReportJSON is the full serialized report
	ReportJSON string `parquet:"report_json,snappy"`
}

// ReportStat is one stat value of a run. It maps to the sprinthealth_report_stats table.
type ReportStat struct {
	RunID     int64   `parquet:"run_id,snappy"`
	ProjectID string  `parquet:"project_id,snappy,dict"`
	StatName  string  `parquet:"stat_name,snappy,dict"`
	StatValue float64 `parquet:"stat_value,snappy"`
}

// WriteReportRunsParquet writes report runs to a Parquet file.
func WriteReportRunsParquet(data []ReportRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteReportStatsParquet writes stat values to a Parquet file.
func WriteReportStatsParquet(data []ReportStat, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertReportRunRecords converts schema.ReportRunRecord to ReportRun for Parquet export.
func ConvertReportRunRecords(records []schema.ReportRunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, record := range records {
		result[i] = ReportRun{
			RunID:          record.RunID,
			ProjectID:      record.ProjectID,
			ComputedAt:     record.ComputedAt,
			DurationMs:     record.DurationMs,
			Score:          record.Score,
			SucceededCount: record.SucceededCount,
			FailedCount:    record.FailedCount,
			Forced:         record.Forced,
			ReportJSON:     record.ReportJSON,
		}
	}
	return result
}

// ConvertReportStatRecords converts schema.ReportStatRecord to ReportStat for Parquet export.
func ConvertReportStatRecords(records []schema.ReportStatRecord) []ReportStat {
	result := make([]ReportStat, len(records))
	for i, record := range records {
		result[i] = ReportStat{
			RunID:     record.RunID,
			ProjectID: record.ProjectID,
			StatName:  record.StatName,
			StatValue: record.StatValue,
		}
	}
	return result
}
