package schema

import "time"

// ReportRun is one computation of a report, as handed to the history store.
type ReportRun struct {
	ProjectID  string
	ComputedAt time.Time
	Duration   time.Duration
	Forced     bool
	Report     StatisticsReport
}

// ReportRunRecord represents a row from the sprinthealth_report_runs table.
type ReportRunRecord struct {
	RunID          int64
	ProjectID      string
	ComputedAt     time.Time
	DurationMs     int32
	Score          int32
	SucceededCount int32
	FailedCount    int32
	Forced         bool
	ReportJSON     string
}

// ReportStatRecord represents a row from the sprinthealth_report_stats table.
type ReportStatRecord struct {
	RunID     int64
	ProjectID string
	StatName  string
	StatValue float64
}
