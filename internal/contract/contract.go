// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/sprinthealth/schema"
)

// ErrProjectNotFound is returned by data sources that do not know the requested project.
var ErrProjectNotFound = errors.New("project not found")

// ProjectProvider resolves the identity and status of a project.
type ProjectProvider interface {
	// Project returns the project with the given ID, or ErrProjectNotFound.
	Project(ctx context.Context, projectID string) (schema.Project, error)
}

// CycleProvider retrieves cycles relative to a reference date.
type CycleProvider interface {
	// ActiveCycle returns the single open cycle whose [start, end] bounds today, or nil.
	ActiveCycle(ctx context.Context, projectID string, today time.Time) (*schema.Cycle, error)

	// PastCycles returns up to limit cycles with both dates set and an end date
	// before today, ordered by end date descending.
	PastCycles(ctx context.Context, projectID string, today time.Time, limit int) ([]schema.Cycle, error)
}

// ProgressProvider retrieves burndown series. The boolean result is false
// when nothing was recorded for the cycle or item.
type ProgressProvider interface {
	CycleProgress(ctx context.Context, cycle schema.Cycle) (schema.ProgressSeries, bool, error)
	ItemProgress(ctx context.Context, item schema.BacklogItem) (schema.ProgressSeries, bool, error)
}

// BacklogProvider retrieves backlog items.
type BacklogProvider interface {
	// ProductBacklog returns the top limit unassigned stories in priority order.
	ProductBacklog(ctx context.Context, projectID string, limit int) ([]schema.BacklogItem, error)

	// CycleItems returns every story and task assigned to one of the given cycles.
	CycleItems(ctx context.Context, cycleIDs []int64) ([]schema.BacklogItem, error)
}

// DataSource bundles every provider the report pipeline reads from.
type DataSource interface {
	ProjectProvider
	CycleProvider
	ProgressProvider
	BacklogProvider
	Close() error
}

// ProjectLister is implemented by data sources that can enumerate their projects.
type ProjectLister interface {
	ProjectIDs(ctx context.Context) ([]string, error)
}

// RuleConfig answers whether a rule was administratively disabled.
// Unknown names are simply not disabled.
type RuleConfig interface {
	IsDisabled(name string) bool
}

// ReportBuilder computes a fresh report for a project.
type ReportBuilder interface {
	Build(ctx context.Context, projectID string) (schema.StatisticsReport, error)
}

// ReportAccessor is the outward surface for reading and refreshing reports.
type ReportAccessor interface {
	// Get returns the cached report when it is still live, computing it otherwise.
	Get(ctx context.Context, projectID string) (schema.StatisticsReport, error)

	// ForceRefresh computes a new report and replaces the cached one.
	ForceRefresh(ctx context.Context, projectID string) (schema.StatisticsReport, error)
}

// StoreManager defines the interface for managing persistent stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetCacheStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	// Replace evicts any entry under key and stores the new value as one step.
	// Concurrent readers see the old entry or the new one, never a miss.
	Replace(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording every report computation.
type HistoryStore interface {
	// RecordRun stores a computed report and returns its run ID
	RecordRun(run schema.ReportRun) (int64, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by run ID
	GetAllRuns() ([]schema.ReportRunRecord, error)

	// GetAllStats returns every recorded stat value ordered by run ID and name
	GetAllStats() ([]schema.ReportStatRecord, error)

	// Close closes the underlying connection
	Close() error
}

// Clock is the time source used for cache expiry decisions.
type Clock interface {
	Now() time.Time
}
