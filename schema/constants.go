package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// SourceKind represents where cycle and backlog data is read from.
	SourceKind string

	// CycleStatus represents the lifecycle state of a sprint.
	CycleStatus string

	// ItemKind represents the tracker classification of a backlog item.
	ItemKind string

	// ProjectStatus represents whether a project is still being worked on.
	ProjectStatus string

	// Outcome represents the tri-state result of a diagnostic rule.
	Outcome string
)

// All output modes supported.
const (
	TextOut       OutputMode = "text" // default
	JSONOut       OutputMode = "json"
	CSVOut        OutputMode = "csv"
	PrometheusOut OutputMode = "prometheus"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
	NoneBackend       DatabaseBackend = "none"
)

// All data sources supported.
const (
	FixtureSource    SourceKind = "fixture" // default
	PostgreSQLSource SourceKind = "postgresql"
)

// All sprint states.
const (
	CycleOpen   CycleStatus = "open"
	CycleLocked CycleStatus = "locked"
	CycleClosed CycleStatus = "closed"
)

// All backlog item kinds.
const (
	StoryItem ItemKind = "story"
	TaskItem  ItemKind = "task"
)

// Project states. Anything other than active counts as inactive.
const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
	ProjectClosed   ProjectStatus = "closed"
)

// All diagnostic outcomes.
const (
	Pass          Outcome = "pass"
	Fail          Outcome = "fail"
	NotApplicable Outcome = "not_applicable"
)

// Defaults shared by the CLI, the cache and the pipeline.
const (
	DefaultPastCycles   = 5
	DefaultBacklogLimit = 10
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:       {},
	JSONOut:       {},
	CSVOut:        {},
	PrometheusOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
	NoneBackend:       {},
}

// ValidSourceKinds lists all valid data sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	FixtureSource:    {},
	PostgreSQLSource: {},
}
