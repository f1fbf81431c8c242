package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/sprinthealth/schema"
)

// Default values for configuration.
const (
	DefaultCacheTTL  = 4 * time.Hour
	DefaultPrecision = 1
	MaxPastCycles    = 50
	MaxBacklogLimit  = 500
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateFormat is the representation of calendar dates in flags and fixtures.
const DateFormat = time.DateOnly

// Config holds the runtime configuration for report computation.
// This struct remains the "final, validated" config.
type Config struct {
	Source        schema.SourceKind
	SourceConnect string // Fixture path or PostgreSQL DSN

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	PastCycles    int
	BacklogLimit  int
	DisabledRules []string
	RulesFile     string
	Today         time.Time // Zero means "use the clock"

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Workers    int

	LogLevel  string
	LogFormat string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	SourceConnect    string `mapstructure:"source-connect"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	PastCycles       int    `mapstructure:"past-cycles"`
	BacklogLimit     int    `mapstructure:"backlog-limit"`
	DisabledRules    string `mapstructure:"disabled-rules"`
	RulesFile        string `mapstructure:"rules-file"`
	Today            string `mapstructure:"today"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Workers          int    `mapstructure:"workers"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.DisabledRules = slices.Clone(c.DisabledRules)
	return &clone
}

// ReferenceDate returns the configured "today", falling back to the clock.
func (c *Config) ReferenceDate(clock Clock) time.Time {
	if !c.Today.IsZero() {
		return c.Today
	}
	return clock.Now()
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateSourceConfig(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processReportWindow(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		return validatePostgresConnectionString(connStr)
	}
	return nil
}

// validatePostgresConnectionString accepts both keyword/value and URL forms.
func validatePostgresConnectionString(connStr string) error {
	if connStr == "" {
		return fmt.Errorf("a connection string is required when using %s backend", schema.PostgreSQLBackend)
	}
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		return nil
	}
	if !strings.Contains(connStr, "host=") {
		return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
	}
	if !strings.Contains(connStr, "dbname=") {
		return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
	}
	return nil
}

// validateSourceConfig validates where project data is read from.
func validateSourceConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if cfg.Source == "" {
		cfg.Source = schema.FixtureSource
	}
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be fixture, postgresql", input.Source)
	}
	cfg.SourceConnect = strings.TrimSpace(input.SourceConnect)

	switch cfg.Source {
	case schema.FixtureSource:
		if cfg.SourceConnect == "" {
			return fmt.Errorf("source-connect must point to a fixture file when using %s source", cfg.Source)
		}
	case schema.PostgreSQLSource:
		if err := validatePostgresConnectionString(cfg.SourceConnect); err != nil {
			return fmt.Errorf("invalid source-connect: %w", err)
		}
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, memory, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("invalid cache-db-connect: %w", err)
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl '%s': %w", input.CacheTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache-ttl must be positive (received %s)", ttl)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, memory, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("invalid history-db-connect: %w", err)
	}

	// Cache and history tables live in different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.RulesFile = strings.TrimSpace(input.RulesFile)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, prometheus", input.Output)
	}

	cfg.LogLevel = input.LogLevel
	cfg.LogFormat = input.LogFormat
	return nil
}

// processReportWindow handles the limits and reference date of a report.
func processReportWindow(cfg *Config, input *ConfigRawInput) error {
	if input.PastCycles <= 0 || input.PastCycles > MaxPastCycles {
		return fmt.Errorf("past-cycles must be greater than 0 and cannot exceed %d (received %d)", MaxPastCycles, input.PastCycles)
	}
	cfg.PastCycles = input.PastCycles

	if input.BacklogLimit <= 0 || input.BacklogLimit > MaxBacklogLimit {
		return fmt.Errorf("backlog-limit must be greater than 0 and cannot exceed %d (received %d)", MaxBacklogLimit, input.BacklogLimit)
	}
	cfg.BacklogLimit = input.BacklogLimit

	cfg.DisabledRules = ParseNameList(input.DisabledRules)

	cfg.Today = time.Time{}
	if input.Today != "" {
		t, err := time.Parse(DateFormat, input.Today)
		if err != nil {
			return fmt.Errorf("invalid today '%s'. expected %s: %w", input.Today, DateFormat, err)
		}
		cfg.Today = t
	}
	return nil
}

// ParseNameList splits a comma-separated list, trimming blanks and dropping duplicates.
func ParseNameList(s string) []string {
	var names []string
	for part := range strings.SplitSeq(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}
