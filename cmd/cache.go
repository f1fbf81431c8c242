package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/sprinthealth/core"
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/iocache"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: status and clear use minimal initialization (cacheSetup) instead of
// the full sharedSetup, so they work without a reachable data source.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the report cache",
	Long: `Manage the cache of computed health reports.

Reports are stored under Project(<id>).scrum_statistics and served until they
are --cache-ttl old (4h by default).

Supported backends: SQLite (default), MySQL, PostgreSQL, Memory, or None

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached reports
  warm   - Recompute reports and store them

Examples:
  # Check cache status
  sprinthealth cache status

  # Refresh every project of a fixture before a planning meeting
  sprinthealth cache warm --source-connect projects.yaml`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached reports",
	Long: `Delete all cached reports from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  sprinthealth cache clear

  # Clear MySQL cache (set connection string via env variable)
  SPRINTHEALTH_CACHE_BACKEND=mysql SPRINTHEALTH_CACHE_DB_CONNECT="..." sprinthealth cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the handle opened by cacheSetup before dropping the data
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the report cache.

Displays:
- Backend type and connection status
- Total number of cached reports
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  sprinthealth cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetCacheStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheWarmCmd refreshes reports concurrently.
var cacheWarmCmd = &cobra.Command{
	Use:   "warm [project-id]...",
	Short: "Recompute and cache reports for many projects",
	Long: `Force-refresh the cached report of each given project, or of every project
the data source knows when none are given. Up to --workers refreshes run at once;
a failing project does not stop the others.

Examples:
  sprinthealth cache warm web mobile
  sprinthealth cache warm --source-connect projects.yaml --workers 4`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		eng, err := newEngine(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot open project data", err)
		}
		defer eng.Close()

		ids, err := eng.projectIDs(rootCtx, args)
		if err != nil {
			contract.LogFatal("Cannot list projects", err)
		}
		results := core.WarmReports(rootCtx, eng.cache, ids, cfg.Workers)
		if failed := printWarmResults(os.Stdout, results); failed > 0 {
			contract.LogFatal("Cannot warm cache", fmt.Errorf("%d of %d projects failed", failed, len(results)))
		}
	},
}

// printWarmResults writes one line per project and returns how many failed.
func printWarmResults(w io.Writer, results []core.WarmResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "❌ %s: %v\n", r.ProjectID, r.Err)
			continue
		}
		score := r.Report.Score()
		_, _ = fmt.Fprintf(w, "✅ %s: score %d (%s)\n", r.ProjectID, score, contract.GetPlainLabel(score))
	}
	_, _ = fmt.Fprintf(w, "Warmed %d of %d project(s).\n", len(results)-failed, len(results))
	return failed
}
