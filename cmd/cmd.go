// Package cmd defines the command-line interface for sprinthealth.
package cmd

import (
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheWarmCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", string(schema.FixtureSource), "Project data source: fixture or postgresql")
	rootCmd.PersistentFlags().String("source-connect", "", "Fixture file path or PostgreSQL connection string of the data source")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or memory or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long a cached report stays fresh")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Report history backend: sqlite or mysql or postgresql or memory or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for report history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().Int("past-cycles", schema.DefaultPastCycles, "Number of finished cycles a report looks at")
	rootCmd.PersistentFlags().Int("backlog-limit", schema.DefaultBacklogLimit, "Number of top product backlog stories a report looks at")
	rootCmd.PersistentFlags().String("disabled-rules", "", "Comma-separated list of diagnostics to skip")
	rootCmd.PersistentFlags().String("rules-file", "", "YAML file listing disabled diagnostics (reloaded on change)")
	rootCmd.PersistentFlags().String("today", "", "Reference date in YYYY-MM-DD (defaults to the current date)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or prometheus")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.ConsoleLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().Bool("force", false, "Recompute reports instead of serving them from cache")
	reportCmd.Flags().Bool("rank", false, "Order reports from least to most healthy")
	reportCmd.Flags().Int("limit", 0, "With --rank, keep only the N least healthy reports (0 keeps all)")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
