package cmd

import (
	"time"

	"github.com/huangsam/sprinthealth/core/algo"
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// reportCmd prints the health report of one or more projects.
var reportCmd = &cobra.Command{
	Use:   "report <project-id>...",
	Short: "Show the sprint health report of projects.",
	Long: `Compute or fetch from cache the health report of each given project.

A report lists the diagnostics that passed and failed, the numeric stats
(sprints, velocity, velocity_stddev, sizing_stddev, hours_per_point) and an
overall score from 0 to 100. Reports are cached for --cache-ttl (4h by default);
--force recomputes them and replaces the cached entries.

Examples:
  # Report from a fixture file
  sprinthealth report web --source-connect projects.yaml

  # Recompute against PostgreSQL and export JSON
  SPRINTHEALTH_SOURCE=postgresql SPRINTHEALTH_SOURCE_CONNECT="postgres://..." \
    sprinthealth report web mobile --force --output json

  # Show the three least healthy projects first
  sprinthealth report web mobile api legacy --rank --limit 3

  # Skip a diagnostic for this run
  sprinthealth report web --disabled-rules sprint_notes_available`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		eng, err := newEngine(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot open project data", err)
		}
		defer eng.Close()

		start := time.Now()
		reports, err := eng.reports(rootCtx, args, viper.GetBool("force"))
		if err != nil {
			contract.LogFatal("Cannot compute report", err)
		}
		if viper.GetBool("rank") {
			reports = algo.RankReports(reports, viper.GetInt("limit"))
		}
		if err := outwriter.NewOutWriter().WriteReports(reports, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write report", err)
		}
	},
}

// rulesCmd lists the diagnostics and stats a report evaluates.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List available diagnostics and stats with their disabled state.",
	Long: `Show every diagnostic and stat a report evaluates.

Diagnostics can be switched off with --disabled-rules or a --rules-file;
disabled diagnostics are neither passed nor failed and do not count toward
the score. Stats are always computed.

Examples:
  sprinthealth rules --source-connect projects.yaml
  sprinthealth rules --rules-file rules.yaml --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		eng, err := newEngine(rootCtx)
		if err != nil {
			contract.LogFatal("Cannot open project data", err)
		}
		defer eng.Close()

		if err := outwriter.NewOutWriter().WriteRules(eng.builder.Rules(), cfg); err != nil {
			contract.LogFatal("Cannot write rules", err)
		}
	},
}
