package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/parquet"
)

// ExportHistory writes every recorded run and stat value to Parquet files
// named after outputFile.
func ExportHistory(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no report history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total report runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve report runs: %w", err)
	}
	stats, err := store.GetAllStats()
	if err != nil {
		return fmt.Errorf("failed to retrieve report stats: %w", err)
	}

	runsFile := outputFile + ".report_runs.parquet"
	if err := parquet.WriteReportRunsParquet(parquet.ConvertReportRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write report runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d report runs to: %s\n", len(runs), runsFile)

	statsFile := outputFile + ".report_stats.parquet"
	if err := parquet.WriteReportStatsParquet(parquet.ConvertReportStatRecords(stats), statsFile); err != nil {
		return fmt.Errorf("failed to write report stats: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d stat values to: %s\n", len(stats), statsFile)

	return nil
}
