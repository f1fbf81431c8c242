package cmd

import (
	"runtime"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/iocache"
	"github.com/spf13/cobra"
)

// versionCmd prints build details and the report format this binary reads and writes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sprinthealth.",
	Long: `Display build details of the binary.

Besides the release and commit, the output names the cached report format
version. Cached reports written with another format are recomputed on read.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("sprinthealth %s (%s, built %s)\n", version, commit, date)
		cmd.Printf("  Go runtime:     %s\n", runtime.Version())
		cmd.Printf("  Report format:  v%d\n", iocache.ReportFormatVersion())
		cmd.Printf("  Default TTL:    %s\n", contract.DefaultCacheTTL)
	},
}
