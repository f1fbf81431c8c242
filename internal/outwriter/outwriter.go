// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReports prints health reports using the configured output format.
func (ow *OutWriter) WriteReports(reports []schema.StatisticsReport, cfg *contract.Config, duration time.Duration) error {
	return WriteReportResults(reports, cfg, duration)
}

// WriteRules prints the registered diagnostics and stats using the configured output format.
func (ow *OutWriter) WriteRules(infos []schema.RuleInfo, cfg *contract.Config) error {
	return WriteRuleResults(infos, cfg)
}

// GetMaxTableNameWidth calculates the maximum width for rule and stat names
// in table output based on terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Result column plus borders, separators and padding
	available := termWidth - 30
	if available < 20 {
		return 20
	}
	if available > 60 {
		return 60
	}
	return available
}

// truncateName shortens name to width runes, marking the cut with an ellipsis.
func truncateName(name string, width int) string {
	runes := []rune(name)
	if width <= 3 || len(runes) <= width {
		return name
	}
	return string(runes[:width-3]) + "..."
}
