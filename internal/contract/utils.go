package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Health label constants.
const (
	HealthyValue  = "Healthy"  // Healthy value
	FairValue     = "Fair"     // Fair value
	AtRiskValue   = "At Risk"  // At-risk value
	CriticalValue = "Critical" // Critical value
)

// Color variables for console output.
var (
	HealthyColor  = color.New(color.FgGreen, color.Bold)   // HealthyColor represents a clean bill of health.
	FairColor     = color.New(color.FgCyan)                // FairColor represents minor issues.
	AtRiskColor   = color.New(color.FgYellow)              // AtRiskColor represents standard caution, not bold.
	CriticalColor = color.New(color.FgRed, color.Bold)     // CriticalColor represents standard danger.
	PassColor     = color.New(color.FgGreen)               // PassColor marks a passing diagnostic.
	FailColor     = color.New(color.FgRed)                 // FailColor marks a failing diagnostic.
	HeaderColor   = color.New(color.FgHiWhite, color.Bold) // HeaderColor marks section titles.
)

// GetPlainLabel returns a plain text label for a health score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score int) string {
	switch {
	case score >= 80:
		return HealthyValue
	case score >= 60:
		return FairValue
	case score >= 40:
		return AtRiskValue
	default:
		return CriticalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(score int) string {
	text := GetPlainLabel(score)

	switch text {
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case AtRiskValue:
		return AtRiskColor.Sprint(text)
	default: // "Critical"
		return CriticalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".sprinthealth_cache.db"
	}
	return filepath.Join(homeDir, ".sprinthealth_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".sprinthealth_history.db"
	}
	return filepath.Join(homeDir, ".sprinthealth_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
