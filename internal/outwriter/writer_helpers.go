package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

// renderers holds one render function per output mode. Text is the fallback.
type renderers struct {
	json, csv, prometheus, text func(io.Writer) error
}

// render picks the renderer for the configured mode and sends its output to
// cfg.OutputFile, or stdout when none is set.
func render(cfg *contract.Config, r renderers) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, r.json, "JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, r.csv, "CSV")
	case schema.PrometheusOut:
		return writeWithFile(cfg.OutputFile, r.prometheus, "Prometheus metrics")
	default:
		return writeWithFile(cfg.OutputFile, r.text, "table")
	}
}

// writeWithFile opens outputFile (or stdout), runs fn against it and closes it.
// A note naming the file goes to stderr when it is not stdout.
func writeWithFile(outputFile string, fn func(io.Writer) error, what string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	toStdout := file == os.Stdout
	if !toStdout {
		defer func() { _ = file.Close() }()
	}

	if err := fn(file); err != nil {
		return err
	}
	if !toStdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %s to %s\n", what, outputFile)
	}
	return nil
}

// writeJSON writes data as two-space indented JSON.
func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header, then lets writeRows fill in the records.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(cw)
}

// createFormatter returns a float formatter with a fixed number of decimals.
func createFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}
