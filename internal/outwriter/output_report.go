package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// failedSuffix marks failing diagnostics in human-readable listings.
const failedSuffix = "_failed"

// WriteReportResults outputs reports, dispatching based on the output format configured.
func WriteReportResults(reports []schema.StatisticsReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	return render(cfg, renderers{
		json:       func(w io.Writer) error { return writeReportJSON(w, reports) },
		csv:        func(w io.Writer) error { return writeReportCSV(w, reports, fmtFloat) },
		prometheus: func(w io.Writer) error { return writeReportPrometheus(w, reports) },
		text:       func(w io.Writer) error { return writeReportTables(w, reports, cfg, fmtFloat, duration) },
	})
}

// DiagnosticLabels lists passing names, then failing names with a suffix.
func DiagnosticLabels(report schema.StatisticsReport) []string {
	labels := report.Succeeded()
	for _, name := range report.Failed() {
		labels = append(labels, name+failedSuffix)
	}
	return labels
}

// jsonReport is the JSON shape of one report.
type jsonReport struct {
	ProjectID string             `json:"project_id"`
	Score     int                `json:"score"`
	Label     string             `json:"label"`
	Succeeded []string           `json:"succeeded"`
	Failed    []string           `json:"failed"`
	Stats     map[string]float64 `json:"stats"`
	Metrics   jsonMetrics        `json:"metrics"`
}

type jsonMetrics struct {
	PointsPerDay *float64 `json:"points_per_day"`
}

func newJSONReport(r schema.StatisticsReport) jsonReport {
	out := jsonReport{
		ProjectID: r.ProjectID(),
		Score:     r.Score(),
		Label:     contract.GetPlainLabel(r.Score()),
		Succeeded: r.Succeeded(),
		Failed:    r.Failed(),
		Stats:     r.Stats(),
	}
	if ppd, ok := r.PointsPerDay(); ok {
		out.Metrics.PointsPerDay = &ppd
	}
	return out
}

// ReportJSON renders one report in the shape used by the json output.
func ReportJSON(r schema.StatisticsReport) ([]byte, error) {
	return json.MarshalIndent(newJSONReport(r), "", "  ")
}

// writeReportJSON writes every report as one JSON array.
func writeReportJSON(w io.Writer, reports []schema.StatisticsReport) error {
	output := make([]jsonReport, len(reports))
	for i, r := range reports {
		output[i] = newJSONReport(r)
	}
	return writeJSON(w, output)
}

// writeReportCSV writes one row per diagnostic, stat and metric.
func writeReportCSV(w io.Writer, reports []schema.StatisticsReport, fmtFloat func(float64) string) error {
	header := []string{"project_id", "score", "label", "kind", "name", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			score := fmt.Sprintf("%d", r.Score())
			label := contract.GetPlainLabel(r.Score())
			row := func(kind, name, value string) error {
				return cw.Write([]string{r.ProjectID(), score, label, kind, name, value})
			}

			for _, name := range r.Succeeded() {
				if err := row(schema.DiagnosticKind, name, string(schema.Pass)); err != nil {
					return err
				}
			}
			for _, name := range r.Failed() {
				if err := row(schema.DiagnosticKind, name, string(schema.Fail)); err != nil {
					return err
				}
			}
			for _, name := range r.StatNames() {
				v, _ := r.Stat(name)
				if err := row(schema.StatKind, name, fmtFloat(v)); err != nil {
					return err
				}
			}
			if ppd, ok := r.PointsPerDay(); ok {
				if err := row("metric", "points_per_day", fmtFloat(ppd)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeReportTables renders one block of tables per report.
func writeReportTables(w io.Writer, reports []schema.StatisticsReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	nameWidth := GetMaxTableNameWidth(cfg)

	for i, r := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		label := contract.GetPlainLabel(r.Score())
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Score())
		}
		if _, err := fmt.Fprintf(w, "Project %s: score %d (%s)\n", r.ProjectID(), r.Score(), label); err != nil {
			return err
		}

		if err := writeDiagnosticTable(w, r, cfg.UseColors, nameWidth); err != nil {
			return err
		}
		if err := writeStatTable(w, r, fmtFloat, nameWidth); err != nil {
			return err
		}

		ppd := "n/a"
		if v, ok := r.PointsPerDay(); ok {
			ppd = fmtFloat(v)
		}
		if _, err := fmt.Fprintf(w, "Metrics: points_per_day=%s\n", ppd); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Computed %d report(s) in %v. Cache backend: %s\n", len(reports), duration, cfg.CacheBackend)
	return err
}

func writeDiagnosticTable(w io.Writer, r schema.StatisticsReport, useColors bool, nameWidth int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Diagnostic", "Result"})

	var data [][]string
	for _, name := range r.Succeeded() {
		result := string(schema.Pass)
		if useColors {
			result = contract.PassColor.Sprint(result)
		}
		data = append(data, []string{truncateName(name, nameWidth), result})
	}
	for _, name := range r.Failed() {
		result := string(schema.Fail)
		if useColors {
			result = contract.FailColor.Sprint(result)
		}
		data = append(data, []string{truncateName(name+failedSuffix, nameWidth), result})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeStatTable(w io.Writer, r schema.StatisticsReport, fmtFloat func(float64) string, nameWidth int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Stat", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, name := range r.StatNames() {
		v, _ := r.Stat(name)
		data = append(data, []string{truncateName(name, nameWidth), fmtFloat(v)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
