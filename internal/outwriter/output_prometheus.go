package outwriter

import (
	"io"

	"github.com/huangsam/sprinthealth/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Exposition metric names.
const (
	scoreMetric        = "sprinthealth_score"
	diagnosticMetric   = "sprinthealth_diagnostic_passed"
	statMetric         = "sprinthealth_stat"
	pointsPerDayMetric = "sprinthealth_points_per_day"
	ruleMetric         = "sprinthealth_rule_enabled"
)

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: &name,
		Help: &help,
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func addGauge(mf *dto.MetricFamily, value float64, labels ...string) {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: &value}}
	for i := 0; i+1 < len(labels); i += 2 {
		name, val := labels[i], labels[i+1]
		m.Label = append(m.Label, &dto.LabelPair{Name: &name, Value: &val})
	}
	mf.Metric = append(mf.Metric, m)
}

// writeFamilies writes every non-empty family in text exposition format.
func writeFamilies(w io.Writer, families ...*dto.MetricFamily) error {
	for _, mf := range families {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// writeReportPrometheus renders reports as gauges for a textfile collector.
func writeReportPrometheus(w io.Writer, reports []schema.StatisticsReport) error {
	score := gaugeFamily(scoreMetric, "Percentage of applicable diagnostics that passed.")
	diagnostics := gaugeFamily(diagnosticMetric, "Whether an applicable diagnostic passed (1) or failed (0).")
	stats := gaugeFamily(statMetric, "Numeric project statistic.")
	ppd := gaugeFamily(pointsPerDayMetric, "Committed story points per cycle day over past cycles.")

	for _, r := range reports {
		project := r.ProjectID()
		addGauge(score, float64(r.Score()), "project", project)
		for _, name := range r.Succeeded() {
			addGauge(diagnostics, 1, "project", project, "rule", name)
		}
		for _, name := range r.Failed() {
			addGauge(diagnostics, 0, "project", project, "rule", name)
		}
		for _, name := range r.StatNames() {
			v, _ := r.Stat(name)
			addGauge(stats, v, "project", project, "stat", name)
		}
		if v, ok := r.PointsPerDay(); ok {
			addGauge(ppd, v, "project", project)
		}
	}

	return writeFamilies(w, score, diagnostics, stats, ppd)
}

// writeRulePrometheus renders the rule listing as gauges.
func writeRulePrometheus(w io.Writer, infos []schema.RuleInfo) error {
	rules := gaugeFamily(ruleMetric, "Whether a diagnostic or stat is enabled (1) or disabled (0).")
	for _, info := range infos {
		enabled := 1.0
		if info.Disabled {
			enabled = 0
		}
		addGauge(rules, enabled, "kind", info.Kind, "rule", info.Name)
	}
	return writeFamilies(w, rules)
}
