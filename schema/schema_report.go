package schema

import (
	"encoding/json"
	"maps"
	"slices"
)

// DiagnosticOutcome is the result of evaluating one named rule.
type DiagnosticOutcome struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
}

// Metrics holds the derived throughput figures for a project.
// Pointer fields are nil when there was nothing to compute them from.
type Metrics struct {
	PointsPerDay         *float64  `json:"points_per_day,omitempty"`
	VelocitySamples      []float64 `json:"velocity_samples"`
	VelocityMean         *float64  `json:"velocity_mean,omitempty"`
	VelocitySpread       *float64  `json:"velocity_spread,omitempty"`
	HoursPerPointSamples []float64 `json:"hours_per_point_samples"`
	HoursPerPointMean    *float64  `json:"hours_per_point_mean,omitempty"`
	HoursPerPointSpread  float64   `json:"-"`
}

// StatisticsReport is the health report of one project.
// Values are never mutated after construction; accessors hand out copies.
type StatisticsReport struct {
	projectID    string
	succeeded    []string
	failed       []string
	stats        map[string]float64
	score        int
	pointsPerDay *float64
}

// NewStatisticsReport builds a report from the given parts, copying every input.
func NewStatisticsReport(projectID string, succeeded, failed []string, stats map[string]float64, score int, pointsPerDay *float64) StatisticsReport {
	r := StatisticsReport{
		projectID: projectID,
		succeeded: append([]string{}, succeeded...),
		failed:    append([]string{}, failed...),
		stats:     make(map[string]float64, len(stats)),
		score:     score,
	}
	maps.Copy(r.stats, stats)
	if pointsPerDay != nil {
		v := *pointsPerDay
		r.pointsPerDay = &v
	}
	return r
}

// ProjectID returns the project the report describes.
func (r StatisticsReport) ProjectID() string { return r.projectID }

// Succeeded returns the names of passing diagnostics in evaluation order.
func (r StatisticsReport) Succeeded() []string { return slices.Clone(r.succeeded) }

// Failed returns the names of failing diagnostics in evaluation order.
func (r StatisticsReport) Failed() []string { return slices.Clone(r.failed) }

// Stats returns a copy of the stat mapping.
func (r StatisticsReport) Stats() map[string]float64 { return maps.Clone(r.stats) }

// Stat looks up a single stat by name.
func (r StatisticsReport) Stat(name string) (float64, bool) {
	v, ok := r.stats[name]
	return v, ok
}

// StatNames returns the stat names in sorted order.
func (r StatisticsReport) StatNames() []string {
	return slices.Sorted(maps.Keys(r.stats))
}

// Score returns the percentage of applicable diagnostics that passed.
func (r StatisticsReport) Score() int { return r.score }

// PointsPerDay returns the committed points per cycle day, if known.
func (r StatisticsReport) PointsPerDay() (float64, bool) {
	if r.pointsPerDay == nil {
		return 0, false
	}
	return *r.pointsPerDay, true
}

// IsZero reports whether the report was never built.
func (r StatisticsReport) IsZero() bool {
	return r.projectID == "" && r.succeeded == nil && r.failed == nil && r.stats == nil
}

// reportJSON is the serialized form of StatisticsReport.
type reportJSON struct {
	ProjectID    string             `json:"project_id"`
	Succeeded    []string           `json:"succeeded"`
	Failed       []string           `json:"failed"`
	Stats        map[string]float64 `json:"stats"`
	Score        int                `json:"score"`
	PointsPerDay *float64           `json:"points_per_day,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r StatisticsReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		ProjectID:    r.projectID,
		Succeeded:    r.Succeeded(),
		Failed:       r.Failed(),
		Stats:        r.Stats(),
		Score:        r.score,
		PointsPerDay: r.pointsPerDay,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *StatisticsReport) UnmarshalJSON(data []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewStatisticsReport(raw.ProjectID, raw.Succeeded, raw.Failed, raw.Stats, raw.Score, raw.PointsPerDay)
	return nil
}

// RuleInfo describes a registered diagnostic or stat for listings.
type RuleInfo struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Disabled bool   `json:"disabled"`
}

// Rule kinds used in RuleInfo.
const (
	DiagnosticKind = "diagnostic"
	StatKind       = "stat"
)
