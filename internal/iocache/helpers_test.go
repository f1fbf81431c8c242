package iocache

import (
	"context"
	"sync/atomic"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

// sequenceBuilder returns a new report generation on every build.
type sequenceBuilder struct {
	builds atomic.Int64
	forced atomic.Int64
	err    error
}

var _ contract.ReportBuilder = &sequenceBuilder{} // Compile-time check

func (b *sequenceBuilder) Build(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	if b.err != nil {
		return schema.StatisticsReport{}, b.err
	}
	n := b.builds.Add(1)
	if contract.IsForcedRefresh(ctx) {
		b.forced.Add(1)
	}
	return sampleReport(projectID, float64(n)), nil
}

func sampleReport(projectID string, generation float64) schema.StatisticsReport {
	ppd := 1.5
	return schema.NewStatisticsReport(
		projectID,
		[]string{"active", "yield"},
		[]string{"committed_velocity_stable"},
		map[string]float64{"sprints": 2, "generation": generation},
		66,
		&ppd,
	)
}

func generationOf(r schema.StatisticsReport) float64 {
	v, _ := r.Stat("generation")
	return v
}
