package core

import (
	"context"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/sourcegraph/conc/pool"
)

// WarmResult is the outcome of refreshing one project.
type WarmResult struct {
	ProjectID string
	Report    schema.StatisticsReport
	Err       error
}

// WarmReports force-refreshes every project with at most workers refreshes in flight.
// Results keep the order of projectIDs; one failing project does not stop the others.
func WarmReports(ctx context.Context, accessor contract.ReportAccessor, projectIDs []string, workers int) []WarmResult {
	results := make([]WarmResult, len(projectIDs))
	if len(projectIDs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = contract.DefaultWorkers
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i, id := range projectIDs {
		p.Go(func() {
			results[i].ProjectID = id
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			report, err := accessor.ForceRefresh(ctx, id)
			results[i].Report = report
			results[i].Err = err
		})
	}
	p.Wait()

	return results
}
