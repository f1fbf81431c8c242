package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAccessor refreshes by building straight from the wrapped builder.
type countingAccessor struct {
	builder  contract.ReportBuilder
	inFlight atomic.Int32
	peak     atomic.Int32
}

var _ contract.ReportAccessor = &countingAccessor{} // Compile-time check

func (a *countingAccessor) Get(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	return a.builder.Build(ctx, projectID)
}

func (a *countingAccessor) ForceRefresh(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	n := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		peak := a.peak.Load()
		if n <= peak || a.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	return a.builder.Build(contract.WithForcedRefresh(ctx), projectID)
}

func TestWarmReports(t *testing.T) {
	accessor := &countingAccessor{builder: newTestBuilder(healthySource())}

	results := WarmReports(context.Background(), accessor, []string{"p1", "missing", "p1"}, 2)
	require.Len(t, results, 3)

	assert.Equal(t, "p1", results[0].ProjectID)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 100, results[0].Report.Score())

	assert.Equal(t, "missing", results[1].ProjectID)
	assert.ErrorIs(t, results[1].Err, contract.ErrProjectNotFound)
	assert.True(t, results[1].Report.IsZero())

	assert.NoError(t, results[2].Err)
	assert.LessOrEqual(t, accessor.peak.Load(), int32(2))
}

func TestWarmReportsEmpty(t *testing.T) {
	assert.Empty(t, WarmReports(context.Background(), &countingAccessor{}, nil, 4))
}

func TestWarmReportsCancelled(t *testing.T) {
	builder := &contract.MockReportBuilder{}
	accessor := &countingAccessor{builder: builder}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := WarmReports(ctx, accessor, []string{"p1", "p2"}, 0)
	for _, r := range results {
		assert.True(t, errors.Is(r.Err, context.Canceled))
	}
	assert.Empty(t, builder.Calls)
}
