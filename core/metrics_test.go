package core

import (
	"math"
	"testing"

	"github.com/huangsam/sprinthealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMetricsNoPastCycles(t *testing.T) {
	pc := &schema.ProjectContext{Project: schema.Project{ID: "p1", Status: schema.ProjectActive}}

	m := ComputeMetrics(pc)

	assert.Nil(t, m.PointsPerDay)
	assert.Nil(t, m.VelocityMean)
	assert.Nil(t, m.VelocitySpread)
	assert.Empty(t, m.VelocitySamples)
	assert.Nil(t, m.HoursPerPointMean)
	assert.True(t, math.IsInf(m.HoursPerPointSpread, 1))
}

func TestComputeMetricsVelocity(t *testing.T) {
	pc := &schema.ProjectContext{
		PastCycles: []schema.Cycle{
			closedCycle(2, "2024-06-01", 12, 10),
			closedCycle(1, "2024-05-18", 16, 14),
		},
	}

	m := ComputeMetrics(pc)

	require.NotNil(t, m.PointsPerDay)
	assert.InDelta(t, 1.0, *m.PointsPerDay, 1e-12) // (12 + 16) / (14 + 14)
	assert.Equal(t, []float64{10, 14}, m.VelocitySamples)
	require.NotNil(t, m.VelocityMean)
	assert.InDelta(t, 12.0, *m.VelocityMean, 1e-12)
	require.NotNil(t, m.VelocitySpread)
	assert.InDelta(t, 0.25, *m.VelocitySpread, 1e-12)
}

func TestComputeMetricsSkipsMissingData(t *testing.T) {
	noProgress := closedCycle(3, "2024-06-01", 0, 0)
	noProgress.Progress = schema.ProgressSeries{}

	noAccepted := closedCycle(2, "2024-05-18", 10, 0)
	noAccepted.Progress.PointsAccepted = schema.Series{fp(0), nil}

	noCommitted := closedCycle(1, "2024-05-04", 0, 8)
	noCommitted.Progress.PointsCommitted = schema.Series{nil, fp(8)}

	pc := &schema.ProjectContext{PastCycles: []schema.Cycle{noProgress, noAccepted, noCommitted}}
	m := ComputeMetrics(pc)

	require.NotNil(t, m.PointsPerDay)
	assert.InDelta(t, 10.0/28.0, *m.PointsPerDay, 1e-12)
	assert.Equal(t, []float64{8}, m.VelocitySamples)
	require.NotNil(t, m.VelocitySpread)
	assert.True(t, math.IsInf(*m.VelocitySpread, 1))
}

func TestComputeMetricsHoursPerPoint(t *testing.T) {
	story := func(id int64, hours, points *float64) schema.BacklogItem {
		return schema.BacklogItem{
			ID:   id,
			Kind: schema.StoryItem,
			Progress: schema.ProgressSeries{
				HoursRemaining:  schema.Series{hours},
				PointsRemaining: schema.Series{points},
			},
		}
	}
	task := story(9, fp(10), fp(1))
	task.Kind = schema.TaskItem

	pc := &schema.ProjectContext{
		CycleItems: []schema.BacklogItem{
			story(1, fp(8), fp(2)),
			story(2, fp(18), fp(3)),
			story(3, fp(5), fp(0)),
			story(4, nil, fp(3)),
			story(5, fp(4), nil),
			{ID: 6, Kind: schema.StoryItem},
			task,
		},
	}

	m := ComputeMetrics(pc)

	assert.Equal(t, []float64{4, 6}, m.HoursPerPointSamples)
	require.NotNil(t, m.HoursPerPointMean)
	assert.InDelta(t, 5.0, *m.HoursPerPointMean, 1e-12)
	assert.InDelta(t, 0.5, m.HoursPerPointSpread, 1e-12)
}
