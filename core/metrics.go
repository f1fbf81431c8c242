package core

import (
	"github.com/huangsam/sprinthealth/core/algo"
	"github.com/huangsam/sprinthealth/schema"
)

// ComputeMetrics derives throughput, velocity and sizing figures from a project context.
// Cycles without progress data and missing series entries are skipped, never counted as zero.
func ComputeMetrics(pc *schema.ProjectContext) schema.Metrics {
	m := schema.Metrics{
		VelocitySamples:      []float64{},
		HoursPerPointSamples: []float64{},
	}

	var committed float64
	var days, qualifying int
	for i := range pc.PastCycles {
		c := &pc.PastCycles[i]
		if !c.HasProgress() {
			continue
		}
		qualifying++
		if v, ok := c.Progress.PointsCommitted.First(); ok {
			committed += v
		}
		days += c.DayCount()
		if v, ok := c.Progress.PointsAccepted.Last(); ok {
			m.VelocitySamples = append(m.VelocitySamples, v)
		}
	}

	if qualifying > 0 && days > 0 {
		perDay := committed / float64(days)
		m.PointsPerDay = &perDay
	}

	if len(m.VelocitySamples) > 0 {
		mean := algo.Mean(m.VelocitySamples)
		spread := algo.StddevLike(m.VelocitySamples)
		m.VelocityMean = &mean
		m.VelocitySpread = &spread
	}

	for _, item := range pc.CycleItems {
		if item.Kind != schema.StoryItem {
			continue
		}
		h, hok := item.Progress.HoursRemaining.First()
		p, pok := item.Progress.PointsRemaining.First()
		if !hok || !pok || p == 0 {
			continue
		}
		m.HoursPerPointSamples = append(m.HoursPerPointSamples, h/p)
	}

	if len(m.HoursPerPointSamples) > 0 {
		mean := algo.Mean(m.HoursPerPointSamples)
		m.HoursPerPointMean = &mean
	}
	m.HoursPerPointSpread = algo.StddevLike(m.HoursPerPointSamples)

	return m
}
