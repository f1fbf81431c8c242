package core

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/sprinthealth/core/algo"
	"github.com/huangsam/sprinthealth/schema"
)

// Canonical stat names.
const (
	StatSprints        = "sprints"
	StatVelocity       = "velocity"
	StatVelocityStddev = "velocity_stddev"
	StatSizingStddev   = "sizing_stddev"
	StatHoursPerPoint  = "hours_per_point"
)

// StatFunc extracts one numeric stat. ok is false when the stat has no value.
type StatFunc func(pc *schema.ProjectContext, m *schema.Metrics) (value float64, ok bool, err error)

// DefaultStats returns the canonical stat table.
func DefaultStats() map[string]StatFunc {
	return map[string]StatFunc{
		StatSprints:        sprintCount,
		StatVelocity:       velocity,
		StatVelocityStddev: velocityStddev,
		StatSizingStddev:   sizingStddev,
		StatHoursPerPoint:  hoursPerPoint,
	}
}

// StatRegistry holds named numeric extractors. It is safe for concurrent use.
type StatRegistry struct {
	mu    sync.RWMutex
	stats map[string]StatFunc
}

// NewStatRegistry creates a registry over a copy of the given stat table.
func NewStatRegistry(stats map[string]StatFunc) *StatRegistry {
	r := &StatRegistry{stats: make(map[string]StatFunc, len(stats))}
	maps.Copy(r.stats, stats)
	return r
}

// Register adds a stat under a new name.
func (r *StatRegistry) Register(name string, fn StatFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("stat needs a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stats[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.stats[name] = fn
	return nil
}

// Names returns every registered stat name in ascending order.
func (r *StatRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.stats))
}

// Run evaluates every stat and keeps only present, finite values.
func (r *StatRegistry) Run(pc *schema.ProjectContext, m *schema.Metrics) (map[string]float64, error) {
	r.mu.RLock()
	stats := maps.Clone(r.stats)
	r.mu.RUnlock()

	values := make(map[string]float64, len(stats))
	for _, name := range slices.Sorted(maps.Keys(stats)) {
		v, ok, err := stats[name](pc, m)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", name, err)
		}
		if ok && algo.IsFinite(v) {
			values[name] = v
		}
	}
	return values, nil
}

func optional(p *float64) (float64, bool, error) {
	if p == nil {
		return 0, false, nil
	}
	return *p, true, nil
}

func sprintCount(pc *schema.ProjectContext, _ *schema.Metrics) (float64, bool, error) {
	return float64(len(pc.PastCycles)), true, nil
}

func velocity(_ *schema.ProjectContext, m *schema.Metrics) (float64, bool, error) {
	return optional(m.VelocityMean)
}

func velocityStddev(_ *schema.ProjectContext, m *schema.Metrics) (float64, bool, error) {
	return optional(m.VelocitySpread)
}

func sizingStddev(_ *schema.ProjectContext, m *schema.Metrics) (float64, bool, error) {
	return m.HoursPerPointSpread, true, nil
}

func hoursPerPoint(_ *schema.ProjectContext, m *schema.Metrics) (float64, bool, error) {
	return optional(m.HoursPerPointMean)
}
