package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

// ContextOptions bounds what is read from the data source for one report.
type ContextOptions struct {
	PastCycles    int
	BacklogLimit  int
	DisabledRules map[string]bool
}

// BuildProjectContext reads everything a report needs about one project.
// Past cycles without progress data are dropped after the limit is applied,
// so fewer than PastCycles may remain.
func BuildProjectContext(ctx context.Context, src contract.DataSource, projectID string, today time.Time, opts ContextOptions) (*schema.ProjectContext, error) {
	project, err := src.Project(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %q: %w", projectID, err)
	}

	pc := &schema.ProjectContext{
		Project:        project,
		Today:          today,
		PastCycles:     []schema.Cycle{},
		ProductBacklog: []schema.BacklogItem{},
		CycleItems:     []schema.BacklogItem{},
		DisabledRules:  make(map[string]bool, len(opts.DisabledRules)),
	}
	for name, off := range opts.DisabledRules {
		if off {
			pc.DisabledRules[name] = true
		}
	}

	if err := loadActiveCycle(ctx, src, pc); err != nil {
		return nil, err
	}
	if err := loadPastCycles(ctx, src, pc, opts.PastCycles); err != nil {
		return nil, err
	}
	if err := loadBacklog(ctx, src, pc, opts.BacklogLimit); err != nil {
		return nil, err
	}
	if err := loadCycleItems(ctx, src, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// loadActiveCycle attaches the open cycle that bounds today, if any.
func loadActiveCycle(ctx context.Context, src contract.DataSource, pc *schema.ProjectContext) error {
	cycle, err := src.ActiveCycle(ctx, pc.Project.ID, pc.Today)
	if err != nil {
		return fmt.Errorf("failed to load active cycle: %w", err)
	}
	if cycle == nil || cycle.Status != schema.CycleOpen || !cycle.Contains(pc.Today) {
		return nil
	}
	active := *cycle
	series, ok, err := src.CycleProgress(ctx, active)
	if err != nil {
		return fmt.Errorf("failed to load progress of cycle %d: %w", active.ID, err)
	}
	if ok {
		active.Progress = series
	}
	pc.ActiveCycle = &active
	return nil
}

// loadPastCycles attaches up to limit finished cycles that carry progress data.
func loadPastCycles(ctx context.Context, src contract.DataSource, pc *schema.ProjectContext, limit int) error {
	cycles, err := src.PastCycles(ctx, pc.Project.ID, pc.Today, limit)
	if err != nil {
		return fmt.Errorf("failed to load past cycles: %w", err)
	}
	if len(cycles) > limit {
		cycles = cycles[:limit]
	}

	today := dayOf(pc.Today)
	for _, c := range cycles {
		if c.StartDate == nil || c.EndDate == nil || !dayOf(*c.EndDate).Before(today) {
			continue
		}
		if a := pc.ActiveCycle; a != nil && a.StartDate != nil && !dayOf(*c.EndDate).Before(dayOf(*a.StartDate)) {
			continue
		}
		series, ok, err := src.CycleProgress(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to load progress of cycle %d: %w", c.ID, err)
		}
		if !ok || series.IsEmpty() {
			continue
		}
		c.Progress = series
		pc.PastCycles = append(pc.PastCycles, c)
	}
	return nil
}

// loadBacklog attaches the top of the product backlog.
func loadBacklog(ctx context.Context, src contract.DataSource, pc *schema.ProjectContext, limit int) error {
	items, err := src.ProductBacklog(ctx, pc.Project.ID, limit)
	if err != nil {
		return fmt.Errorf("failed to load product backlog: %w", err)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	pc.ProductBacklog = append(pc.ProductBacklog, items...)
	return nil
}

// loadCycleItems attaches the stories and tasks of every cycle in the context,
// with start-of-cycle progress for stories.
func loadCycleItems(ctx context.Context, src contract.DataSource, pc *schema.ProjectContext) error {
	cycles := pc.AllCycles()
	if len(cycles) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(cycles))
	for _, c := range cycles {
		ids = append(ids, c.ID)
	}

	items, err := src.CycleItems(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load cycle items: %w", err)
	}
	for _, item := range items {
		if item.Kind == schema.StoryItem {
			series, ok, err := src.ItemProgress(ctx, item)
			if err != nil {
				return fmt.Errorf("failed to load progress of item %d: %w", item.ID, err)
			}
			if ok {
				item.Progress = series
			}
		}
		pc.CycleItems = append(pc.CycleItems, item)
	}
	return nil
}

// dayOf maps a timestamp to midnight UTC of its calendar date.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
