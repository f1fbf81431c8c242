package core

import (
	"context"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

func fp(v float64) *float64 { return &v }

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func series(values ...float64) schema.Series {
	s := make(schema.Series, len(values))
	for i, v := range values {
		s[i] = fp(v)
	}
	return s
}

// closedCycle returns a two-week cycle that ends on the given date.
func closedCycle(id int64, end string, committed, accepted float64) schema.Cycle {
	e := date(end)
	s := e.AddDate(0, 0, -13)
	return schema.Cycle{
		ID:        id,
		ProjectID: "p1",
		StartDate: &s,
		EndDate:   e,
		Status:    schema.CycleClosed,
		Progress: schema.ProgressSeries{
			PointsCommitted: series(committed, committed),
			PointsAccepted:  series(0, accepted),
			HoursRemaining:  series(40, 0),
			PointsRemaining: series(committed, committed-accepted),
		},
		HasNotes: true,
	}
}

// stubSource serves a fixed in-memory project.
type stubSource struct {
	project      schema.Project
	active       *schema.Cycle
	past         []schema.Cycle
	backlog      []schema.BacklogItem
	items        []schema.BacklogItem
	itemProgress map[int64]schema.ProgressSeries
	err          error
}

var _ contract.DataSource = &stubSource{} // Compile-time check

func (s *stubSource) Project(_ context.Context, projectID string) (schema.Project, error) {
	if s.err != nil {
		return schema.Project{}, s.err
	}
	if projectID != s.project.ID {
		return schema.Project{}, contract.ErrProjectNotFound
	}
	return s.project, nil
}

func (s *stubSource) ActiveCycle(context.Context, string, time.Time) (*schema.Cycle, error) {
	return s.active, nil
}

func (s *stubSource) PastCycles(_ context.Context, _ string, _ time.Time, limit int) ([]schema.Cycle, error) {
	if len(s.past) > limit {
		return s.past[:limit], nil
	}
	return s.past, nil
}

func (s *stubSource) CycleProgress(_ context.Context, cycle schema.Cycle) (schema.ProgressSeries, bool, error) {
	return cycle.Progress, !cycle.Progress.IsEmpty(), nil
}

func (s *stubSource) ItemProgress(_ context.Context, item schema.BacklogItem) (schema.ProgressSeries, bool, error) {
	p, ok := s.itemProgress[item.ID]
	return p, ok, nil
}

func (s *stubSource) ProductBacklog(_ context.Context, _ string, limit int) ([]schema.BacklogItem, error) {
	if len(s.backlog) > limit {
		return s.backlog[:limit], nil
	}
	return s.backlog, nil
}

func (s *stubSource) CycleItems(context.Context, []int64) ([]schema.BacklogItem, error) {
	return s.items, nil
}

func (s *stubSource) Close() error { return nil }

// staticRules disables a fixed set of names.
type staticRules map[string]bool

func (r staticRules) IsDisabled(name string) bool { return r[name] }

var refDate = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
