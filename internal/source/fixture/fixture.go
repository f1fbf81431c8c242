// Package fixture serves project, cycle and backlog data from a YAML file.
package fixture

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk layout of a fixture file.
type Document struct {
	Projects []schema.Project     `yaml:"projects"`
	Cycles   []schema.Cycle       `yaml:"cycles"`
	Items    []schema.BacklogItem `yaml:"items"`
}

// Source is a read-only DataSource over a parsed fixture document.
type Source struct {
	projects map[string]schema.Project
	cycles   []schema.Cycle
	items    []schema.BacklogItem
}

var _ contract.DataSource = &Source{} // Compile-time check

// Load reads a fixture file from disk.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	src, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return src, nil
}

// Parse decodes and validates a fixture document.
func Parse(r io.Reader) (*Source, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, err
	}
	return New(doc)
}

// New validates a document and indexes it for lookups.
func New(doc Document) (*Source, error) {
	src := &Source{projects: make(map[string]schema.Project, len(doc.Projects))}

	for _, p := range doc.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project without id")
		}
		if _, dup := src.projects[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project %q", p.ID)
		}
		src.projects[p.ID] = p
	}

	cycleIDs := make(map[int64]bool, len(doc.Cycles))
	for _, c := range doc.Cycles {
		if cycleIDs[c.ID] {
			return nil, fmt.Errorf("duplicate cycle %d", c.ID)
		}
		if _, ok := src.projects[c.ProjectID]; !ok {
			return nil, fmt.Errorf("cycle %d refers to unknown project %q", c.ID, c.ProjectID)
		}
		switch c.Status {
		case schema.CycleOpen, schema.CycleLocked, schema.CycleClosed:
		default:
			return nil, fmt.Errorf("cycle %d has invalid status %q", c.ID, c.Status)
		}
		cycleIDs[c.ID] = true
		src.cycles = append(src.cycles, c)
	}

	itemIDs := make(map[int64]bool, len(doc.Items))
	for _, item := range doc.Items {
		if itemIDs[item.ID] {
			return nil, fmt.Errorf("duplicate item %d", item.ID)
		}
		switch item.Kind {
		case schema.StoryItem, schema.TaskItem:
		default:
			return nil, fmt.Errorf("item %d has invalid kind %q", item.ID, item.Kind)
		}
		if item.CycleID != nil && !cycleIDs[*item.CycleID] {
			return nil, fmt.Errorf("item %d refers to unknown cycle %d", item.ID, *item.CycleID)
		}
		itemIDs[item.ID] = true
		src.items = append(src.items, item)
	}

	return src, nil
}

// Project implements the ProjectProvider interface.
func (s *Source) Project(_ context.Context, projectID string) (schema.Project, error) {
	p, ok := s.projects[projectID]
	if !ok {
		return schema.Project{}, fmt.Errorf("%w: %s", contract.ErrProjectNotFound, projectID)
	}
	return p, nil
}

// ActiveCycle implements the CycleProvider interface. When several open cycles
// bound today, the one that started last wins.
func (s *Source) ActiveCycle(_ context.Context, projectID string, today time.Time) (*schema.Cycle, error) {
	var found *schema.Cycle
	for _, c := range s.cycles {
		if c.ProjectID != projectID || c.Status != schema.CycleOpen || !c.Contains(today) {
			continue
		}
		if found == nil || c.StartDate.After(*found.StartDate) {
			found = &c
		}
	}
	if found == nil {
		return nil, nil
	}
	active := withoutProgress(*found)
	return &active, nil
}

// PastCycles implements the CycleProvider interface.
func (s *Source) PastCycles(_ context.Context, projectID string, today time.Time, limit int) ([]schema.Cycle, error) {
	day := dayOf(today)
	var past []schema.Cycle
	for _, c := range s.cycles {
		if c.ProjectID != projectID || c.StartDate == nil || c.EndDate == nil {
			continue
		}
		if dayOf(*c.EndDate).Before(day) {
			past = append(past, withoutProgress(c))
		}
	}
	slices.SortStableFunc(past, func(a, b schema.Cycle) int {
		return cmp.Or(b.EndDate.Compare(*a.EndDate), cmp.Compare(b.ID, a.ID))
	})
	if limit >= 0 && len(past) > limit {
		past = past[:limit]
	}
	return past, nil
}

// CycleProgress implements the ProgressProvider interface.
func (s *Source) CycleProgress(_ context.Context, cycle schema.Cycle) (schema.ProgressSeries, bool, error) {
	for _, c := range s.cycles {
		if c.ID == cycle.ID {
			return c.Progress, !c.Progress.IsEmpty(), nil
		}
	}
	return schema.ProgressSeries{}, false, nil
}

// ItemProgress implements the ProgressProvider interface.
func (s *Source) ItemProgress(_ context.Context, item schema.BacklogItem) (schema.ProgressSeries, bool, error) {
	for _, it := range s.items {
		if it.ID == item.ID {
			return it.Progress, !it.Progress.IsEmpty(), nil
		}
	}
	return schema.ProgressSeries{}, false, nil
}

// ProductBacklog implements the BacklogProvider interface. Only open stories
// without a cycle qualify, ordered by position.
func (s *Source) ProductBacklog(_ context.Context, projectID string, limit int) ([]schema.BacklogItem, error) {
	var backlog []schema.BacklogItem
	for _, it := range s.items {
		if it.ProjectID == projectID && it.Kind == schema.StoryItem && it.CycleID == nil && !it.Closed {
			backlog = append(backlog, withoutItemProgress(it))
		}
	}
	slices.SortStableFunc(backlog, func(a, b schema.BacklogItem) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
	if limit >= 0 && len(backlog) > limit {
		backlog = backlog[:limit]
	}
	return backlog, nil
}

// CycleItems implements the BacklogProvider interface.
func (s *Source) CycleItems(_ context.Context, cycleIDs []int64) ([]schema.BacklogItem, error) {
	var items []schema.BacklogItem
	for _, it := range s.items {
		if it.CycleID != nil && slices.Contains(cycleIDs, *it.CycleID) {
			items = append(items, withoutItemProgress(it))
		}
	}
	slices.SortFunc(items, func(a, b schema.BacklogItem) int { return cmp.Compare(a.ID, b.ID) })
	return items, nil
}

// ProjectIDs returns every known project ID in ascending order.
func (s *Source) ProjectIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Close implements the DataSource interface.
func (s *Source) Close() error { return nil }

// Progress is only served through the ProgressProvider methods.
func withoutProgress(c schema.Cycle) schema.Cycle {
	c.Progress = schema.ProgressSeries{}
	return c
}

func withoutItemProgress(it schema.BacklogItem) schema.BacklogItem {
	it.Progress = schema.ProgressSeries{}
	return it
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
