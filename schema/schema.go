// Package schema has models, constants and status types for all parts of sprinthealth.
package schema

import "time"

// Series is a day-indexed sequence of measurements. Index 0 is the snapshot taken
// at the start of a cycle and the last index is the latest snapshot.
// Entries are nil on days where nothing was recorded.
type Series []*float64

// First returns the start-of-cycle value, if recorded.
func (s Series) First() (float64, bool) {
	if len(s) == 0 || s[0] == nil {
		return 0, false
	}
	return *s[0], true
}

// Last returns the latest value, if recorded.
func (s Series) Last() (float64, bool) {
	if len(s) == 0 || s[len(s)-1] == nil {
		return 0, false
	}
	return *s[len(s)-1], true
}

// ProgressSeries is the burndown of a cycle or a backlog item, measured upwards.
type ProgressSeries struct {
	PointsCommitted Series `json:"points_committed" yaml:"points_committed"`
	PointsAccepted  Series `json:"points_accepted" yaml:"points_accepted"`
	HoursRemaining  Series `json:"hours_remaining" yaml:"hours_remaining"`
	PointsRemaining Series `json:"points_remaining" yaml:"points_remaining"`
}

// Days returns the number of recorded day offsets.
func (p ProgressSeries) Days() int {
	return max(len(p.PointsCommitted), len(p.PointsAccepted), len(p.HoursRemaining), len(p.PointsRemaining))
}

// IsEmpty reports whether the series carries no data at all.
func (p ProgressSeries) IsEmpty() bool {
	return p.Days() == 0
}

// Project is the minimal view of a project needed to judge its health.
type Project struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Status ProjectStatus `json:"status" yaml:"status"`
}

// IsActive reports whether the project is still being worked on.
func (p Project) IsActive() bool {
	return p.Status == ProjectActive
}

// Cycle is a sprint: a time-boxed unit of work with committed and accepted scope.
type Cycle struct {
	ID          int64          `json:"id" yaml:"id"`
	ProjectID   string         `json:"project_id" yaml:"project_id"`
	Name        string         `json:"name" yaml:"name"`
	StartDate   *time.Time     `json:"start_date,omitempty" yaml:"start_date"`
	EndDate     *time.Time     `json:"end_date,omitempty" yaml:"end_date"`
	Status      CycleStatus    `json:"status" yaml:"status"`
	Progress    ProgressSeries `json:"progress" yaml:"progress"`
	HasNotes    bool           `json:"has_notes" yaml:"has_notes"`
	HasActivity bool           `json:"has_activity" yaml:"has_activity"`
}

// HasProgress reports whether the cycle has usable burndown data.
func (c *Cycle) HasProgress() bool {
	return !c.Progress.IsEmpty()
}

// DayCount returns the inclusive number of calendar days between start and end.
// It is zero when either date is missing or the range is inverted.
func (c *Cycle) DayCount() int {
	if c.StartDate == nil || c.EndDate == nil {
		return 0
	}
	start := truncateDay(*c.StartDate)
	end := truncateDay(*c.EndDate)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Contains reports whether day falls within [start, end].
func (c *Cycle) Contains(day time.Time) bool {
	if c.StartDate == nil || c.EndDate == nil {
		return false
	}
	d := truncateDay(day)
	return !d.Before(truncateDay(*c.StartDate)) && !d.After(truncateDay(*c.EndDate))
}

// BacklogItem is a story or task that may be assigned to a cycle.
type BacklogItem struct {
	ID             int64          `json:"id" yaml:"id"`
	ProjectID      string         `json:"project_id" yaml:"project_id"`
	Subject        string         `json:"subject" yaml:"subject"`
	Kind           ItemKind       `json:"kind" yaml:"kind"`
	CycleID        *int64         `json:"cycle_id,omitempty" yaml:"cycle_id"`
	StoryPoints    *float64       `json:"story_points,omitempty" yaml:"story_points"`
	EstimatedHours *float64       `json:"estimated_hours,omitempty" yaml:"estimated_hours"`
	Position       int            `json:"position" yaml:"position"`
	Closed         bool           `json:"closed" yaml:"closed"`
	Progress       ProgressSeries `json:"progress" yaml:"progress"`
}

// ProjectContext is everything the report pipeline reads about one project.
// It is built fresh for every computation and never refers back to live storage.
type ProjectContext struct {
	Project        Project         `json:"project"`
	Today          time.Time       `json:"today"`
	ActiveCycle    *Cycle          `json:"active_cycle,omitempty"`
	PastCycles     []Cycle         `json:"past_cycles"`
	ProductBacklog []BacklogItem   `json:"product_backlog"`
	CycleItems     []BacklogItem   `json:"cycle_items"`
	DisabledRules  map[string]bool `json:"disabled_rules,omitempty"`
}

// AllCycles returns the past cycles followed by the active cycle, if any.
func (pc *ProjectContext) AllCycles() []Cycle {
	all := make([]Cycle, 0, len(pc.PastCycles)+1)
	all = append(all, pc.PastCycles...)
	if pc.ActiveCycle != nil {
		all = append(all, *pc.ActiveCycle)
	}
	return all
}

// IsRuleDisabled reports whether configuration switched the named rule off.
func (pc *ProjectContext) IsRuleDisabled(name string) bool {
	return pc.DisabledRules[name]
}

// truncateDay maps a timestamp to midnight UTC of its calendar date.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
