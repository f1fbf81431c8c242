package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/sprinthealth/core/algo"
	"github.com/huangsam/sprinthealth/schema"
)

// Canonical diagnostic names.
const (
	RuleProductBacklogFilled    = "product_backlog_filled"
	RuleProductBacklogSized     = "product_backlog_sized"
	RuleSprintsSized            = "sprints_sized"
	RuleSprintsEstimated        = "sprints_estimated"
	RuleSprintNotesAvailable    = "sprint_notes_available"
	RuleActive                  = "active"
	RuleYield                   = "yield"
	RuleCommittedVelocityStable = "committed_velocity_stable"
	RuleSizingConsistent        = "sizing_consistent"
)

// Thresholds on the StddevLike scale.
const (
	yieldSpreadLimit    = 10.0
	velocitySpreadLimit = 4.0
	sizingSpreadLimit   = 4.0
)

// ErrDuplicateRule is returned when a rule or stat name is registered twice.
var ErrDuplicateRule = errors.New("rule already registered")

// RuleFunc evaluates one diagnostic over a project context and its metrics.
type RuleFunc func(pc *schema.ProjectContext, m *schema.Metrics) (schema.Outcome, error)

// DefaultRules returns the canonical diagnostic table.
func DefaultRules() map[string]RuleFunc {
	return map[string]RuleFunc{
		RuleProductBacklogFilled:    productBacklogFilled,
		RuleProductBacklogSized:     productBacklogSized,
		RuleSprintsSized:            sprintsSized,
		RuleSprintsEstimated:        sprintsEstimated,
		RuleSprintNotesAvailable:    sprintNotesAvailable,
		RuleActive:                  active,
		RuleYield:                   yield,
		RuleCommittedVelocityStable: committedVelocityStable,
		RuleSizingConsistent:        sizingConsistent,
	}
}

// DiagnosticRegistry holds named rules and the set switched off at runtime.
// It is safe for concurrent use.
type DiagnosticRegistry struct {
	mu       sync.RWMutex
	rules    map[string]RuleFunc
	disabled map[string]bool
}

// NewDiagnosticRegistry creates a registry over a copy of the given rule table.
func NewDiagnosticRegistry(rules map[string]RuleFunc) *DiagnosticRegistry {
	r := &DiagnosticRegistry{
		rules:    make(map[string]RuleFunc, len(rules)),
		disabled: make(map[string]bool),
	}
	maps.Copy(r.rules, rules)
	return r
}

// Register adds a rule under a new name.
func (r *DiagnosticRegistry) Register(name string, fn RuleFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("rule needs a name and a function")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.rules[name] = fn
	return nil
}

// Disable switches a rule off. Unknown names are ignored.
func (r *DiagnosticRegistry) Disable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; ok {
		r.disabled[name] = true
	}
}

// Enable switches a rule back on.
func (r *DiagnosticRegistry) Enable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.disabled, name)
}

// IsDisabled reports whether the registry switched the rule off.
func (r *DiagnosticRegistry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

// Names returns every registered rule name in ascending order.
func (r *DiagnosticRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.rules))
}

// Run evaluates every enabled rule in ascending name order. Rules disabled here
// or in the project context are skipped. The first rule error aborts the run.
func (r *DiagnosticRegistry) Run(pc *schema.ProjectContext, m *schema.Metrics) ([]schema.DiagnosticOutcome, error) {
	r.mu.RLock()
	names := slices.Sorted(maps.Keys(r.rules))
	rules := maps.Clone(r.rules)
	disabled := maps.Clone(r.disabled)
	r.mu.RUnlock()

	outcomes := make([]schema.DiagnosticOutcome, 0, len(names))
	for _, name := range names {
		if disabled[name] || pc.IsRuleDisabled(name) {
			continue
		}
		outcome, err := rules[name](pc, m)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		switch outcome {
		case schema.Pass, schema.Fail, schema.NotApplicable:
		default:
			return nil, fmt.Errorf("rule %q: invalid outcome %q", name, outcome)
		}
		outcomes = append(outcomes, schema.DiagnosticOutcome{Name: name, Outcome: outcome})
	}
	return outcomes, nil
}

// Partition splits outcomes into passing and failing names, dropping not-applicable ones.
func Partition(outcomes []schema.DiagnosticOutcome) (succeeded, failed []string) {
	succeeded, failed = []string{}, []string{}
	for _, o := range outcomes {
		switch o.Outcome {
		case schema.Pass:
			succeeded = append(succeeded, o.Name)
		case schema.Fail:
			failed = append(failed, o.Name)
		}
	}
	return succeeded, failed
}

func passIf(ok bool) schema.Outcome {
	if ok {
		return schema.Pass
	}
	return schema.Fail
}

func productBacklogFilled(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	return passIf(!pc.Project.IsActive() || len(pc.ProductBacklog) > 0), nil
}

func productBacklogSized(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	for _, item := range pc.ProductBacklog {
		if item.StoryPoints == nil {
			return schema.Fail, nil
		}
	}
	return schema.Pass, nil
}

func sprintsSized(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	for _, item := range pc.CycleItems {
		if item.Kind == schema.StoryItem && item.StoryPoints == nil {
			return schema.Fail, nil
		}
	}
	return schema.Pass, nil
}

func sprintsEstimated(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	for _, item := range pc.CycleItems {
		if item.Kind == schema.TaskItem && item.EstimatedHours == nil {
			return schema.Fail, nil
		}
	}
	return schema.Pass, nil
}

func sprintNotesAvailable(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	for _, c := range pc.PastCycles {
		if !c.HasNotes {
			return schema.Fail, nil
		}
	}
	return schema.Pass, nil
}

func active(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	if !pc.Project.IsActive() {
		return schema.Pass, nil
	}
	return passIf(pc.ActiveCycle != nil && pc.ActiveCycle.HasActivity), nil
}

func yield(pc *schema.ProjectContext, _ *schema.Metrics) (schema.Outcome, error) {
	var ratios []float64
	for _, c := range pc.PastCycles {
		committed, cok := c.Progress.PointsCommitted.Last()
		accepted, aok := c.Progress.PointsAccepted.Last()
		if !cok || !aok || committed <= 0 {
			continue
		}
		ratios = append(ratios, min(accepted*100/committed, 100))
	}
	if len(ratios) == 0 {
		return schema.NotApplicable, nil
	}
	return passIf(algo.StddevLike(ratios) < yieldSpreadLimit), nil
}

func committedVelocityStable(_ *schema.ProjectContext, m *schema.Metrics) (schema.Outcome, error) {
	if m.VelocitySpread == nil {
		return schema.NotApplicable, nil
	}
	return passIf(*m.VelocitySpread < velocitySpreadLimit), nil
}

func sizingConsistent(_ *schema.ProjectContext, m *schema.Metrics) (schema.Outcome, error) {
	if len(m.HoursPerPointSamples) == 0 {
		return schema.NotApplicable, nil
	}
	return passIf(m.HoursPerPointSpread < sizingSpreadLimit), nil
}
