package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/rs/zerolog"
)

// BuildOptions controls how much history a report looks at and its reference date.
type BuildOptions struct {
	PastCycles   int
	BacklogLimit int
	Today        time.Time // Zero means "use the clock"
}

// ReportBuilder turns data-source state into a StatisticsReport.
// It is safe for concurrent use as long as its collaborators are.
type ReportBuilder struct {
	src         contract.DataSource
	rules       contract.RuleConfig
	diagnostics *DiagnosticRegistry
	stats       *StatRegistry
	history     contract.HistoryStore
	clock       contract.Clock
	log         zerolog.Logger
	opts        BuildOptions
}

var _ contract.ReportBuilder = &ReportBuilder{} // Compile-time check

// NewReportBuilder is the starting point for computing reports from a data source.
func NewReportBuilder(src contract.DataSource, opts BuildOptions) *ReportBuilder {
	if opts.PastCycles <= 0 {
		opts.PastCycles = schema.DefaultPastCycles
	}
	if opts.BacklogLimit <= 0 {
		opts.BacklogLimit = schema.DefaultBacklogLimit
	}
	return &ReportBuilder{
		src:         src,
		diagnostics: NewDiagnosticRegistry(DefaultRules()),
		stats:       NewStatRegistry(DefaultStats()),
		clock:       contract.SystemClock{},
		log:         zerolog.Nop(),
		opts:        opts,
	}
}

// WithRuleConfig sets where administratively disabled rules are looked up.
func (b *ReportBuilder) WithRuleConfig(rules contract.RuleConfig) *ReportBuilder {
	b.rules = rules
	return b
}

// WithHistory records every computed report in the given store.
func (b *ReportBuilder) WithHistory(history contract.HistoryStore) *ReportBuilder {
	b.history = history
	return b
}

// WithClock replaces the clock used for the reference date and run timestamps.
func (b *ReportBuilder) WithClock(clock contract.Clock) *ReportBuilder {
	b.clock = clock
	return b
}

// WithLogger sets the structured logger.
func (b *ReportBuilder) WithLogger(log zerolog.Logger) *ReportBuilder {
	b.log = log
	return b
}

// Diagnostics exposes the rule registry for registration and runtime toggles.
func (b *ReportBuilder) Diagnostics() *DiagnosticRegistry {
	return b.diagnostics
}

// Stats exposes the stat registry for registration.
func (b *ReportBuilder) Stats() *StatRegistry {
	return b.stats
}

// Rules lists every diagnostic and stat with its effective disabled state.
func (b *ReportBuilder) Rules() []schema.RuleInfo {
	var infos []schema.RuleInfo
	for _, name := range b.diagnostics.Names() {
		infos = append(infos, schema.RuleInfo{
			Name:     name,
			Kind:     schema.DiagnosticKind,
			Disabled: b.diagnostics.IsDisabled(name) || b.isConfigDisabled(name),
		})
	}
	for _, name := range b.stats.Names() {
		infos = append(infos, schema.RuleInfo{Name: name, Kind: schema.StatKind})
	}
	return infos
}

// Build computes a fresh report for the project.
func (b *ReportBuilder) Build(ctx context.Context, projectID string) (schema.StatisticsReport, error) {
	started := time.Now()
	computedAt := b.clock.Now()

	run, err := b.newRun(ctx, projectID, computedAt)
	if err != nil {
		return schema.StatisticsReport{}, err
	}
	run.computeMetrics()
	if err := run.runDiagnostics(); err != nil {
		return schema.StatisticsReport{}, err
	}
	if err := run.runStats(); err != nil {
		return schema.StatisticsReport{}, err
	}
	report := run.assemble()

	elapsed := time.Since(started)
	b.log.Debug().
		Str("project", projectID).
		Int("score", report.Score()).
		Dur("elapsed", elapsed).
		Msg("report computed")
	b.recordRun(ctx, report, computedAt, elapsed)
	return report, nil
}

// isConfigDisabled consults the external rule configuration.
func (b *ReportBuilder) isConfigDisabled(name string) bool {
	return b.rules != nil && b.rules.IsDisabled(name)
}

// recordRun appends the report to history. Failures are logged, not returned.
func (b *ReportBuilder) recordRun(ctx context.Context, report schema.StatisticsReport, computedAt time.Time, elapsed time.Duration) {
	if b.history == nil {
		return
	}
	runID, err := b.history.RecordRun(schema.ReportRun{
		ProjectID:  report.ProjectID(),
		ComputedAt: computedAt,
		Duration:   elapsed,
		Forced:     contract.IsForcedRefresh(ctx),
		Report:     report,
	})
	if err != nil {
		b.log.Warn().Err(err).Str("project", report.ProjectID()).Msg("failed to record report run")
		return
	}
	b.log.Debug().Int64("run_id", runID).Str("project", report.ProjectID()).Msg("report run recorded")
}

// reportRun carries the intermediate state of one Build call.
type reportRun struct {
	b         *ReportBuilder
	pc        *schema.ProjectContext
	metrics   schema.Metrics
	succeeded []string
	failed    []string
	stats     map[string]float64
}

// newRun loads the project context the rest of the run reads from.
func (b *ReportBuilder) newRun(ctx context.Context, projectID string, now time.Time) (*reportRun, error) {
	today := b.opts.Today
	if today.IsZero() {
		today = now
	}

	disabled := make(map[string]bool)
	for _, name := range b.diagnostics.Names() {
		if b.isConfigDisabled(name) {
			disabled[name] = true
		}
	}

	pc, err := BuildProjectContext(ctx, b.src, projectID, today, ContextOptions{
		PastCycles:    b.opts.PastCycles,
		BacklogLimit:  b.opts.BacklogLimit,
		DisabledRules: disabled,
	})
	if err != nil {
		return nil, err
	}
	return &reportRun{b: b, pc: pc}, nil
}

// computeMetrics derives throughput figures from the loaded context.
func (r *reportRun) computeMetrics() {
	r.metrics = ComputeMetrics(r.pc)
}

// runDiagnostics evaluates every enabled rule.
func (r *reportRun) runDiagnostics() error {
	outcomes, err := r.b.diagnostics.Run(r.pc, &r.metrics)
	if err != nil {
		return fmt.Errorf("failed to evaluate diagnostics for project %q: %w", r.pc.Project.ID, err)
	}
	r.succeeded, r.failed = Partition(outcomes)
	return nil
}

// runStats evaluates every stat.
func (r *reportRun) runStats() error {
	stats, err := r.b.stats.Run(r.pc, &r.metrics)
	if err != nil {
		return fmt.Errorf("failed to compute stats for project %q: %w", r.pc.Project.ID, err)
	}
	r.stats = stats
	return nil
}

// assemble finalizes the construction and returns the completed report.
func (r *reportRun) assemble() schema.StatisticsReport {
	score := AggregateScore(len(r.succeeded), len(r.failed))
	return schema.NewStatisticsReport(r.pc.Project.ID, r.succeeded, r.failed, r.stats, score, r.metrics.PointsPerDay)
}
