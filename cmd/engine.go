package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/sprinthealth/core"
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/internal/iocache"
	"github.com/huangsam/sprinthealth/internal/rules"
	"github.com/huangsam/sprinthealth/internal/source/fixture"
	"github.com/huangsam/sprinthealth/internal/source/postgres"
	"github.com/huangsam/sprinthealth/schema"
)

// engine wires the data source, rule configuration, builder and cache of one command.
type engine struct {
	src       contract.DataSource
	fileRules *rules.FileConfig // nil without --rules-file
	builder   *core.ReportBuilder
	cache     *iocache.ReportCache
}

// newEngine opens the configured data source and builds the report pipeline on top of it.
func newEngine(ctx context.Context) (*engine, error) {
	src, err := openSource(ctx)
	if err != nil {
		return nil, err
	}

	ruleCfg := rules.Union{rules.NewSet(cfg.DisabledRules...)}
	var fileRules *rules.FileConfig
	if cfg.RulesFile != "" {
		fileRules, err = rules.OpenFile(cfg.RulesFile, logger)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		ruleCfg = append(ruleCfg, fileRules)
	}

	builder := core.NewReportBuilder(src, core.BuildOptions{
		PastCycles:   cfg.PastCycles,
		BacklogLimit: cfg.BacklogLimit,
		Today:        cfg.Today,
	}).WithRuleConfig(ruleCfg).WithLogger(logger)
	if history := storeManager.GetHistoryStore(); history != nil {
		builder.WithHistory(history)
	}

	store := storeManager.GetCacheStore()
	if store == nil {
		store = iocache.NewMemoryCacheStore()
	}
	cache := iocache.NewReportCache(store, builder).WithTTL(cfg.CacheTTL).WithLogger(logger)

	return &engine{src: src, fileRules: fileRules, builder: builder, cache: cache}, nil
}

// openSource connects to the configured project data source.
func openSource(ctx context.Context) (contract.DataSource, error) {
	switch cfg.Source {
	case schema.PostgreSQLSource:
		src, err := postgres.Open(ctx, cfg.SourceConnect, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		src, err := fixture.Load(cfg.SourceConnect)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// Close releases the data source.
func (e *engine) Close() {
	if err := e.src.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close data source")
	}
}

// watchRules reloads the rules file in the background until ctx is done.
func (e *engine) watchRules(ctx context.Context) {
	if e.fileRules == nil {
		return
	}
	go func() {
		err := e.fileRules.Watch(ctx, func(set rules.Set) {
			logger.Info().Strs("disabled", set.Names()).Msg("rules file reloaded")
		})
		if err != nil {
			logger.Warn().Err(err).Str("path", e.fileRules.Path()).Msg("stopped watching rules file")
		}
	}()
}

// reports fetches one report per distinct project ID, in argument order.
func (e *engine) reports(ctx context.Context, projectIDs []string, force bool) ([]schema.StatisticsReport, error) {
	session := iocache.NewReportSession(e.cache)
	fetch := session.Get
	if force {
		fetch = session.ForceRefresh
	}

	var seen []string
	reports := make([]schema.StatisticsReport, 0, len(projectIDs))
	for _, id := range projectIDs {
		if slices.Contains(seen, id) {
			continue
		}
		seen = append(seen, id)
		report, err := fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", id, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// projectIDs returns the given IDs, or every project the source knows when none are given.
func (e *engine) projectIDs(ctx context.Context, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	lister, ok := e.src.(contract.ProjectLister)
	if !ok {
		return nil, fmt.Errorf("source %s cannot list projects; pass project IDs explicitly", cfg.Source)
	}
	return lister.ProjectIDs(ctx)
}
