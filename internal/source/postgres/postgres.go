// Package postgres reads project, cycle and backlog data from a PostgreSQL
// tracker database through a pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

const pingTimeout = 10 * time.Second

// Source is a DataSource backed by a pgx pool. It is safe for concurrent use.
type Source struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ contract.DataSource = &Source{} // Compile-time check

// Open connects to the tracker database and verifies the connection.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Source, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid source connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create source pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to source database: %w", err)
	}

	log.Debug().Str("host", cfg.ConnConfig.Host).Str("database", cfg.ConnConfig.Database).Msg("source connected")
	return &Source{pool: pool, log: log}, nil
}

// EnsureSchema creates the tracker tables when they are missing.
func (s *Source) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create source schema: %w", err)
	}
	return nil
}

// Pool exposes the underlying pool, mostly for seeding data in tests.
func (s *Source) Pool() *pgxpool.Pool { return s.pool }

// Close implements the DataSource interface.
func (s *Source) Close() error {
	s.pool.Close()
	return nil
}

// Project implements the ProjectProvider interface.
func (s *Source) Project(ctx context.Context, projectID string) (schema.Project, error) {
	var p schema.Project
	err := s.pool.QueryRow(ctx, `SELECT id, name, status FROM projects WHERE id = $1`, projectID).
		Scan(&p.ID, &p.Name, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return schema.Project{}, fmt.Errorf("%w: %s", contract.ErrProjectNotFound, projectID)
	}
	if err != nil {
		return schema.Project{}, fmt.Errorf("failed to query project %s: %w", projectID, err)
	}
	return p, nil
}

const cycleColumns = `id, project_id, name, start_date, end_date, status, has_notes, has_activity`

// ActiveCycle implements the CycleProvider interface.
func (s *Source) ActiveCycle(ctx context.Context, projectID string, today time.Time) (*schema.Cycle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+cycleColumns+` FROM cycles
		WHERE project_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
		ORDER BY start_date DESC, id DESC LIMIT 1`, projectID, schema.CycleOpen, dateOf(today))
	if err != nil {
		return nil, fmt.Errorf("failed to query active cycle: %w", err)
	}
	cycles, err := collectCycles(rows)
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, nil
	}
	return &cycles[0], nil
}

// PastCycles implements the CycleProvider interface.
func (s *Source) PastCycles(ctx context.Context, projectID string, today time.Time, limit int) ([]schema.Cycle, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+cycleColumns+` FROM cycles
		WHERE project_id = $1 AND start_date IS NOT NULL AND end_date IS NOT NULL AND end_date < $2
		ORDER BY end_date DESC, id DESC LIMIT $3`, projectID, dateOf(today), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query past cycles: %w", err)
	}
	return collectCycles(rows)
}

// CycleProgress implements the ProgressProvider interface.
func (s *Source) CycleProgress(ctx context.Context, cycle schema.Cycle) (schema.ProgressSeries, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT day, points_committed, points_accepted, hours_remaining, points_remaining
		FROM cycle_progress WHERE cycle_id = $1 ORDER BY day`, cycle.ID)
	if err != nil {
		return schema.ProgressSeries{}, false, fmt.Errorf("failed to query progress of cycle %d: %w", cycle.ID, err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (progressPoint, error) {
		var p progressPoint
		err := row.Scan(&p.Day, &p.PointsCommitted, &p.PointsAccepted, &p.HoursRemaining, &p.PointsRemaining)
		return p, err
	})
	if err != nil {
		return schema.ProgressSeries{}, false, fmt.Errorf("failed to read progress of cycle %d: %w", cycle.ID, err)
	}
	series := assembleSeries(points)
	return series, !series.IsEmpty(), nil
}

// ItemProgress implements the ProgressProvider interface.
func (s *Source) ItemProgress(ctx context.Context, item schema.BacklogItem) (schema.ProgressSeries, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT day, hours_remaining, points_remaining
		FROM item_progress WHERE item_id = $1 ORDER BY day`, item.ID)
	if err != nil {
		return schema.ProgressSeries{}, false, fmt.Errorf("failed to query progress of item %d: %w", item.ID, err)
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (progressPoint, error) {
		var p progressPoint
		err := row.Scan(&p.Day, &p.HoursRemaining, &p.PointsRemaining)
		return p, err
	})
	if err != nil {
		return schema.ProgressSeries{}, false, fmt.Errorf("failed to read progress of item %d: %w", item.ID, err)
	}
	series := assembleSeries(points)
	return series, !series.IsEmpty(), nil
}

const itemColumns = `id, project_id, subject, kind, cycle_id, story_points, estimated_hours, position, closed`

// ProductBacklog implements the BacklogProvider interface.
func (s *Source) ProductBacklog(ctx context.Context, projectID string, limit int) ([]schema.BacklogItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items
		WHERE project_id = $1 AND kind = $2 AND cycle_id IS NULL AND NOT closed
		ORDER BY position, id LIMIT $3`, projectID, schema.StoryItem, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query product backlog: %w", err)
	}
	return collectItems(rows)
}

// CycleItems implements the BacklogProvider interface.
func (s *Source) CycleItems(ctx context.Context, cycleIDs []int64) ([]schema.BacklogItem, error) {
	if len(cycleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM items
		WHERE cycle_id = ANY($1) ORDER BY id`, cycleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle items: %w", err)
	}
	return collectItems(rows)
}

// ProjectIDs returns every project ID in ascending order.
func (s *Source) ProjectIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func collectCycles(rows pgx.Rows) ([]schema.Cycle, error) {
	cycles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Cycle, error) {
		var c schema.Cycle
		err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &c.HasNotes, &c.HasActivity)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cycles: %w", err)
	}
	for i := range cycles {
		cycles[i].StartDate = utcDate(cycles[i].StartDate)
		cycles[i].EndDate = utcDate(cycles[i].EndDate)
	}
	return cycles, nil
}

func collectItems(rows pgx.Rows) ([]schema.BacklogItem, error) {
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.BacklogItem, error) {
		var it schema.BacklogItem
		err := row.Scan(&it.ID, &it.ProjectID, &it.Subject, &it.Kind, &it.CycleID,
			&it.StoryPoints, &it.EstimatedHours, &it.Position, &it.Closed)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read backlog items: %w", err)
	}
	return items, nil
}

// dateOf strips the clock so DATE comparisons use the calendar day of t.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOf(*t)
	return &d
}
