package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
)

// Table names for report history.
const (
	reportRunsTable  = "sprinthealth_report_runs"
	reportStatsTable = "sprinthealth_report_stats"
)

// HistoryStoreImpl implements the HistoryStore interface on a SQL backend.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.MemoryBackend:
		return NewMemoryHistoryStore(), nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the history tables when they are missing.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{reportRunsTable, getCreateReportRunsQuery(backend)},
		{reportStatsTable, getCreateReportStatsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateReportRunsQuery returns the CREATE TABLE query for sprinthealth_report_runs.
func getCreateReportRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(reportRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				project_id VARCHAR(255) NOT NULL,
				computed_at BIGINT NOT NULL,
				duration_ms INT NOT NULL,
				score INT NOT NULL,
				succeeded_count INT NOT NULL,
				failed_count INT NOT NULL,
				forced BOOLEAN NOT NULL,
				report_json TEXT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				project_id TEXT NOT NULL,
				computed_at BIGINT NOT NULL,
				duration_ms INT NOT NULL,
				score INT NOT NULL,
				succeeded_count INT NOT NULL,
				failed_count INT NOT NULL,
				forced BOOLEAN NOT NULL,
				report_json TEXT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				project_id TEXT NOT NULL,
				computed_at INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL,
				score INTEGER NOT NULL,
				succeeded_count INTEGER NOT NULL,
				failed_count INTEGER NOT NULL,
				forced INTEGER NOT NULL,
				report_json TEXT NOT NULL
			);
		`, quotedTableName)
	}
}

// getCreateReportStatsQuery returns the CREATE TABLE query for sprinthealth_report_stats.
func getCreateReportStatsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(reportStatsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				project_id VARCHAR(255) NOT NULL,
				stat_name VARCHAR(100) NOT NULL,
				stat_value DOUBLE NOT NULL,
				PRIMARY KEY (run_id, stat_name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				project_id TEXT NOT NULL,
				stat_name TEXT NOT NULL,
				stat_value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, stat_name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				project_id TEXT NOT NULL,
				stat_name TEXT NOT NULL,
				stat_value REAL NOT NULL,
				PRIMARY KEY (run_id, stat_name)
			);
		`, quotedTableName)
	}
}

// newReportRunRecord flattens a run into its table row. RunID is left unset.
func newReportRunRecord(run schema.ReportRun) (schema.ReportRunRecord, error) {
	data, err := json.Marshal(run.Report)
	if err != nil {
		return schema.ReportRunRecord{}, fmt.Errorf("failed to marshal report: %w", err)
	}
	return schema.ReportRunRecord{
		ProjectID:      run.ProjectID,
		ComputedAt:     time.UnixMilli(run.ComputedAt.UnixMilli()).UTC(),
		DurationMs:     int32(run.Duration.Milliseconds()),
		Score:          int32(run.Report.Score()),
		SucceededCount: int32(len(run.Report.Succeeded())),
		FailedCount:    int32(len(run.Report.Failed())),
		Forced:         run.Forced,
		ReportJSON:     string(data),
	}, nil
}

// RecordRun stores a computed report and its stats in one transaction.
func (hs *HistoryStoreImpl) RecordRun(run schema.ReportRun) (int64, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	record, err := newReportRunRecord(run)
	if err != nil {
		return 0, err
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quotedRuns := quoteTableName(reportRunsTable, hs.backend)
	insertRun := fmt.Sprintf(`INSERT INTO %s (project_id, computed_at, duration_ms, score, succeeded_count, failed_count, forced, report_json)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`, append([]any{quotedRuns}, placeholders(hs.backend, 8)...)...)
	args := []any{
		record.ProjectID, record.ComputedAt.UnixMilli(), record.DurationMs, record.Score,
		record.SucceededCount, record.FailedCount, record.Forced, record.ReportJSON,
	}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		if err := tx.QueryRow(insertRun+" RETURNING run_id", args...).Scan(&runID); err != nil {
			return 0, fmt.Errorf("failed to insert report run: %w", err)
		}
	default: // SQLite and MySQL
		result, err := tx.Exec(insertRun, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert report run: %w", err)
		}
		if runID, err = result.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to read report run ID: %w", err)
		}
	}

	quotedStats := quoteTableName(reportStatsTable, hs.backend)
	insertStat := fmt.Sprintf(`INSERT INTO %s (run_id, project_id, stat_name, stat_value) VALUES (%s, %s, %s, %s)`,
		append([]any{quotedStats}, placeholders(hs.backend, 4)...)...)
	for _, stat := range newReportStatRecords(runID, run.Report) {
		if _, err := tx.Exec(insertStat, stat.RunID, stat.ProjectID, stat.StatName, stat.StatValue); err != nil {
			return 0, fmt.Errorf("failed to insert stat %s: %w", stat.StatName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit report run: %w", err)
	}
	return runID, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(reportRunsTable, hs.backend)
	summaryQuery := fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT project_id) FROM %s", quotedRuns)
	if err := hs.db.QueryRow(summaryQuery).Scan(&status.TotalRuns, &status.DistinctProjects); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastMs, oldestMs int64
		lastQuery := fmt.Sprintf("SELECT run_id, computed_at FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &lastMs); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldestQuery := fmt.Sprintf("SELECT computed_at FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(oldestQuery).Scan(&oldestMs); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = time.UnixMilli(lastMs).UTC()
		status.OldestRunTime = time.UnixMilli(oldestMs).UTC()
	}

	for _, table := range []string{reportRunsTable, reportStatsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))
		if err := hs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all report runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.ReportRunRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, project_id, computed_at, duration_ms, score, succeeded_count, failed_count, forced, report_json
		FROM %s ORDER BY run_id`, quoteTableName(reportRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportRunRecord
	for rows.Next() {
		var record schema.ReportRunRecord
		var computedMs int64
		if err := rows.Scan(&record.RunID, &record.ProjectID, &computedMs, &record.DurationMs, &record.Score,
			&record.SucceededCount, &record.FailedCount, &record.Forced, &record.ReportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		record.ComputedAt = time.UnixMilli(computedMs).UTC()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return results, nil
}

// GetAllStats retrieves all recorded stat values from the store.
func (hs *HistoryStoreImpl) GetAllStats() ([]schema.ReportStatRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, project_id, stat_name, stat_value FROM %s ORDER BY run_id, stat_name`,
		quoteTableName(reportStatsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportStatRecord
	for rows.Next() {
		var record schema.ReportStatRecord
		if err := rows.Scan(&record.RunID, &record.ProjectID, &record.StatName, &record.StatValue); err != nil {
			return nil, fmt.Errorf("failed to scan report stat: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report stats: %w", err)
	}
	return results, nil
}
