package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/sprinthealth/internal/contract"
	"github.com/huangsam/sprinthealth/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// reportQueries holds the statements a SQLReportStore runs, rendered once per backend.
type reportQueries struct {
	create, get, upsert, remove, count, timeRange string
}

// newReportQueries renders the report table statements for a backend.
func newReportQueries(table string, backend schema.DatabaseBackend) reportQueries {
	t := quoteTableName(table, backend)
	p := placeholders(backend, 4)

	q := reportQueries{
		get:       fmt.Sprintf(`SELECT report_json, format_version, stored_at FROM %s WHERE report_key = %s`, t, p[0]),
		remove:    fmt.Sprintf(`DELETE FROM %s WHERE report_key = %s`, t, p[0]),
		count:     fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t),
		timeRange: fmt.Sprintf(`SELECT MAX(stored_at), MIN(stored_at) FROM %s`, t),
	}

	keyType, blobType, tsType := "TEXT", "BLOB", "INTEGER"
	switch backend {
	case schema.MySQLBackend:
		keyType, tsType = "VARCHAR(255)", "BIGINT"
		q.upsert = fmt.Sprintf(`INSERT INTO %s (report_key, report_json, format_version, stored_at) VALUES (?, ?, ?, ?) AS incoming
			ON DUPLICATE KEY UPDATE report_json = incoming.report_json, format_version = incoming.format_version, stored_at = incoming.stored_at`, t)
	case schema.PostgreSQLBackend:
		blobType, tsType = "BYTEA", "BIGINT"
		q.upsert = fmt.Sprintf(`INSERT INTO %s (report_key, report_json, format_version, stored_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (report_key) DO UPDATE SET report_json = EXCLUDED.report_json, format_version = EXCLUDED.format_version, stored_at = EXCLUDED.stored_at`, t)
	default: // SQLite
		q.upsert = fmt.Sprintf(`INSERT OR REPLACE INTO %s (report_key, report_json, format_version, stored_at) VALUES (?, ?, ?, ?)`, t)
	}
	q.create = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		report_key %s PRIMARY KEY,
		report_json %s NOT NULL,
		format_version INTEGER NOT NULL,
		stored_at %s NOT NULL
	)`, t, keyType, blobType, tsType)
	return q
}

// SQLReportStore keeps serialized reports in a SQL table, one row per project key.
// With the none backend it holds no connection and every lookup misses.
type SQLReportStore struct {
	db      *sql.DB
	table   string
	backend schema.DatabaseBackend
	connStr string
	queries reportQueries
}

var _ contract.CacheStore = &SQLReportStore{} // Compile-time check

// NewCacheStore opens the report cache for a backend. Memory returns a MemoryCacheStore.
func NewCacheStore(table string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	switch backend {
	case schema.NoneBackend:
		return &SQLReportStore{table: table, backend: backend, connStr: connStr}, nil
	case schema.MemoryBackend:
		return NewMemoryCacheStore(), nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be sqlite, mysql, postgresql, memory, or none", backend)
	}

	db, err := openDatabase(backend, connStr, GetDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	store := &SQLReportStore{
		db:      db,
		table:   table,
		backend: backend,
		connStr: connStr,
		queries: newReportQueries(table, backend),
	}
	if _, err := db.Exec(store.queries.create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return store, nil
}

// disabled is true for the none backend and after a failed open.
func (s *SQLReportStore) disabled() bool {
	return s.db == nil
}

// Get returns the stored report bytes, their format version and the unix time they were stored.
// A missing key yields sql.ErrNoRows.
func (s *SQLReportStore) Get(key string) ([]byte, int, int64, error) {
	if s.disabled() {
		return nil, 0, 0, sql.ErrNoRows
	}

	var (
		value    []byte
		version  int
		storedAt int64
	)
	if err := s.db.QueryRow(s.queries.get, key).Scan(&value, &version, &storedAt); err != nil {
		return nil, 0, 0, err
	}
	return value, version, storedAt, nil
}

// Set stores or replaces the report under key.
func (s *SQLReportStore) Set(key string, value []byte, version int, storedAt int64) error {
	if s.disabled() {
		return nil
	}
	_, err := s.db.Exec(s.queries.upsert, key, value, version, storedAt)
	return err
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *SQLReportStore) Delete(key string) error {
	if s.disabled() {
		return nil
	}
	_, err := s.db.Exec(s.queries.remove, key)
	return err
}

// Replace deletes and re-inserts the row for key in one transaction, so
// readers keep seeing the old row until the new one commits.
func (s *SQLReportStore) Replace(key string, value []byte, version int, storedAt int64) error {
	if s.disabled() {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin replace of %q: %w", key, err)
	}
	if _, err := tx.Exec(s.queries.remove, key); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to evict %q: %w", key, err)
	}
	if _, err := tx.Exec(s.queries.upsert, key, value, version, storedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return tx.Commit()
}

// Close releases the connection pool.
func (s *SQLReportStore) Close() error {
	if s.disabled() {
		return nil
	}
	return s.db.Close()
}

// GetStatus summarizes how many reports are cached and how old they are.
func (s *SQLReportStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(s.backend),
		Connected: !s.disabled(),
	}
	if s.disabled() {
		return status, nil
	}

	if err := s.db.QueryRow(s.queries.count).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to count cached reports: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var newest, oldest int64
	if err := s.db.QueryRow(s.queries.timeRange).Scan(&newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to read report timestamps: %w", err)
	}
	status.LastEntryTime = time.Unix(newest, 0)
	status.OldestEntryTime = time.Unix(oldest, 0)
	status.TableSizeBytes = s.tableSize(status.TotalEntries)
	return status, nil
}

// tableSize asks the backend for the on-disk size of the report table.
// Backends that cannot answer get a rough per-row estimate.
func (s *SQLReportStore) tableSize(entries int) int64 {
	estimate := int64(entries) * 1000
	var size int64

	var row *sql.Row
	switch s.backend {
	case schema.SQLiteBackend:
		row = s.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row = s.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, s.table)
	case schema.PostgreSQLBackend:
		row = s.db.QueryRow("SELECT pg_total_relation_size($1)", s.table)
	default:
		return estimate
	}
	if err := row.Scan(&size); err != nil {
		return estimate
	}
	return size
}
