// Package fixture stores static topology fixtures (project, repository and
// language byte counts) in a SQL database so that runs can replay them.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/schema"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "modernc.org/sqlite"              // SQLite driver
)

// Table names for the topology fixture.
const (
	topologyTable = "tribal_topology"
	importsTable  = "tribal_imports"
)

// insertBatch bounds the rows per INSERT so every backend stays under its
// bind parameter limit.
const insertBatch = 500

var (
	// ErrEmptyFixture is returned when the store holds no topology rows.
	ErrEmptyFixture = errors.New("topology fixture is empty; run 'tribal fixture import' first")

	// ErrFixtureDisabled is returned when reading or writing through the none backend.
	ErrFixtureDisabled = errors.New("fixture backend is none; set --fixture-backend to sqlite, mysql or postgresql")
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DefaultDBFilePath returns the path to the SQLite DB file for fixture storage.
func DefaultDBFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tribal_fixture.db"
	}
	return filepath.Join(home, ".tribal_fixture.db")
}

// StoreImpl implements the FixtureStore interface on top of sqlx.
type StoreImpl struct {
	db      *sqlx.DB
	backend schema.DatabaseBackend
}

var _ contract.FixtureStore = &StoreImpl{} // Compile-time check

// importRow is the stored form of schema.ImportRecord.
type importRow struct {
	ImportID   string `db:"import_id"`
	Source     string `db:"source"`
	Rows       int    `db:"row_count"`
	ImportedAt int64  `db:"imported_at"` // Unix milliseconds
}

func (r importRow) record() schema.ImportRecord {
	return schema.ImportRecord{
		ImportID:   r.ImportID,
		Source:     r.Source,
		Rows:       r.Rows,
		ImportedAt: time.UnixMilli(r.ImportedAt).UTC(),
	}
}

// driverName maps a backend onto its database/sql driver.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// open connects to the backend and verifies the connection.
func open(backend schema.DatabaseBackend, connStr string) (*sqlx.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = DefaultDBFilePath()
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dsn, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		default:
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=... password=...", err)
		}
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, nil
}

// NewStore creates a fixture store for the backend and makes sure its tables exist.
// The none backend yields a store that refuses reads and writes.
func NewStore(backend schema.DatabaseBackend, connStr string) (contract.FixtureStore, error) {
	if backend == schema.NoneBackend {
		return &StoreImpl{backend: backend}, nil
	}
	db, err := open(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create fixture tables: %w", err)
	}
	zap.L().Debug("Opened fixture store", zap.String("backend", string(backend)))
	return &StoreImpl{db: db, backend: backend}, nil
}

// createTables applies every embedded up migration. Each one is idempotent,
// so a store opened before or after 'fixture migrate' ends up with the same schema.
func createTables(db *sqlx.DB) error {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	slices.Sort(files)
	for _, name := range files {
		query, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(strings.TrimSpace(string(query))); err != nil {
			return fmt.Errorf("failed to apply %s: %w", filepath.Base(name), err)
		}
	}
	return nil
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + name + "`"
	default: // SQLite and PostgreSQL
		return `"` + name + `"`
	}
}

func (s *StoreImpl) table(name string) string {
	return quoteTableName(name, s.backend)
}

func (s *StoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// ImportUsage replaces the stored topology with rows inside one transaction
// and appends an entry to the import log.
func (s *StoreImpl) ImportUsage(ctx context.Context, source string, rows []schema.LanguageUsage) (int, error) {
	if s.disabled() {
		return 0, ErrFixtureDisabled
	}
	if len(rows) == 0 {
		return 0, errors.New("refusing to import an empty topology")
	}
	if err := schema.ValidateTopology(rows); err != nil {
		return 0, fmt.Errorf("invalid topology: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table(topologyTable))); err != nil {
		return 0, fmt.Errorf("failed to clear previous topology: %w", err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (project_id, repository_id, language, byte_count) VALUES (:project_id, :repository_id, :language, :byte_count)",
		s.table(topologyTable))
	for chunk := range slices.Chunk(rows, insertBatch) {
		if _, err := tx.NamedExecContext(ctx, insert, chunk); err != nil {
			return 0, fmt.Errorf("failed to insert topology rows: %w", err)
		}
	}

	record := importRow{
		ImportID:   uuid.NewString(),
		Source:     source,
		Rows:       len(rows),
		ImportedAt: time.Now().UnixMilli(),
	}
	logInsert := fmt.Sprintf(
		"INSERT INTO %s (import_id, source, row_count, imported_at) VALUES (:import_id, :source, :row_count, :imported_at)",
		s.table(importsTable))
	if _, err := tx.NamedExecContext(ctx, logInsert, record); err != nil {
		return 0, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	zap.L().Info("Imported topology fixture",
		zap.String("import_id", record.ImportID), zap.String("source", source), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// LoadUsage returns the stored topology in project, repository, language order.
func (s *StoreImpl) LoadUsage(ctx context.Context) ([]schema.LanguageUsage, error) {
	if s.disabled() {
		return nil, ErrFixtureDisabled
	}
	query := fmt.Sprintf(
		"SELECT project_id, repository_id, language, byte_count FROM %s ORDER BY project_id, repository_id, language",
		s.table(topologyTable))
	var usage []schema.LanguageUsage
	if err := s.db.SelectContext(ctx, &usage, query); err != nil {
		return nil, fmt.Errorf("failed to read topology: %w", err)
	}
	if len(usage) == 0 {
		return nil, ErrEmptyFixture
	}
	return usage, nil
}

// History returns the import log, newest first.
func (s *StoreImpl) History(ctx context.Context) ([]schema.ImportRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(
		"SELECT import_id, source, row_count, imported_at FROM %s ORDER BY imported_at DESC, import_id",
		s.table(importsTable))
	var rows []importRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to read import log: %w", err)
	}
	records := make([]schema.ImportRecord, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

// Clear removes all topology rows and the import log.
func (s *StoreImpl) Clear(ctx context.Context) error {
	if s.disabled() {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{topologyTable, importsTable} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table(table))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// GetStatus returns status information about the fixture store.
func (s *StoreImpl) GetStatus(ctx context.Context) (schema.FixtureStatus, error) {
	status := schema.FixtureStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.disabled() {
		return status, nil
	}

	topology := s.table(topologyTable)
	row := s.db.QueryRowxContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*), COUNT(DISTINCT project_id), COALESCE(SUM(byte_count), 0) FROM %s", topology))
	if err := row.Scan(&status.Rows, &status.Projects, &status.TotalBytes); err != nil {
		return status, fmt.Errorf("failed to get topology size: %w", err)
	}

	row = s.db.QueryRowxContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM (SELECT DISTINCT project_id, repository_id FROM %s) AS repos", topology))
	if err := row.Scan(&status.Repositories); err != nil {
		return status, fmt.Errorf("failed to get repository count: %w", err)
	}

	row = s.db.QueryRowxContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table(importsTable)))
	if err := row.Scan(&status.Imports); err != nil {
		return status, fmt.Errorf("failed to get import count: %w", err)
	}

	if status.Imports > 0 {
		var last importRow
		query := fmt.Sprintf(
			"SELECT import_id, source, row_count, imported_at FROM %s ORDER BY imported_at DESC LIMIT 1",
			s.table(importsTable))
		if err := s.db.GetContext(ctx, &last, query); err != nil {
			return status, fmt.Errorf("failed to get last import: %w", err)
		}
		status.LastImport = last.record().ImportedAt
		status.LastSource = last.Source
	}

	// The version table only exists once 'fixture migrate' has run.
	var version struct {
		Version int64 `db:"version"`
		Dirty   bool  `db:"dirty"`
	}
	if err := s.db.GetContext(ctx, &version, "SELECT version, dirty FROM schema_migrations LIMIT 1"); err == nil && version.Version > 0 {
		status.SchemaVersion = uint(version.Version)
		status.Dirty = version.Dirty
	}
	return status, nil
}

// Close closes the underlying DB connection.
func (s *StoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
