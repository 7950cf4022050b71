package storage

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/internhub/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// SQLStore implements Store on PostgreSQL (pgx or lib/pq) or SQLite.
// Queries are written with ? placeholders and rebound per driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger *logrus.Logger
	now    func() time.Time
	locks  sync.Map // sqlite advisory locks, key -> struct{}
}

// Open connects using cfg.Type and applies the schema
func Open(ctx context.Context, cfg config.StorageConfig, logger *logrus.Logger) (*SQLStore, error) {
	switch cfg.Type {
	case "postgres":
		driver := cfg.Driver
		if driver == "" {
			driver = "pgx"
		}
		return NewPostgresStore(ctx, driver, cfg.DSN, logger)
	case "sqlite", "":
		return NewSQLiteStore(ctx, cfg.LocalPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// NewPostgresStore creates a PostgreSQL store. driver is "pgx" or "postgres".
func NewPostgresStore(ctx context.Context, driver, dsn string, logger *logrus.Logger) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &SQLStore{db: db, driver: driver, logger: logger, now: utcNow}
	if err := store.initSchema(ctx, "schema/postgres.sql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// NewSQLiteStore creates a SQLite store. path may be ":memory:".
func NewSQLiteStore(ctx context.Context, path string, logger *logrus.Logger) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	// A single connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		db.Exec("PRAGMA journal_mode = WAL")
	}

	store := &SQLStore{db: db, driver: "sqlite3", logger: logger, now: utcNow}
	if err := store.initSchema(ctx, "schema/sqlite.sql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLStore) initSchema(ctx context.Context, file string) error {
	schema, err := schemaFS.ReadFile(file)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(schema))
	return err
}

// DB exposes the underlying handle for packages that own their own tables
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Driver returns the database/sql driver name in use
func (s *SQLStore) Driver() string {
	return s.driver
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SetClock overrides the time source. Used by tests.
func (s *SQLStore) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

func (s *SQLStore) rebind(query string) string {
	return s.db.Rebind(query)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func notFound(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
