// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists validated extraction documents into relational
// tables: articles deduplicated by PMID or DOI, an append-only archive of
// raw payloads, flattened evidence spans, and derived survival comparisons.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bclc-extractor/pkg/types"
)

const (
	defaultSQLitePath = "data/bclc.db"
	sqliteParams      = "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
)

// Store owns the connection pool for one database. Construct it once at
// startup with Open and share it; every InsertExtraction call runs in its
// own transaction.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time

	// resolve finds the articles holding a PMID or DOI, oldest first.
	resolve func(ctx context.Context, tx *sql.Tx, pmid, doi *string) ([]articleMatch, error)
}

// Open connects to the database described by cfg and creates any missing
// tables. An empty driver means sqlite3; an empty sqlite3 DSN means
// data/bclc.db.
func Open(cfg types.DatabaseConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = types.DriverSQLite
	}

	var dsn string
	var d dialect
	switch driver {
	case types.DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = defaultSQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = sqliteDSN(path)
		d = sqliteDialect
	case types.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for driver %s", driver)
		}
		dsn = cfg.DSN
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported database driver %q: use %s or %s",
			driver, types.DriverSQLite, types.DriverPostgres)
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &Store{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.resolve = s.matchArticles

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("querying database: %w", err)
	}
	return nil
}

// InitSchema creates the tables and indexes if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// dialect captures the differences between the supported databases.
type dialect struct {
	name string

	// numbered placeholders ($1, $2, ...) instead of '?'.
	numbered bool

	// jsonParam is the SQL expression that binds a JSON text parameter.
	jsonParam string

	schema []string
}

// rebind rewrites '?' placeholders for dialects that number them.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
