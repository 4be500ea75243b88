// Package duckdb stores the ticker catalog and serves its filtered,
// cursor-paginated list reads.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tickerflow/tickerdesk/internal/duckdb/migrate"
	"github.com/tickerflow/tickerdesk/internal/logging"
	"github.com/tickerflow/tickerdesk/internal/model"
)

var (
	_ model.ListReader    = (*Store)(nil)
	_ model.CatalogWriter = (*Store)(nil)
)

// Store manages the DuckDB connection and provides catalog queries.
type Store struct {
	db           *sql.DB
	mu           sync.RWMutex
	dbPath       string
	logger       *log.Logger
	QueryTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithQueryTimeout bounds every query. Non-positive values keep the default.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.QueryTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore opens or creates a DuckDB database and applies pending migrations.
// If dbPath is empty, an in-memory database is used.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	if err := migrate.NewRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", displayPath(dbPath), err)
	}

	s := &Store{
		db:           db,
		dbPath:       dbPath,
		logger:       logging.Discard(),
		QueryTimeout: model.DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, or ":memory:" for an in-memory store.
func (s *Store) Path() string {
	return displayPath(s.dbPath)
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// MigrationStatus reports the applied schema version and pending migrations.
func (s *Store) MigrationStatus() (current, pending int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return migrate.NewRunner(s.db).Status()
}

// queryCtx derives a context bounded by the store's query timeout.
func (s *Store) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.QueryTimeout)
}

func displayPath(p string) string {
	if p == "" {
		return ":memory:"
	}
	return p
}
