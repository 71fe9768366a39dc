package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"DigiiBuz/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Store is the SQL-backed implementation of every repository port.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// Open connects to Postgres or SQLite and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case DriverPostgres:
	case DriverSQLite, "":
		driver = DriverSQLite
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = withSQLitePragmas(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := New(db, driver)
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// New wraps an existing connection. The schema is not touched.
func New(db *sql.DB, driver string) *Store {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &Store{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format).RunWith(db),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS wordpress_configs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    site_url TEXT NOT NULL,
    app_username TEXT NOT NULL DEFAULT '',
    app_password TEXT NOT NULL DEFAULT '',
    rest_api_key TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL DEFAULT '',
    password TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS categories_keywords (
    id TEXT PRIMARY KEY,
    wordpress_config_id TEXT NOT NULL,
    category_id TEXT NOT NULL,
    category_name TEXT NOT NULL DEFAULT '',
    keyword TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS localities (
    id TEXT PRIMARY KEY,
    wordpress_config_id TEXT NOT NULL,
    name TEXT NOT NULL,
    region TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS tome_automation (
    id TEXT PRIMARY KEY,
    wordpress_config_id TEXT NOT NULL,
    is_enabled INTEGER NOT NULL DEFAULT 0,
    frequency REAL NOT NULL DEFAULT 1,
    api_key TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tome_generations (
    id TEXT PRIMARY KEY,
    wordpress_config_id TEXT NOT NULL,
    category_id TEXT NOT NULL DEFAULT '',
    keyword_id TEXT NOT NULL DEFAULT '',
    locality_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    wordpress_post_id BIGINT,
    published_at TEXT,
    scheduled_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tome_generations_config ON tome_generations (wordpress_config_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS announcements (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    wordpress_config_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    images TEXT NOT NULL DEFAULT '[]',
    seo_title TEXT NOT NULL DEFAULT '',
    meta_description TEXT NOT NULL DEFAULT '',
    seo_slug TEXT NOT NULL DEFAULT '',
    publish_date TEXT,
    status TEXT NOT NULL DEFAULT 'draft',
    wordpress_post_id BIGINT,
    wordpress_category_id TEXT NOT NULL DEFAULT '',
    is_divipixel INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
)`,
}

// withSQLitePragmas applies WAL and a busy timeout to every pooled
// connection, not just the first one.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i > 0 {
		return stmt[:i]
	}
	return stmt
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Parse(time.RFC3339Nano, raw)
	}
	return t, nil
}

func parseTimePtr(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}
