package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Phonezzzz/llmbridge/internal/core"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const (
	defaultDBFile      = "resources.db"
	defaultBusyTimeout = 5000 // milliseconds
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ Store             = (*sqliteStore)(nil)
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Config holds the YAML configuration for the resource store module.
type Config struct {
	// Path is the SQLite database file. Defaults to resources.db in the
	// application data directory.
	Path string `yaml:"path"`
}

// Module implements a SQLite-backed resource store. It uses
// modernc.org/sqlite (pure Go, no CGO) with WAL mode.
type Module struct {
	config Config
	db     *sql.DB
	store  *sqliteStore
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "resource.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("resource: decode config: %w", err)
	}
	return nil
}

// Provision implements core.Provisioner. It opens the database, migrates
// the schema, and publishes the store for other modules to discover.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	db, err := open(m.config.Path)
	if err != nil {
		return err
	}

	m.db = db
	m.store = &sqliteStore{db: db}
	ctx.RegisterService("resource.store", m.store)
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Store returns the provisioned store.
func (m *Module) Store() Store { return m.store }

// open creates the database file with WAL mode, a busy timeout, and a
// single connection (SQLite serialises writes), then migrates the schema.
func open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("resource: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("resource: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resource: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resource: set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resource: migrate schema: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id         TEXT PRIMARY KEY,
	media_type TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	data       BLOB,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resources_created_at ON resources(created_at);
`

// sqliteStore implements Store backed by SQLite.
type sqliteStore struct {
	db *sql.DB
}

// SaveImage implements Store.
func (s *sqliteStore) SaveImage(ctx context.Context, mediaType string, data []byte) (Handle, error) {
	h := Handle{
		ID:        uuid.NewString(),
		MediaType: mediaType,
		Size:      len(data),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, media_type, url, data, created_at)
		VALUES (?, ?, '', ?, ?)`,
		h.ID, h.MediaType, data, h.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Handle{}, fmt.Errorf("resource: save image: %w", err)
	}
	return h, nil
}

// SaveReference implements Store.
func (s *sqliteStore) SaveReference(ctx context.Context, url string) (Handle, error) {
	h := Handle{
		ID:        uuid.NewString(),
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, media_type, url, data, created_at)
		VALUES (?, '', ?, NULL, ?)`,
		h.ID, h.URL, h.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Handle{}, fmt.Errorf("resource: save reference: %w", err)
	}
	return h, nil
}

// Get implements Store.
func (s *sqliteStore) Get(ctx context.Context, id string) (Resource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, media_type, url, data, created_at
		FROM resources WHERE id = ?`, id)

	var r Resource
	var createdAt string
	if err := row.Scan(&r.ID, &r.MediaType, &r.URL, &r.Data, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resource{}, ErrNotFound
		}
		return Resource{}, fmt.Errorf("resource: get %s: %w", id, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Resource{}, fmt.Errorf("resource: parse created_at for %s: %w", id, err)
	}
	r.CreatedAt = ts
	r.Size = len(r.Data)
	return r, nil
}

// Prune implements Store.
func (s *sqliteStore) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("resource: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resource: rows affected: %w", err)
	}
	return int(n), nil
}
