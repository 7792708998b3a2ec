// Package store keeps a library of named scene records in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/coreman2200/funtimes-ncube/internal/record"
)

var ErrNotFound = errors.New("scene not found")

// fixed width so updated_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Scene is one stored record with its library metadata.
type Scene struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Dimension int           `json:"dimension"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Record    record.Record `json:"record"`
}

// Summary describes a scene without its record.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the scene library at path. ":memory:" gives
// a private in-memory library.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("scene library open")
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scenes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			dimension INTEGER NOT NULL,
			record_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scenes_updated ON scenes(updated_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores r under name and returns the scene id. Saving an existing name
// replaces its record and keeps its id.
func (s *Store) Save(ctx context.Context, name string, r record.Record) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("scene name required")
	}
	if err := r.Check(); err != nil {
		return "", err
	}
	raw, err := record.Encode(r)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenes (id, name, dimension, record_json, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET dimension=excluded.dimension, record_json=excluded.record_json, updated_at=excluded.updated_at`,
		uuid.NewString(), name, r.Dimension, string(raw), now)
	if err != nil {
		return "", fmt.Errorf("save scene %q: %w", name, err)
	}
	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM scenes WHERE name=?`, name).Scan(&id); err != nil {
		return "", err
	}
	log.Info().Str("scene", name).Str("id", id).Int("dimension", r.Dimension).Msg("scene saved")
	return id, nil
}

// Load returns the scene with the given id.
func (s *Store) Load(ctx context.Context, id string) (Scene, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Scene{}, fmt.Errorf("%w: bad id %q", ErrNotFound, id)
	}
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, name, dimension, record_json, updated_at FROM scenes WHERE id=?`, id))
}

// LoadByName returns the scene saved under name.
func (s *Store) LoadByName(ctx context.Context, name string) (Scene, error) {
	return s.scan(s.db.QueryRowContext(ctx,
		`SELECT id, name, dimension, record_json, updated_at FROM scenes WHERE name=?`, strings.TrimSpace(name)))
}

func (s *Store) scan(row *sql.Row) (Scene, error) {
	var (
		sc      Scene
		raw     string
		updated string
	)
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Dimension, &raw, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scene{}, ErrNotFound
		}
		return Scene{}, err
	}
	rec, err := record.Decode([]byte(raw))
	if err != nil {
		return Scene{}, fmt.Errorf("scene %s: %w", sc.ID, err)
	}
	sc.Record = rec
	sc.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return sc, nil
}

// List returns every scene, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, dimension, updated_at FROM scenes ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var (
			sm      Summary
			updated string
		)
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Dimension, &updated); err != nil {
			return nil, err
		}
		sm.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Delete removes the scene with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Info().Str("id", id).Msg("scene deleted")
	return nil
}
