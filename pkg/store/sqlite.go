package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mossygate/parley/pkg/world"
)

// SQLiteStore keeps every actor as a JSON document in a single database
// file, for deployments that prefer one artifact over a directory of files.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process engine. One shared connection avoids writer lock
	// contention under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS actors (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at_ms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init actor store: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, actorID string) (*world.Actor, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM actors WHERE id = ?`, actorID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, world.ErrActorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load actor %s: %w", actorID, err)
	}
	var actor world.Actor
	if err := json.Unmarshal([]byte(doc), &actor); err != nil {
		return nil, fmt.Errorf("decode actor %s: %w", actorID, err)
	}
	return &actor, nil
}

func (s *SQLiteStore) Save(ctx context.Context, actor *world.Actor) error {
	doc, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("encode actor %s: %w", actor.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO actors (id, doc, updated_at_ms) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at_ms = excluded.updated_at_ms`,
		actor.ID, string(doc), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save actor %s: %w", actor.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM actors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, actorID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actors WHERE id = ?`, actorID)
	if err != nil {
		return fmt.Errorf("delete actor %s: %w", actorID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return world.ErrActorNotFound
	}
	return nil
}
