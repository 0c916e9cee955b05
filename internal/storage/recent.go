/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "godiagram/internal/log"
	"godiagram/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// RecentFileName is the index file name inside the user config dir.
	RecentFileName = "recent.sqlite"

	// recentSchemaVersion tracks the SQLite schema of the recent-documents index.
	// Bump this when you change the schema and add a migration step.
	recentSchemaVersion = 2
)

// RecentEntry is one remembered document.
type RecentEntry struct {
	Path     string
	Elements int
	OpenedAt time.Time
}

// Recent is the index of recently opened or saved documents.
type Recent struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// DefaultRecentPath returns <user config dir>/godiagram/recent.sqlite.
func DefaultRecentPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "godiagram", RecentFileName), nil
}

// OpenRecent opens or creates the index at dbPath, enables WAL mode and brings the schema
// up to date.
func OpenRecent(dbPath string) (*Recent, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "recent_open").With(slog.String("path", dbPath))
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("recent index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(dbPath))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := migrateRecent(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("recent index ready")
	return &Recent{db: db, path: dbPath, log: l}, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database: start at schema 0 so every migration step runs.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 0, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// recentMigrations[i] brings the schema from version i to i+1.
var recentMigrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS recent (
			path      TEXT PRIMARY KEY,
			elements  INTEGER NOT NULL DEFAULT 0,
			opened_at TEXT NOT NULL
		);`,
	},
	{
		`ALTER TABLE recent ADD COLUMN seq INTEGER NOT NULL DEFAULT 0;`,
		`CREATE INDEX IF NOT EXISTS idx_recent_seq ON recent(seq);`,
	},
}

func migrateRecent(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for ; cur < recentSchemaVersion; cur++ {
		next := cur + 1
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range recentMigrations[cur] {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
	}
	return nil
}

// Touch records docPath as the most recently used document.
func (r *Recent) Touch(ctx context.Context, docPath string, elements int) error {
	abs, err := filepath.Abs(docPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recent (path, elements, opened_at, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recent))
		ON CONFLICT(path) DO UPDATE SET
			elements  = excluded.elements,
			opened_at = excluded.opened_at,
			seq       = excluded.seq`, abs, elements, now)
	if err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	return nil
}

// List returns up to limit entries, most recent first. limit <= 0 means all.
func (r *Recent) List(ctx context.Context, limit int) ([]RecentEntry, error) {
	q := `SELECT path, elements, opened_at FROM recent ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	var out []RecentEntry
	for rows.Next() {
		var e RecentEntry
		var at string
		if err := rows.Scan(&e.Path, &e.Elements, &at); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.OpenedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget removes docPath from the index.
func (r *Recent) Forget(ctx context.Context, docPath string) error {
	abs, err := filepath.Abs(docPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recent WHERE path = ?`, abs); err != nil {
		return fmt.Errorf("forget recent: %w", err)
	}
	return nil
}

// Prune keeps only the keep most recent entries.
func (r *Recent) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM recent WHERE path NOT IN (
			SELECT path FROM recent ORDER BY seq DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune recent: %w", err)
	}
	return nil
}

// Path returns the index file location.
func (r *Recent) Path() string { return r.path }

func (r *Recent) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
