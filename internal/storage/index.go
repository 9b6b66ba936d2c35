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
	"sort"
	"strings"
	"time"

	applog "github.com/KenanMathews/vn-story-editor/internal/log"
	"github.com/KenanMathews/vn-story-editor/internal/story"
	"github.com/KenanMathews/vn-story-editor/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the project root.
	IndexDirName  = ".vns"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at .vns/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .vns dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .vns dir: %w", err)
	}

	path := IndexPath(projectRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ensure WAL mode is active.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
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
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; leave the newer schema alone
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add lookup indexes for scene and speaker filters
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_documents_scene ON documents(scene);`,
				`CREATE INDEX IF NOT EXISTS idx_documents_speaker ON documents(speaker);`,
			}
			for _, q := range stmts {
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
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_documents(fts_documents) VALUES('optimize')`); err != nil {
				// ignore; optimize is advisory
			}
		default:
			// Unknown future step; nothing to apply
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Core documents table: one row per searchable story line (narration,
		// dialogue, choices, metadata).
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id  INTEGER PRIMARY KEY,
			type    TEXT    NOT NULL,
			path    TEXT    NOT NULL,
			scene   TEXT,
			line    INTEGER,
			speaker TEXT,
			text    TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);`,

		// Contentless FTS5 index fed from documents via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Declared assets by key, for quick lookup from the editor
		`CREATE TABLE IF NOT EXISTS assets (
			key  TEXT PRIMARY KEY,
			url  TEXT NOT NULL,
			type TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_url ON assets(url);`,

		// Story snapshots (history of story text for change tracking)
		`CREATE TABLE IF NOT EXISTS story_snapshots (
			id    INTEGER PRIMARY KEY,
			ts    TEXT    NOT NULL,
			text  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_story_snapshots_ts ON story_snapshots(ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for contentless FTS synchronization with documents.text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, text) VALUES ('delete', old.doc_id, old.text);
			INSERT INTO fts_documents(rowid, text) VALUES (new.doc_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, doc *story.Document) (bool, error) {
	path := IndexPath(projectRoot)
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, projectRoot, doc); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	// quick_check for corruption
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	// Probe core table
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM documents LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, projectRoot, doc); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .vns/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty ensures the DB exists and, if the documents table has no
// rows yet, populates it from the given story document.
func BuildIndexIfEmpty(ctx context.Context, projectRoot string, doc *story.Document) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents;").Scan(&cnt); err != nil {
		return fmt.Errorf("check documents count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildDocumentsFromStory(ctx, db, doc)
}

// UpdateIndex replaces the indexed content with rows derived from the story document.
func UpdateIndex(ctx context.Context, projectRoot string, doc *story.Document) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildDocumentsFromStory(ctx, db, doc)
}

// RebuildIndex drops and recreates core index tables and rebuilds content from the story document.
// It preserves meta/version and story_snapshots. This is a safe operation; the
// index is derived from the story files.
func RebuildIndex(ctx context.Context, projectRoot string, doc *story.Document) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	drops := []string{
		"DROP TABLE IF EXISTS assets;",
		"DROP TRIGGER IF EXISTS documents_ai;",
		"DROP TRIGGER IF EXISTS documents_ad;",
		"DROP TRIGGER IF EXISTS documents_au;",
		"DROP TABLE IF EXISTS documents;",
		"DROP TABLE IF EXISTS fts_documents;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildDocumentsFromStory(ctx, db, doc)
}

type indexRow struct {
	typeStr string
	path    string
	scene   sql.NullString
	line    sql.NullInt64
	speaker sql.NullString
	text    string
}

// collectStoryRows flattens a story document into index rows. Scene names are
// walked in sorted order so rebuilds are deterministic.
func collectStoryRows(doc *story.Document) []indexRow {
	rows := make([]indexRow, 0, 256)
	if doc == nil {
		return rows
	}
	if s := strings.TrimSpace(doc.Title); s != "" {
		rows = append(rows, indexRow{typeStr: "title", path: "story:title", text: s})
	}
	if s := strings.TrimSpace(doc.Description); s != "" {
		rows = append(rows, indexRow{typeStr: "description", path: "story:description", text: s})
	}

	sceneNames := make([]string, 0, len(doc.Scenes))
	for name := range doc.Scenes {
		sceneNames = append(sceneNames, name)
	}
	sort.Strings(sceneNames)

	for _, name := range sceneNames {
		sceneCol := sql.NullString{String: name, Valid: true}
		for i, raw := range doc.Scenes[name] {
			lineCol := sql.NullInt64{Int64: int64(i + 1), Valid: true}
			base := fmt.Sprintf("scene:%s/%d", name, i+1)
			switch story.ClassifyInstruction(raw) {
			case story.KindNarration:
				if s := strings.TrimSpace(raw.(string)); s != "" {
					rows = append(rows, indexRow{typeStr: "narration", path: base, scene: sceneCol, line: lineCol, text: s})
				}
			case story.KindDialogue:
				m := raw.(map[string]any)
				speaker := sql.NullString{}
				if sp, ok := m["speaker"].(string); ok && strings.TrimSpace(sp) != "" {
					speaker = sql.NullString{String: strings.TrimSpace(sp), Valid: true}
				}
				text, _ := m["text"].(string)
				if text == "" {
					text, _ = m["say"].(string)
				}
				if s := strings.TrimSpace(text); s != "" {
					rows = append(rows, indexRow{typeStr: "dialogue", path: base, scene: sceneCol, line: lineCol, speaker: speaker, text: s})
				}
				if choices, ok := m["choices"].([]any); ok {
					for ci, c := range choices {
						cm, ok := c.(map[string]any)
						if !ok {
							continue
						}
						if ct, ok := cm["text"].(string); ok && strings.TrimSpace(ct) != "" {
							rows = append(rows, indexRow{
								typeStr: "choice",
								path:    fmt.Sprintf("%s/choice:%d", base, ci+1),
								scene:   sceneCol,
								line:    lineCol,
								text:    strings.TrimSpace(ct),
							})
						}
					}
				}
			case story.KindJump:
				m := raw.(map[string]any)
				target, _ := m["goto"].(string)
				if target == "" {
					target, _ = m["jump"].(string)
				}
				if s := strings.TrimSpace(target); s != "" {
					rows = append(rows, indexRow{typeStr: "jump", path: base, scene: sceneCol, line: lineCol, text: s})
				}
			}
		}
	}
	return rows
}

// rebuildDocumentsFromStory replaces the documents and assets content from the story document.
func rebuildDocumentsFromStory(ctx context.Context, db *sql.DB, doc *story.Document) error {
	rows := collectStoryRows(doc)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear documents: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO documents(type, path, scene, line, speaker, text) VALUES(?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.typeStr, r.path, r.scene, r.line, r.speaker, r.text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert document: %w", err)
		}
	}
	// Refresh the declared assets table from the document.
	if _, err := tx.ExecContext(ctx, "DELETE FROM assets;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear assets: %w", err)
	}
	if doc != nil {
		ains, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO assets(key, url, type) VALUES(?,?,?);")
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("prepare asset insert: %w", err)
		}
		defer ains.Close()
		for _, a := range doc.Assets {
			key, _ := a["key"].(string)
			url, _ := a["url"].(string)
			typ, _ := a["type"].(string)
			if strings.TrimSpace(key) == "" || strings.TrimSpace(url) == "" {
				continue
			}
			if _, err := ains.ExecContext(ctx, key, url, typ); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert asset: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
