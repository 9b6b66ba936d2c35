/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Scene matches the scene name exactly, Speaker
// case-insensitively. Types can restrict to kinds like: narration, dialogue,
// choice, jump, title, description.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text    string
	Scene   string
	Speaker string
	Types   []string
	Limit   int
	Offset  int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
// Line is the 1-based instruction position within the scene, 0 when unknown.
type SearchResult struct {
	DocID   int64
	Type    string
	Path    string
	Scene   string
	Line    int
	Speaker string
	Snippet string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over documents with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.scene,''), COALESCE(d.line,0), COALESCE(d.speaker,''), snippet(fts_documents, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id\n")
		sb.WriteString("WHERE fts_documents MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.doc_id, d.type, d.path, COALESCE(d.scene,''), COALESCE(d.line,0), COALESCE(d.speaker,''), ''\n")
		sb.WriteString("FROM documents d\nWHERE 1=1\n")
	}
	// Types filter (IN list)
	if len(q.Types) > 0 {
		sb.WriteString(" AND d.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	// Scene filter: exact scene name
	if s := strings.TrimSpace(q.Scene); s != "" {
		sb.WriteString(" AND d.scene = ?\n")
		args = append(args, s)
	}
	// Speaker filter: case-insensitive exact match
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND (d.speaker IS NOT NULL AND lower(d.speaker)=?)\n")
		args = append(args, strings.ToLower(s))
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.scene NULLS LAST, d.line, d.doc_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var line sql.NullInt64
		var sn sql.NullString
		if err := rows.Scan(&r.DocID, &r.Type, &r.Path, &r.Scene, &line, &r.Speaker, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if line.Valid {
			r.Line = int(line.Int64)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AssetLookup returns the declared URL and type for an asset key, or ok=false
// when the key is not in the index.
func AssetLookup(ctx context.Context, projectRoot string, key string) (url, typ string, ok bool, err error) {
	if strings.TrimSpace(key) == "" {
		return "", "", false, errors.New("asset key is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return "", "", false, err
	}
	defer db.Close()
	var t sql.NullString
	err = db.QueryRowContext(ctx, "SELECT url, type FROM assets WHERE key=?", key).Scan(&url, &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	if t.Valid {
		typ = t.String
	}
	return url, typ, true, nil
}

// ScenesInIndex lists the distinct scene names currently indexed, sorted.
func ScenesInIndex(ctx context.Context, projectRoot string) ([]string, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, "SELECT DISTINCT scene FROM documents WHERE scene IS NOT NULL ORDER BY scene")
	if err != nil {
		return nil, fmt.Errorf("scenes query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
