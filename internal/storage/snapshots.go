/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertStorySnapshotSQL = `INSERT INTO story_snapshots(ts, text) VALUES (?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestStorySnapshotSQL = `SELECT ts, text FROM story_snapshots ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listStorySnapshotsSQL = `SELECT ts, text FROM story_snapshots ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldStorySnapshotsSQL = `DELETE FROM story_snapshots WHERE id NOT IN (
	SELECT id FROM story_snapshots ORDER BY ts DESC LIMIT ?
)`

// StorySnapshot is one recorded revision of the story text.
type StorySnapshot struct {
	TS   time.Time
	Text string
}

// SaveStorySnapshot persists a full-text snapshot of the story with a timestamp.
// The index database is ephemeral and derived; this history is meant for editor
// change tracking, not canonical storage.
func SaveStorySnapshot(ctx context.Context, ph *ProjectHandle, text string, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertStorySnapshotSQL, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// GetLatestStorySnapshot returns the latest snapshot text and timestamp, or empty if none.
func GetLatestStorySnapshot(ctx context.Context, ph *ProjectHandle) (string, time.Time, error) {
	if ph == nil {
		return "", time.Time{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var txt string
	err = db.QueryRowContext(ctx, selectLatestStorySnapshotSQL).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return txt, time.Time{}, nil
	}
	return txt, ts, nil
}

// ListStorySnapshots returns up to limit most recent snapshots, newest first.
func ListStorySnapshots(ctx context.Context, ph *ProjectHandle, limit int) ([]StorySnapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listStorySnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []StorySnapshot
	for rows.Next() {
		var tsStr string
		var txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, StorySnapshot{TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneOldStorySnapshots keeps at most keepLast snapshots and deletes older ones.
func PruneOldStorySnapshots(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldStorySnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
