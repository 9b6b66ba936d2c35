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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

func testStoryDoc() *story.Document {
	return &story.Document{
		Title:       "Index Test",
		Description: "a short adventure",
		Scenes: map[string][]any{
			"intro": {
				"The cave mouth yawns before you.",
				map[string]any{
					"speaker": "Guide",
					"text":    "Stay close to the torchlight.",
					"choices": []any{
						map[string]any{"text": "Follow the guide", "goto": "tunnel"},
						map[string]any{"text": "Wait outside", "goto": "ending"},
					},
				},
				map[string]any{"goto": "tunnel"},
			},
			"tunnel": {
				"Water drips somewhere in the dark.",
			},
		},
		Assets: []map[string]any{
			{"key": "cave_bg", "url": "./images/cave.png", "type": "image"},
			{"key": "", "url": "./ignored.png", "type": "image"},
		},
	}
}

func TestUpdateIndexPopulatesDocuments(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()

	var docs int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&docs); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	// title, description, 2 narrations, 1 dialogue, 2 choices, 1 jump
	if docs != 8 {
		t.Fatalf("documents count = %d, want 8", docs)
	}

	var assets int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&assets); err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if assets != 1 {
		t.Fatalf("assets count = %d, want 1 (keyless asset skipped)", assets)
	}

	var speaker string
	if err := db.QueryRowContext(ctx, "SELECT speaker FROM documents WHERE type='dialogue'").Scan(&speaker); err != nil {
		t.Fatalf("select dialogue: %v", err)
	}
	if speaker != "Guide" {
		t.Fatalf("speaker = %q, want Guide", speaker)
	}
}

func TestBuildIndexIfEmptyIsIdempotent(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if err := BuildIndexIfEmpty(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("first build error: %v", err)
	}
	// Second call must not duplicate rows
	if err := BuildIndexIfEmpty(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("second build error: %v", err)
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	var docs int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&docs); err != nil {
		t.Fatalf("count documents: %v", err)
	}
	if docs != 8 {
		t.Fatalf("documents count = %d after repeat build, want 8", docs)
	}
}

func TestDetectAndRebuildHealthyIndex(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, testStoryDoc())
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex error: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}

func TestDetectAndRebuildCorruptedIndex(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	if err := UpdateIndex(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}
	// Overwrite the DB file with garbage
	if err := os.WriteFile(IndexPath(root), []byte("this is not a sqlite file at all"), 0o644); err != nil {
		t.Fatalf("corrupt index: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, testStoryDoc())
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex error: %v", err)
	}
	if !rebuilt {
		t.Fatalf("corrupted index should be rebuilt")
	}
	// The rebuilt index answers queries again
	res, err := Search(ctx, root, SearchQuery{Text: "torchlight"})
	if err != nil {
		t.Fatalf("Search after rebuild: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("results after rebuild = %d, want 1", len(res))
	}
	// A backup of the corrupted file should have been taken
	ents, err := os.ReadDir(filepath.Join(root, IndexDirName, "backups"))
	if err != nil || len(ents) == 0 {
		t.Fatalf("no index backup written: %v", err)
	}
}

func TestRebuildPreservesSnapshots(t *testing.T) {
	root := filepath.Join(t.TempDir(), "snap")
	ph, err := InitProject(root, NewManifest("Snap"))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	ctx := context.Background()
	if err := SaveStorySnapshot(ctx, ph, "scenes: {}\n", time.Now()); err != nil {
		t.Fatalf("SaveStorySnapshot error: %v", err)
	}
	if err := RebuildIndex(ctx, root, testStoryDoc()); err != nil {
		t.Fatalf("RebuildIndex error: %v", err)
	}
	txt, _, err := GetLatestStorySnapshot(ctx, ph)
	if err != nil {
		t.Fatalf("GetLatestStorySnapshot error: %v", err)
	}
	if txt != "scenes: {}\n" {
		t.Fatalf("snapshot lost across rebuild: %q", txt)
	}
}

func TestCollectStoryRowsDeterministicOrder(t *testing.T) {
	doc := testStoryDoc()
	a := collectStoryRows(doc)
	b := collectStoryRows(doc)
	if len(a) != len(b) {
		t.Fatalf("row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].path != b[i].path || a[i].text != b[i].text {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
	// intro sorts before tunnel
	sawIntro := -1
	sawTunnel := -1
	for i, r := range a {
		if r.scene.Valid && r.scene.String == "intro" && sawIntro < 0 {
			sawIntro = i
		}
		if r.scene.Valid && r.scene.String == "tunnel" && sawTunnel < 0 {
			sawTunnel = i
		}
	}
	if sawIntro < 0 || sawTunnel < 0 || sawIntro > sawTunnel {
		t.Fatalf("scene rows not in sorted order: intro=%d tunnel=%d", sawIntro, sawTunnel)
	}
}
