/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

func scriptDoc() *story.Document {
	return &story.Document{
		Title:       "Export Test",
		Description: "A tiny story for the exporter.",
		Scenes: map[string][]any{
			"intro": {
				"Rain hammers the windows.",
				map[string]any{
					"speaker": "Mara",
					"text":    "We should not be here.",
					"choices": []any{
						map[string]any{"text": "Stay", "goto": "stay"},
						map[string]any{"text": "Leave", "goto": "leave"},
					},
				},
				map[string]any{"goto": "stay"},
			},
			"stay":  {"The night passes slowly."},
			"leave": {"The door slams behind you."},
		},
	}
}

func TestExportScriptPDFWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "script.pdf")
	err := ExportScriptPDF(scriptDoc(), "", out, PDFOptions{TitlePage: true, IncludeJumps: true})
	if err != nil {
		t.Fatalf("ExportScriptPDF error: %v", err)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatalf("output is empty")
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(b) < 5 || string(b[:5]) != "%PDF-" {
		t.Fatalf("output is not a PDF: %q", b[:5])
	}
}

func TestExportScriptPDFRelativeGoesToExports(t *testing.T) {
	root := t.TempDir()
	err := ExportScriptPDF(scriptDoc(), root, "out.pdf", PDFOptions{})
	if err != nil {
		t.Fatalf("ExportScriptPDF error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "exports", "out.pdf")); err != nil {
		t.Fatalf("expected PDF under exports/: %v", err)
	}
}

func TestExportScriptPDFNilDocument(t *testing.T) {
	if err := ExportScriptPDF(nil, "", "x.pdf", PDFOptions{}); err == nil {
		t.Fatalf("expected error for nil document")
	}
}

func TestSceneOrder(t *testing.T) {
	doc := scriptDoc()
	all := sceneOrder(doc, nil)
	if len(all) != 3 || all[0] != "intro" || all[1] != "leave" || all[2] != "stay" {
		t.Fatalf("sorted order = %v", all)
	}
	picked := sceneOrder(doc, []string{"stay", "missing", "intro"})
	if len(picked) != 2 || picked[0] != "stay" || picked[1] != "intro" {
		t.Fatalf("explicit order = %v", picked)
	}
}

func TestScriptTitleFallback(t *testing.T) {
	if got := scriptTitle(&story.Document{}); got != "Untitled Story" {
		t.Fatalf("fallback title = %q", got)
	}
}
