/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a story document into a printable script PDF.
// It is a reading/review artifact, not a playable build of the story.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls script PDF export behavior.
// Built-in Helvetica keeps text vector without font embedding.
type PDFOptions struct {
	TitlePage     bool     // render a title page from title/description
	IncludeJumps  bool     // render jump targets as transition lines
	Scenes        []string // if empty, export all scenes (sorted)
	FontSizeBody  float64  // default 11pt
	FontSizeScene float64  // default 14pt
}

func (o PDFOptions) bodySize() float64 {
	if o.FontSizeBody > 0 {
		return o.FontSizeBody
	}
	return 11
}

func (o PDFOptions) sceneSize() float64 {
	if o.FontSizeScene > 0 {
		return o.FontSizeScene
	}
	return 14
}

// ExportScriptPDF writes the story as a script-formatted PDF to outPath.
// Relative paths are placed under <projectRoot>/exports when projectRoot is
// non-empty.
func ExportScriptPDF(doc *story.Document, projectRoot, outPath string, opt PDFOptions) error {
	if doc == nil {
		return fmt.Errorf("story document is nil")
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(scriptTitle(doc), false)
	pdf.SetAuthor("VN Story Editor", false)
	pdf.SetMargins(54, 54, 54)
	pdf.SetAutoPageBreak(true, 54)

	if opt.TitlePage {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 24)
		pdf.CellFormat(0, 40, scriptTitle(doc), "", 1, "C", false, 0, "")
		if strings.TrimSpace(doc.Description) != "" {
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 18, doc.Description, "", "C", false)
		}
	}

	pdf.AddPage()
	for _, name := range sceneOrder(doc, opt.Scenes) {
		writeSceneHeading(pdf, name, opt)
		for _, raw := range doc.Scenes[name] {
			writeInstruction(pdf, raw, opt)
		}
		pdf.Ln(opt.bodySize())
	}

	if !filepath.IsAbs(outPath) && projectRoot != "" {
		outPath = filepath.Join(projectRoot, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func scriptTitle(doc *story.Document) string {
	if strings.TrimSpace(doc.Title) != "" {
		return doc.Title
	}
	return "Untitled Story"
}

// sceneOrder resolves the scene selection: explicit list as given, otherwise
// all scenes sorted by name so output is stable.
func sceneOrder(doc *story.Document, specific []string) []string {
	if len(specific) > 0 {
		out := make([]string, 0, len(specific))
		for _, s := range specific {
			if _, ok := doc.Scenes[s]; ok {
				out = append(out, s)
			}
		}
		return out
	}
	names := make([]string, 0, len(doc.Scenes))
	for name := range doc.Scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeSceneHeading(pdf *gofpdf.Fpdf, name string, opt PDFOptions) {
	pdf.SetFont("Helvetica", "B", opt.sceneSize())
	pdf.CellFormat(0, opt.sceneSize()*1.6, strings.ToUpper(name), "B", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func writeInstruction(pdf *gofpdf.Fpdf, raw any, opt PDFOptions) {
	body := opt.bodySize()
	lh := body * 1.45
	switch story.ClassifyInstruction(raw) {
	case story.KindNarration:
		pdf.SetFont("Helvetica", "", body)
		pdf.MultiCell(0, lh, raw.(string), "", "L", false)
		pdf.Ln(2)
	case story.KindDialogue:
		m := raw.(map[string]any)
		speaker, _ := m["speaker"].(string)
		text, _ := m["text"].(string)
		if text == "" {
			text, _ = m["say"].(string)
		}
		if strings.TrimSpace(speaker) != "" {
			pdf.SetFont("Helvetica", "B", body)
			pdf.CellFormat(0, lh, strings.ToUpper(speaker), "", 1, "C", false, 0, "")
		}
		if strings.TrimSpace(text) != "" {
			pdf.SetFont("Helvetica", "", body)
			pdf.SetLeftMargin(108)
			pdf.SetRightMargin(108)
			pdf.MultiCell(0, lh, text, "", "L", false)
			pdf.SetLeftMargin(54)
			pdf.SetRightMargin(54)
		}
		if choices, ok := m["choices"].([]any); ok {
			writeChoices(pdf, choices, opt)
		}
		pdf.Ln(2)
	case story.KindJump:
		if !opt.IncludeJumps {
			return
		}
		m := raw.(map[string]any)
		target, _ := m["goto"].(string)
		if target == "" {
			target, _ = m["jump"].(string)
		}
		if strings.TrimSpace(target) != "" {
			pdf.SetFont("Helvetica", "I", body)
			pdf.CellFormat(0, lh, "CUT TO: "+strings.ToUpper(target), "", 1, "R", false, 0, "")
		}
	}
}

func writeChoices(pdf *gofpdf.Fpdf, choices []any, opt PDFOptions) {
	body := opt.bodySize()
	lh := body * 1.45
	for i, c := range choices {
		cm, ok := c.(map[string]any)
		if !ok {
			continue
		}
		text, _ := cm["text"].(string)
		if strings.TrimSpace(text) == "" {
			continue
		}
		line := fmt.Sprintf("%d) %s", i+1, text)
		if target, _ := cm["goto"].(string); opt.IncludeJumps && strings.TrimSpace(target) != "" {
			line += " -> " + target
		}
		pdf.SetFont("Helvetica", "I", body)
		pdf.SetLeftMargin(90)
		pdf.MultiCell(0, lh, line, "", "L", false)
		pdf.SetLeftMargin(54)
	}
}
