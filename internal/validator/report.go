/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package validator statically checks story YAML files: document structure,
// scene graphs, variable declarations, asset manifests and embedded template
// expressions. Findings are diagnostics, never Go errors; a file that parses
// always yields a Report.
package validator

import (
	"fmt"
	"sort"
	"strings"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category groups diagnostics by the validation pass that produced them.
type Category string

const (
	CategoryYAMLSyntax Category = "yaml_syntax"
	CategoryScene      Category = "scene"
	CategoryInstruct   Category = "instruction"
	CategoryAction     Category = "action"
	CategoryHandlebars Category = "handlebars"
	CategoryReference  Category = "reference"
	CategoryStructure  Category = "structure"
	CategoryGeneral    Category = "validation"
)

// Diagnostic is one finding. Line and Column are 1-based; both are 1 when
// the source position is unknown.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Line     int            `json:"line"`
	Column   int            `json:"column"`
	Code     string         `json:"code"`
	Category Category       `json:"category"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// categoryFromCode derives the category from the diagnostic code. The
// substring checks run in a fixed order; the first hit wins.
func categoryFromCode(code string) Category {
	switch {
	case strings.Contains(code, "YAML"):
		return CategoryYAMLSyntax
	case strings.Contains(code, "SCENE"):
		return CategoryScene
	case strings.Contains(code, "INSTRUCTION"):
		return CategoryInstruct
	case strings.Contains(code, "ACTION"):
		return CategoryAction
	case strings.Contains(code, "HANDLEBARS"):
		return CategoryHandlebars
	case strings.Contains(code, "REFERENCE"):
		return CategoryReference
	case strings.Contains(code, "STRUCTURE"):
		return CategoryStructure
	default:
		return CategoryGeneral
	}
}

// Branch names a side of a conditional instruction.
type Branch string

const (
	BranchThen Branch = "then"
	BranchElse Branch = "else"
)

// PathStep is one level of an instruction path. Branch is empty for
// top-level instructions and set for steps nested under a conditional.
type PathStep struct {
	Index  int
	Branch Branch
}

// Path locates an instruction within a scene, descending through
// conditional branches.
type Path []PathStep

// Child extends the path into a conditional branch.
func (p Path) Child(branch Branch, index int) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, PathStep{Index: index, Branch: branch})
}

// String renders the path with 1-based indices, e.g. "3" or "3.then.1".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, step := range p {
		if i > 0 {
			b.WriteByte('.')
			b.WriteString(string(step.Branch))
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", step.Index+1)
	}
	return b.String()
}

// NewPath starts a path at a top-level instruction index.
func NewPath(index int) Path { return Path{{Index: index}} }

// Reporter accumulates diagnostics during a validation run.
type Reporter struct {
	errors   []Diagnostic
	warnings []Diagnostic
	info     []Diagnostic
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter { return &Reporter{} }

func (r *Reporter) add(sev Severity, line, column int, code, message string, details map[string]any) {
	if line < 1 {
		line = 1
	}
	if column < 1 {
		column = 1
	}
	d := Diagnostic{
		Severity: sev,
		Line:     line,
		Column:   column,
		Code:     code,
		Category: categoryFromCode(code),
		Message:  message,
		Details:  details,
	}
	switch sev {
	case SeverityError:
		r.errors = append(r.errors, d)
	case SeverityWarning:
		r.warnings = append(r.warnings, d)
	default:
		r.info = append(r.info, d)
	}
}

// AddError records an error diagnostic. Pass nil details when there are none.
func (r *Reporter) AddError(line, column int, code, message string, details map[string]any) {
	r.add(SeverityError, line, column, code, message, details)
}

// AddWarning records a warning diagnostic.
func (r *Reporter) AddWarning(line, column int, code, message string, details map[string]any) {
	r.add(SeverityWarning, line, column, code, message, details)
}

// AddInfo records an informational diagnostic.
func (r *Reporter) AddInfo(line, column int, code, message string, details map[string]any) {
	r.add(SeverityInfo, line, column, code, message, details)
}

func sceneContext(scene string, path Path) string {
	if len(path) == 0 {
		return fmt.Sprintf("In scene %q", scene)
	}
	return fmt.Sprintf("In scene %q, instruction %s", scene, path)
}

// AddSceneError records an error prefixed with scene and instruction context.
func (r *Reporter) AddSceneError(scene string, path Path, code, message string, details map[string]any) {
	r.AddError(1, 1, code, sceneContext(scene, path)+": "+message, details)
}

// AddSceneWarning records a warning prefixed with scene and instruction context.
func (r *Reporter) AddSceneWarning(scene string, path Path, code, message string, details map[string]any) {
	r.AddWarning(1, 1, code, sceneContext(scene, path)+": "+message, details)
}

// AddChoiceError records an error for one choice of a dialogue instruction.
func (r *Reporter) AddChoiceError(scene string, path Path, choice int, code, message string, details map[string]any) {
	msg := fmt.Sprintf("%s, choice %d: %s", sceneContext(scene, path), choice+1, message)
	r.AddError(1, 1, code, msg, details)
}

// AddActionError records an error for one action of an action instruction.
func (r *Reporter) AddActionError(scene string, path Path, action int, code, message string, details map[string]any) {
	msg := fmt.Sprintf("%s, action %d: %s", sceneContext(scene, path), action+1, message)
	r.AddError(1, 1, code, msg, details)
}

func handlebarsContext(expr, message string) string {
	return fmt.Sprintf("Handlebars expression %q: %s", expr, message)
}

func withExpression(expr string, details map[string]any) map[string]any {
	if details == nil {
		details = map[string]any{}
	}
	details["expression"] = expr
	return details
}

// AddHandlebarsError records an error for one template expression.
func (r *Reporter) AddHandlebarsError(expr string, line, column int, code, message string, details map[string]any) {
	r.AddError(line, column, code, handlebarsContext(expr, message), withExpression(expr, details))
}

// AddHandlebarsWarning records a warning for one template expression.
func (r *Reporter) AddHandlebarsWarning(expr string, line, column int, code, message string, details map[string]any) {
	r.AddWarning(line, column, code, handlebarsContext(expr, message), withExpression(expr, details))
}

// AddHandlebarsInfo records a note for one template expression.
func (r *Reporter) AddHandlebarsInfo(expr string, line, column int, code, message string, details map[string]any) {
	r.AddInfo(line, column, code, handlebarsContext(expr, message), withExpression(expr, details))
}

// HasErrors reports whether any error diagnostics were recorded.
func (r *Reporter) HasErrors() bool { return len(r.errors) > 0 }

// Errors returns the recorded errors in emission order.
func (r *Reporter) Errors() []Diagnostic { return r.errors }

// Warnings returns the recorded warnings in emission order.
func (r *Reporter) Warnings() []Diagnostic { return r.warnings }

// Info returns the recorded notes in emission order.
func (r *Reporter) Info() []Diagnostic { return r.info }

// All returns every diagnostic sorted by line, then column. The sort is
// stable, so diagnostics on the same position keep severity grouping
// (errors, then warnings, then notes) and emission order.
func (r *Reporter) All() []Diagnostic {
	all := make([]Diagnostic, 0, len(r.errors)+len(r.warnings)+len(r.info))
	all = append(all, r.errors...)
	all = append(all, r.warnings...)
	all = append(all, r.info...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Column < all[j].Column
	})
	return all
}

// BySeverity returns the diagnostics of one severity.
func (r *Reporter) BySeverity(sev Severity) []Diagnostic {
	switch sev {
	case SeverityError:
		return r.errors
	case SeverityWarning:
		return r.warnings
	default:
		return r.info
	}
}

// ByCategory returns all diagnostics in the given category, position-sorted.
func (r *Reporter) ByCategory(c Category) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.All() {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// CategoryCount tallies diagnostics per severity inside one category.
type CategoryCount struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Summary aggregates the diagnostic counts of a run.
type Summary struct {
	TotalIssues  int                        `json:"totalIssues"`
	ErrorCount   int                        `json:"errorCount"`
	WarningCount int                        `json:"warningCount"`
	InfoCount    int                        `json:"infoCount"`
	Categories   map[Category]CategoryCount `json:"categories"`
}

// Report is the final result of a validation run. Valid is true exactly when
// no errors were recorded; warnings and notes do not affect it.
type Report struct {
	Valid    bool         `json:"valid"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	Info     []Diagnostic `json:"info"`
	Summary  Summary      `json:"summary"`
}

// Report finalizes the run into a Report.
func (r *Reporter) Report() Report {
	summary := Summary{
		TotalIssues:  len(r.errors) + len(r.warnings) + len(r.info),
		ErrorCount:   len(r.errors),
		WarningCount: len(r.warnings),
		InfoCount:    len(r.info),
		Categories:   map[Category]CategoryCount{},
	}
	for _, d := range r.errors {
		c := summary.Categories[d.Category]
		c.Errors++
		summary.Categories[d.Category] = c
	}
	for _, d := range r.warnings {
		c := summary.Categories[d.Category]
		c.Warnings++
		summary.Categories[d.Category] = c
	}
	for _, d := range r.info {
		c := summary.Categories[d.Category]
		c.Info++
		summary.Categories[d.Category] = c
	}
	errs := make([]Diagnostic, len(r.errors))
	copy(errs, r.errors)
	warns := make([]Diagnostic, len(r.warnings))
	copy(warns, r.warnings)
	notes := make([]Diagnostic, len(r.info))
	copy(notes, r.info)
	return Report{
		Valid:    len(r.errors) == 0,
		Errors:   errs,
		Warnings: warns,
		Info:     notes,
		Summary:  summary,
	}
}

// FormatDiagnostic renders one diagnostic as a single text line.
func FormatDiagnostic(d Diagnostic) string {
	return fmt.Sprintf("[%s] %d:%d %s: %s",
		strings.ToUpper(string(d.Severity)), d.Line, d.Column, d.Code, d.Message)
}

// FormatReport renders a full report as text, one diagnostic per line in
// position order, followed by the summary line.
func FormatReport(rep Report) string {
	var b strings.Builder
	all := make([]Diagnostic, 0, rep.Summary.TotalIssues)
	all = append(all, rep.Errors...)
	all = append(all, rep.Warnings...)
	all = append(all, rep.Info...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Line != all[j].Line {
			return all[i].Line < all[j].Line
		}
		return all[i].Column < all[j].Column
	})
	for _, d := range all {
		b.WriteString(FormatDiagnostic(d))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d error(s), %d warning(s), %d note(s)\n",
		rep.Summary.ErrorCount, rep.Summary.WarningCount, rep.Summary.InfoCount)
	return b.String()
}

// MostCommonCode returns the diagnostic code occurring most often in the
// report and its count. Ties resolve to the code seen first in position
// order. Returns ("", 0) for a clean report.
func MostCommonCode(rep Report) (string, int) {
	counts := map[string]int{}
	var order []string
	for _, group := range [][]Diagnostic{rep.Errors, rep.Warnings, rep.Info} {
		for _, d := range group {
			if counts[d.Code] == 0 {
				order = append(order, d.Code)
			}
			counts[d.Code]++
		}
	}
	best, n := "", 0
	for _, code := range order {
		if counts[code] > n {
			best, n = code, counts[code]
		}
	}
	return best, n
}
