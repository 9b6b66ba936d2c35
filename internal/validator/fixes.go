/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

// QuickFix is an actionable remediation hint attached to a diagnostic code.
type QuickFix struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion"`
	AutoFixable bool   `json:"autoFixable"`
}

// Tip is a category-level authoring recommendation.
type Tip struct {
	Category string `json:"category"`
	Tip      string `json:"tip"`
	Priority string `json:"priority"`
}

// quickFixTable maps diagnostic codes to remediations. It keeps an entry for
// CHOICE_INVALID_SCENE_REFERENCE so editor surfaces can resolve the code,
// although choice targets are currently shape-checked only.
var quickFixTable = map[string]QuickFix{
	"SCENES_EMPTY": {
		Code:        "SCENES_EMPTY",
		Message:     "Add a basic scene structure",
		Suggestion:  `Add an "intro" scene with dialogue`,
		AutoFixable: true,
	},
	"SCENE_INVALID_NAME": {
		Code:       "SCENE_INVALID_NAME",
		Message:    "Fix scene name format",
		Suggestion: "Use letters, numbers, underscores, and hyphens only",
	},
	"HANDLEBARS_UNKNOWN_HELPER": {
		Code:       "HANDLEBARS_UNKNOWN_HELPER",
		Message:    "Replace with valid helper or define custom helper",
		Suggestion: "Check available helpers in autocomplete or ensure custom helper is properly defined",
	},
	"JUMP_INVALID_SCENE_REFERENCE": {
		Code:       "JUMP_INVALID_SCENE_REFERENCE",
		Message:    "Add missing scene or fix reference",
		Suggestion: "Create the referenced scene or correct the scene name",
	},
	"CHOICE_INVALID_SCENE_REFERENCE": {
		Code:       "CHOICE_INVALID_SCENE_REFERENCE",
		Message:    "Add missing scene or fix reference",
		Suggestion: "Create the referenced scene or correct the scene name",
	},
}

// QuickFixes returns remediations for the diagnostics in the report, in
// diagnostic order. Only codes present in the report produce entries.
func QuickFixes(rep Report) []QuickFix {
	var fixes []QuickFix
	for _, group := range [][]Diagnostic{rep.Errors, rep.Warnings} {
		for _, d := range group {
			if fix, ok := quickFixTable[d.Code]; ok {
				fixes = append(fixes, fix)
			}
		}
	}
	return fixes
}

// ValidationTips returns authoring recommendations triggered by the
// categories present in the report.
func ValidationTips(rep Report) []Tip {
	var tips []Tip
	if _, ok := rep.Summary.Categories[CategoryScene]; ok {
		tips = append(tips, Tip{
			Category: "scenes",
			Tip:      "Use descriptive scene names and ensure all scenes are reachable",
			Priority: "high",
		})
	}
	if _, ok := rep.Summary.Categories[CategoryHandlebars]; ok {
		tips = append(tips, Tip{
			Category: "handlebars",
			Tip:      "Custom helpers should be properly documented and defined in your VN engine",
			Priority: "medium",
		})
	}
	if _, ok := rep.Summary.Categories[CategoryStructure]; ok {
		tips = append(tips, Tip{
			Category: "structure",
			Tip:      `Ensure required sections like "scenes" are present`,
			Priority: "high",
		})
	}
	if _, ok := rep.Summary.Categories[CategoryReference]; ok {
		tips = append(tips, Tip{
			Category: "references",
			Tip:      "All scene references in goto statements should point to existing scenes",
			Priority: "high",
		})
	}
	return tips
}

// SummaryView condenses a report for status surfaces.
type SummaryView struct {
	IsValid            bool     `json:"isValid"`
	TotalIssues        int      `json:"totalIssues"`
	Errors             int      `json:"errors"`
	Warnings           int      `json:"warnings"`
	Info               int      `json:"info"`
	CategoriesAffected int      `json:"categoriesAffected"`
	MostCommonCategory Category `json:"mostCommonCategory,omitempty"`
	Severity           Severity `json:"severity"`
}

// Summarize reduces a report to a coarse overview: overall severity and the
// category contributing the most diagnostics.
func Summarize(rep Report) SummaryView {
	severity := SeverityInfo
	if rep.Summary.ErrorCount > 0 {
		severity = SeverityError
	} else if rep.Summary.WarningCount > 0 {
		severity = SeverityWarning
	}
	return SummaryView{
		IsValid:            rep.Valid,
		TotalIssues:        rep.Summary.TotalIssues,
		Errors:             rep.Summary.ErrorCount,
		Warnings:           rep.Summary.WarningCount,
		Info:               rep.Summary.InfoCount,
		CategoriesAffected: len(rep.Summary.Categories),
		MostCommonCategory: mostCommonCategory(rep.Summary.Categories),
		Severity:           severity,
	}
}

// allCategories is the display iteration order for category grouping.
var allCategories = []Category{
	CategoryYAMLSyntax, CategoryStructure, CategoryScene, CategoryInstruct,
	CategoryAction, CategoryHandlebars, CategoryReference, CategoryGeneral,
}

func mostCommonCategory(categories map[Category]CategoryCount) Category {
	var best Category
	max := 0
	for _, c := range allCategories {
		counts, ok := categories[c]
		if !ok {
			continue
		}
		total := counts.Errors + counts.Warnings + counts.Info
		if total > max {
			max = total
			best = c
		}
	}
	return best
}

// DisplayReport is the report shaped for editor display: the condensed
// summary plus quick fixes and tips.
type DisplayReport struct {
	Summary    SummaryView  `json:"summary"`
	Errors     []Diagnostic `json:"errors"`
	Warnings   []Diagnostic `json:"warnings"`
	Info       []Diagnostic `json:"info"`
	QuickFixes []QuickFix   `json:"quickFixes"`
	Tips       []Tip        `json:"tips"`
}

// ForDisplay assembles the display-shaped view of a report.
func ForDisplay(rep Report) DisplayReport {
	return DisplayReport{
		Summary:    Summarize(rep),
		Errors:     rep.Errors,
		Warnings:   rep.Warnings,
		Info:       rep.Info,
		QuickFixes: QuickFixes(rep),
		Tips:       ValidationTips(rep),
	}
}
