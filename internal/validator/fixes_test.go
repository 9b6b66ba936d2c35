/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickFixesMatchReportCodes(t *testing.T) {
	rep := Validate("scenes:\n  start:\n    - goto: nowhere\n")

	fixes := QuickFixes(rep)
	require.Len(t, fixes, 1)
	assert.Equal(t, "JUMP_INVALID_SCENE_REFERENCE", fixes[0].Code)
	assert.False(t, fixes[0].AutoFixable)
}

func TestQuickFixesEmptyScenesAutoFixable(t *testing.T) {
	rep := Validate("scenes: {}\n")

	fixes := QuickFixes(rep)
	require.Len(t, fixes, 1)
	assert.Equal(t, "SCENES_EMPTY", fixes[0].Code)
	assert.True(t, fixes[0].AutoFixable)
}

func TestQuickFixesCleanReport(t *testing.T) {
	rep := Validate("scenes:\n  start:\n    - \"hi\"\n")
	assert.Empty(t, QuickFixes(rep))
}

func TestValidationTips(t *testing.T) {
	rep := Validate("scenes:\n  start:\n    - goto: nowhere\n")

	tips := ValidationTips(rep)
	categories := make([]string, 0, len(tips))
	for _, tip := range tips {
		categories = append(categories, tip.Category)
	}
	assert.Contains(t, categories, "scenes")
	assert.NotContains(t, categories, "handlebars")
}

func TestSummarizeSeverity(t *testing.T) {
	withError := Validate("scenes:\n  start:\n    - goto: nowhere\n")
	assert.Equal(t, SeverityError, Summarize(withError).Severity)
	assert.False(t, Summarize(withError).IsValid)

	warningOnly := Validate("scenes: {}\n")
	assert.Equal(t, SeverityWarning, Summarize(warningOnly).Severity)
	assert.True(t, Summarize(warningOnly).IsValid)

	clean := Validate("scenes:\n  start:\n    - \"hi\"\n")
	assert.Equal(t, SeverityInfo, Summarize(clean).Severity)
	assert.Zero(t, Summarize(clean).TotalIssues)
}

func TestSummarizeMostCommonCategory(t *testing.T) {
	rep := Validate("scenes:\n  start:\n    - goto: a\n    - goto: b\nbogus: 1\n")

	view := Summarize(rep)
	assert.Equal(t, CategoryScene, view.MostCommonCategory)
	assert.Equal(t, 2, view.CategoriesAffected)
}

func TestForDisplayShape(t *testing.T) {
	rep := Validate("scenes:\n  start:\n    - goto: nowhere\n")

	display := ForDisplay(rep)
	assert.Equal(t, rep.Errors, display.Errors)
	assert.Len(t, display.QuickFixes, 1)
	assert.NotEmpty(t, display.Tips)
	assert.False(t, display.Summary.IsValid)
}
