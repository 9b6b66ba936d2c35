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

func countCode(diags []Diagnostic, code string) int {
	n := 0
	for _, d := range diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestValidateMinimalStory(t *testing.T) {
	content := "scenes:\n  start:\n    - \"Hello world\"\n"
	rep := Validate(content)

	require.True(t, rep.Valid)
	assert.Empty(t, rep.Errors)
	assert.Empty(t, rep.Warnings)
}

func TestValidateYAMLParseError(t *testing.T) {
	rep := Validate("scenes: [unclosed\n")

	require.False(t, rep.Valid)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "YAML_PARSE_ERROR", rep.Errors[0].Code)
	assert.Equal(t, CategoryYAMLSyntax, rep.Errors[0].Category)
	assert.GreaterOrEqual(t, rep.Errors[0].Line, 1)
	assert.GreaterOrEqual(t, rep.Errors[0].Column, 1)
}

func TestValidateNonMapDocument(t *testing.T) {
	for _, content := range []string{"- a\n- b\n", "just a scalar\n"} {
		rep := Validate(content)
		require.False(t, rep.Valid, "content %q", content)
		assert.Equal(t, 1, countCode(rep.Errors, "INVALID_DOCUMENT"))
	}
}

func TestValidateMissingScenes(t *testing.T) {
	rep := Validate("title: \"My Story\"\n")

	require.False(t, rep.Valid)
	assert.Equal(t, 1, countCode(rep.Errors, "MISSING_SCENES"))
}

func TestValidateUnknownTopLevelKey(t *testing.T) {
	content := "scenes:\n  start:\n    - \"hi\"\nextras: true\n"
	rep := Validate(content)

	assert.True(t, rep.Valid)
	assert.Equal(t, 1, countCode(rep.Warnings, "UNKNOWN_TOP_LEVEL_KEY"))
}

func TestValidateDanglingJump(t *testing.T) {
	content := "scenes:\n  start:\n    - goto: nowhere\n"
	rep := Validate(content)

	require.False(t, rep.Valid)
	assert.Equal(t, 1, countCode(rep.Errors, "JUMP_INVALID_SCENE_REFERENCE"))
}

func TestValidateJumpToExistingScene(t *testing.T) {
	content := "scenes:\n  start:\n    - goto: ending\n  ending:\n    - \"The end.\"\n"
	rep := Validate(content)

	assert.True(t, rep.Valid)
	assert.Zero(t, countCode(rep.Errors, "JUMP_INVALID_SCENE_REFERENCE"))
}

func TestValidateEmptyExpression(t *testing.T) {
	content := "scenes:\n  start:\n    - \"Hello {{}}\"\n"
	rep := Validate(content)

	require.False(t, rep.Valid)
	assert.GreaterOrEqual(t, countCode(rep.Errors, "HANDLEBARS_EMPTY"), 1)
}

func TestValidateDuplicateAssetKey(t *testing.T) {
	content := `scenes:
  a:
    - "x"
assets:
  - key: img1
    url: a.png
    type: image
  - key: img1
    url: b.png
    type: image
`
	rep := Validate(content)

	require.False(t, rep.Valid)
	assert.Equal(t, 1, countCode(rep.Errors, "ASSET_DUPLICATE_KEY"))
}

func TestValidateDeterministic(t *testing.T) {
	content := `title: x
bogus: 1
scenes:
  Start!:
    - goto: gone
  other:
    - "ok"
variables:
  a: 1
  HP: -3
assets:
  - key: "bad key"
    url: a.zzz
    type: image
`
	first := Validate(content)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Validate(content))
	}
}

func TestValidIffNoErrors(t *testing.T) {
	warningOnly := "scenes: {}\n"
	rep := Validate(warningOnly)
	assert.True(t, rep.Valid)
	assert.NotEmpty(t, rep.Warnings)

	withError := "scenes:\n  start:\n    - goto: gone\n"
	assert.False(t, Validate(withError).Valid)
}

func TestSummaryCounts(t *testing.T) {
	content := "scenes:\n  start:\n    - goto: gone\nbogus: 1\n"
	rep := Validate(content)

	assert.Equal(t, len(rep.Errors), rep.Summary.ErrorCount)
	assert.Equal(t, len(rep.Warnings), rep.Summary.WarningCount)
	assert.Equal(t, len(rep.Info), rep.Summary.InfoCount)
	assert.Equal(t, rep.Summary.ErrorCount+rep.Summary.WarningCount+rep.Summary.InfoCount,
		rep.Summary.TotalIssues)

	total := 0
	for _, counts := range rep.Summary.Categories {
		total += counts.Errors + counts.Warnings + counts.Info
	}
	assert.Equal(t, rep.Summary.TotalIssues, total)
}

func TestValidateSyntaxOnly(t *testing.T) {
	good := ValidateSyntax("title: hello\n")
	assert.True(t, good.Valid)
	assert.Empty(t, good.Errors)

	bad := ValidateSyntax("a: [1,\n")
	require.False(t, bad.Valid)
	assert.Equal(t, "YAML_PARSE_ERROR", bad.Errors[0].Code)
}

func TestStats(t *testing.T) {
	content := `# intro comment
title: x

scenes:
  start:
    - "Hello {{player}}"
    - speaker: Ann
      text: "Pick one"
      choices:
        - text: "A"
        - text: "B"
  ending:
    - "Bye"
`
	stats := Stats(content)

	assert.Equal(t, 2, stats.Scenes)
	assert.Equal(t, 3, stats.Instructions)
	assert.Equal(t, 2, stats.Choices)
	assert.Equal(t, 1, stats.HandlebarsExpressions)
	assert.Equal(t, 1, stats.CommentLines)
	assert.Equal(t, 14, stats.TotalLines)
	assert.Equal(t, 11, stats.CodeLines)
}

func TestStatsUnparseableKeepsTextCounts(t *testing.T) {
	stats := Stats("scenes: [broken\n# comment\n")
	assert.Zero(t, stats.Scenes)
	assert.Equal(t, 1, stats.CommentLines)
	assert.Equal(t, 3, stats.TotalLines)
}

func TestFormatContentIdempotent(t *testing.T) {
	content := "title:   x\nscenes:\n    start:\n        - \"hi\"\n"
	once := FormatContent(content)
	twice := FormatContent(once)

	assert.Equal(t, once, twice)
	assert.True(t, Validate(once).Valid)
}

func TestFormatContentUnparseableReturnsInput(t *testing.T) {
	content := "scenes: [broken\n"
	assert.Equal(t, content, FormatContent(content))
}
