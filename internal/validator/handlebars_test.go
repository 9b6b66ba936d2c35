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

func analyze(t *testing.T, content string) *Reporter {
	t.Helper()
	r := NewReporter()
	AnalyzeHandlebars(content, r)
	return r
}

func TestAnalyzeEmptyExpression(t *testing.T) {
	r := analyze(t, "before {{}} after")

	require.Len(t, r.Errors(), 1)
	d := r.Errors()[0]
	assert.Equal(t, "HANDLEBARS_EMPTY", d.Code)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 8, d.Column)
}

func TestAnalyzeNestedBraces(t *testing.T) {
	r := analyze(t, "{{add {{getVar \"hp\"}} 1}}")

	require.NotEmpty(t, r.Errors())
	assert.Equal(t, "HANDLEBARS_NESTED_BRACES", r.Errors()[0].Code)
}

func TestAnalyzePositionsPerLine(t *testing.T) {
	r := analyze(t, "line one\n  {{player}} here\n")

	require.Len(t, r.Info(), 1)
	assert.Equal(t, 2, r.Info()[0].Line)
	assert.Equal(t, 3, r.Info()[0].Column)
}

func TestAnalyzeKnownHelperCleanCall(t *testing.T) {
	r := analyze(t, `{{hasFlag "met_guard"}}`)

	assert.Empty(t, r.Errors())
	assert.Empty(t, r.Warnings())
}

func TestAnalyzeArityMismatchIsWarningOnly(t *testing.T) {
	r := analyze(t, `{{hasFlag "a" "b" "c"}}`)

	assert.Empty(t, r.Errors())
	require.Len(t, r.Warnings(), 1)
	assert.Equal(t, "HANDLEBARS_WRONG_ARG_COUNT", r.Warnings()[0].Code)
}

func TestAnalyzeArityChoiceAndAtLeast(t *testing.T) {
	// rollDice accepts 1 or 2 arguments.
	assert.Empty(t, analyze(t, "{{rollDice 6}}").Warnings())
	assert.Empty(t, analyze(t, "{{rollDice 2 6}}").Warnings())
	warns := analyze(t, "{{rollDice 1 2 3}}").Warnings()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "1 or 2")

	// add wants at least two.
	assert.Empty(t, analyze(t, "{{add 1 2 3}}").Warnings())
	require.Len(t, analyze(t, "{{add 1}}").Warnings(), 1)
}

func TestAnalyzeTypeHintIsInfoOnly(t *testing.T) {
	r := analyze(t, "{{hasFlag 42}}")

	assert.Empty(t, r.Errors())
	assert.Empty(t, r.Warnings())
	require.Len(t, r.Info(), 1)
	assert.Equal(t, "HANDLEBARS_TYPE_MISMATCH", r.Info()[0].Code)
	assert.Equal(t, "string", r.Info()[0].Details["expectedType"])
	assert.Equal(t, "number", r.Info()[0].Details["actualType"])
}

func TestAnalyzeCustomHelperDetected(t *testing.T) {
	r := analyze(t, "{{myScenarioThing 1}}")

	assert.Empty(t, r.Errors())
	assert.Empty(t, r.Warnings())
	require.Len(t, r.Info(), 1)
	assert.Equal(t, "HANDLEBARS_CUSTOM_HELPER", r.Info()[0].Code)
}

func TestAnalyzeUnknownHelperWithSuggestions(t *testing.T) {
	r := analyze(t, "{{upper-case name}}")

	assert.Empty(t, r.Errors())
	require.Len(t, r.Warnings(), 1)
	assert.Equal(t, "HANDLEBARS_UNKNOWN_HELPER", r.Warnings()[0].Code)

	require.Len(t, r.Info(), 1)
	assert.Equal(t, "HANDLEBARS_HELPER_SUGGESTION", r.Info()[0].Code)
	suggestions, ok := r.Info()[0].Details["suggestions"].([]string)
	require.True(t, ok)
	assert.Contains(t, suggestions, "uppercase")
	assert.LessOrEqual(t, len(suggestions), 3)
}

func TestAnalyzeVariableSuggestion(t *testing.T) {
	r := analyze(t, "{{playr}}")

	assert.Empty(t, r.Errors())
	require.Len(t, r.Info(), 1)
	assert.Equal(t, "HANDLEBARS_VARIABLE_SUGGESTION", r.Info()[0].Code)
	suggestions := r.Info()[0].Details["suggestions"].([]string)
	assert.Contains(t, suggestions, "player")
}

func TestAnalyzeBlockHelpers(t *testing.T) {
	ok := analyze(t, `{{#if health}}fine{{/if}}`)
	assert.Empty(t, ok.Errors())
	assert.Empty(t, ok.Warnings())

	misuse := analyze(t, `{{#uppercase name}}{{/uppercase}}`)
	require.NotEmpty(t, misuse.Warnings())
	assert.Equal(t, "HANDLEBARS_INVALID_BLOCK_HELPER", misuse.Warnings()[0].Code)

	// Unknown block ends with a plausible identifier shape are tolerated.
	unknownEnd := analyze(t, "{{/customEnd}}")
	assert.Empty(t, unknownEnd.Warnings())
}

func TestSplitArguments(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{``, nil},
		{`a b c`, []string{"a", "b", "c"}},
		{`"two words" second`, []string{`"two words"`, "second"}},
		{`'it\'s fine' x`, []string{`'it\'s fine'`, "x"}},
		{`(add 1 2) [1 2 3] last`, []string{"(add 1 2)", "[1 2 3]", "last"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitArguments(tc.in), "input %q", tc.in)
	}
}

func TestInferArgumentType(t *testing.T) {
	cases := map[string]string{
		`"hi"`:      "string",
		`'hi'`:      "string",
		"42":        "number",
		"-3.5":      "number",
		"true":      "boolean",
		"null":      "null",
		"undefined": "undefined",
		"[1 2]":     "array",
		"{a: 1}":    "object",
		"player":    "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, inferArgumentType(in), "input %q", in)
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("same", "same"))
	assert.Equal(t, 1, levenshtein("uppercase", "upercase"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 4, levenshtein("", "four"))
}

func TestSuggestionsDeterministicOrder(t *testing.T) {
	first := helperSuggestions("ad")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, helperSuggestions("ad"))
	}
	assert.LessOrEqual(t, len(first), 3)
}
