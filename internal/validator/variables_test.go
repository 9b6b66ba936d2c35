/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateVariablesInput(t *testing.T, variables any) *Reporter {
	t.Helper()
	r := NewReporter()
	validateVariables(variables, r)
	return r
}

func TestVariablesInvalidType(t *testing.T) {
	r := validateVariablesInput(t, []any{"not", "a", "map"})
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, "VARIABLES_INVALID_TYPE", r.Errors()[0].Code)
}

func TestVariablesEmptyIsInfo(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{})
	assert.Empty(t, r.Errors())
	assert.Empty(t, r.Warnings())
	require.Len(t, r.Info(), 1)
	assert.Equal(t, "VARIABLES_EMPTY", r.Info()[0].Code)
}

func TestVariableNames(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"9starts_with_digit": 1,
		"has space":          1,
		"player.stats.hp":    10,
	})
	assert.Equal(t, 2, countCode(r.Errors(), "VARIABLE_INVALID_NAME"))
}

func TestVariableReservedNameCaseInsensitive(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"Scenes":   "x",
		"GameTime": "x",
		"fine":     "x",
	})
	assert.Equal(t, 2, countCode(r.Warnings(), "VARIABLE_RESERVED_NAME"))
}

func TestVariableNullValueIsInfo(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{"pending": nil})
	assert.Empty(t, r.Errors())
	assert.Equal(t, 1, countCode(r.Info(), "VARIABLE_NULL_VALUE"))
}

func TestVariableStringChecks(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"greeting": "Hello {{player}}",
		"wall":     strings.Repeat("x", 1001),
	})
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_HANDLEBARS_IN_INITIAL"))
	assert.Equal(t, 1, countCode(r.Info(), "VARIABLE_VERY_LONG_STRING"))
}

func TestVariableNumberChecks(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"health":   -10,
		"score":    -10,
		"infinite": math.Inf(1),
	})
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_NEGATIVE_HEALTH"))
	assert.Equal(t, 1, countCode(r.Errors(), "VARIABLE_INVALID_NUMBER"))
}

func TestVariableObjectChecks(t *testing.T) {
	deep := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": map[string]any{
			"d": map[string]any{"e": map[string]any{"f": 1}},
		}}},
	}
	r := validateVariablesInput(t, map[string]any{
		"stats": map[string]any{"hp": 10, "bad key": 1},
		"tree":  deep,
	})
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_INVALID_PROPERTY_NAME"))
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_DEEP_NESTING"))
}

func TestVariableCircularReference(t *testing.T) {
	loop := map[string]any{}
	loop["self"] = loop
	r := NewReporter()
	validateVariable("loop", loop, r)
	assert.Equal(t, 1, countCode(r.Errors(), "VARIABLE_CIRCULAR_REFERENCE"))
	assert.Equal(t, 1, countCode(r.Errors(), "VARIABLE_NON_SERIALIZABLE"))
}

func TestVariableArrayChecks(t *testing.T) {
	big := make([]any, 101)
	for i := range big {
		big[i] = i
	}
	r := validateVariablesInput(t, map[string]any{
		"mixed":     []any{"sword", 3, true},
		"inventory": big,
	})
	mixed := r.Info()
	found := false
	for _, d := range mixed {
		if d.Code == "VARIABLE_MIXED_ARRAY" {
			found = true
			assert.Contains(t, d.Message, "string, number, boolean")
		}
	}
	assert.True(t, found)
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_LARGE_ARRAY"))
}

func TestVariableUnsupportedType(t *testing.T) {
	r := NewReporter()
	validateVariable("weird", func() {}, r)
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_UNSUPPORTED_TYPE"))
}

func TestVariableNamingConventions(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"MAX": 3,
		"x":   1,
	})
	assert.Equal(t, 1, countCode(r.Info(), "VARIABLE_UPPERCASE"))
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_SINGLE_LETTER"))

	long := validateVariablesInput(t, map[string]any{
		"theVariableWithAVeryLongAndUnwieldyName": 2,
	})
	assert.Equal(t, 1, countCode(long.Info(), "VARIABLE_LONG_NAME"))
}

func TestSimilarVariableNames(t *testing.T) {
	r := validateVariablesInput(t, map[string]any{
		"playerName":  "a",
		"player_name": "b",
		"unrelated":   "c",
	})
	assert.Equal(t, 1, countCode(r.Warnings(), "VARIABLE_SIMILAR_NAMES"))
}

func TestSimilarVariableNamesContainment(t *testing.T) {
	assert.True(t, similarVariableNames("score", "scoreTotal"))
	assert.True(t, similarVariableNames("playerName", "player_name"))
	assert.False(t, similarVariableNames("gold", "mana"))
}

func TestCaseConversionHelpers(t *testing.T) {
	assert.Equal(t, "player_name", camelToSnake("playerName"))
	assert.Equal(t, "playerName", snakeToCamel("player_name"))
	assert.Equal(t, "a_", snakeToCamel("a_"))
	assert.Equal(t, "a_1", snakeToCamel("a_1"))
}

func TestNestingDepth(t *testing.T) {
	assert.Equal(t, 0, nestingDepth("leaf"))
	assert.Equal(t, 1, nestingDepth(map[string]any{"a": 1}))
	assert.Equal(t, 3, nestingDepth(map[string]any{"a": []any{map[string]any{"b": 1}}}))
}
