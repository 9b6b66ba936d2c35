/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

var variableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

var healthKeywords = []string{"health", "hp", "life", "lives", "stamina", "energy"}

// validateVariables checks the variables table: name format, reserved
// names, per-type value constraints and cross-variable naming heuristics.
func validateVariables(variables any, r *Reporter) {
	table, ok := variables.(map[string]any)
	if !ok {
		r.AddError(1, 1, "VARIABLES_INVALID_TYPE", "variables must be an object", nil)
		return
	}
	if len(table) == 0 {
		r.AddInfo(1, 1, "VARIABLES_EMPTY", "Variables section is empty", nil)
		return
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		validateVariable(name, table[name], r)
	}
	checkVariableRecommendations(names, r)
}

func validateVariable(name string, value any, r *Reporter) {
	if !variableNameRe.MatchString(name) {
		r.AddError(1, 1, "VARIABLE_INVALID_NAME",
			fmt.Sprintf("Invalid variable name: %q. Must start with letter/underscore and contain only letters, numbers, underscores, and dots", name), nil)
	}
	if reservedVariableName(name) {
		r.AddWarning(1, 1, "VARIABLE_RESERVED_NAME",
			fmt.Sprintf("Variable name %q is reserved and may conflict with engine functionality", name), nil)
	}

	validateVariableValue(name, value, r)

	if name == strings.ToUpper(name) && len(name) > 2 {
		r.AddInfo(1, 1, "VARIABLE_UPPERCASE",
			fmt.Sprintf("Variable %q is all uppercase. Consider if this should be a constant.", name), nil)
	}
	if len(name) == 1 {
		r.AddWarning(1, 1, "VARIABLE_SINGLE_LETTER",
			fmt.Sprintf("Variable %q is a single letter. Consider more descriptive names.", name), nil)
	}
}

func validateVariableValue(name string, value any, r *Reporter) {
	switch v := value.(type) {
	case nil:
		r.AddInfo(1, 1, "VARIABLE_NULL_VALUE",
			fmt.Sprintf("Variable %q has null/undefined value", name), nil)
	case string:
		validateStringVariable(name, v, r)
	case bool:
		// Nothing to check for booleans.
	case int, int64, uint64:
		validateNumberVariable(name, toFloat(v), r)
	case float64:
		validateNumberVariable(name, v, r)
	case map[string]any:
		validateObjectVariable(name, v, r)
	case []any:
		validateArrayVariable(name, v, r)
	default:
		r.AddWarning(1, 1, "VARIABLE_UNSUPPORTED_TYPE",
			fmt.Sprintf("Variable %q has unsupported type: %T", name, value), nil)
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func validateStringVariable(name, value string, r *Reporter) {
	if strings.Contains(value, "{{") && strings.Contains(value, "}}") {
		r.AddWarning(1, 1, "VARIABLE_HANDLEBARS_IN_INITIAL",
			fmt.Sprintf("Variable %q contains handlebars expressions in initial value. This will not be processed at initialization.", name), nil)
	}
	if len(value) > 1000 {
		r.AddInfo(1, 1, "VARIABLE_VERY_LONG_STRING",
			fmt.Sprintf("Variable %q has a very long initial value (%d characters)", name, len(value)), nil)
	}
}

func validateNumberVariable(name string, value float64, r *Reporter) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		r.AddError(1, 1, "VARIABLE_INVALID_NUMBER",
			fmt.Sprintf("Variable %q has invalid number value: %v", name, value), nil)
	}
	if value < 0 && healthRelated(name) {
		r.AddWarning(1, 1, "VARIABLE_NEGATIVE_HEALTH",
			fmt.Sprintf("Variable %q appears to be health-related but has negative initial value", name), nil)
	}
}

func validateObjectVariable(name string, value map[string]any, r *Reporter) {
	if !jsonSerializable(value) {
		r.AddError(1, 1, "VARIABLE_NON_SERIALIZABLE",
			fmt.Sprintf("Variable %q contains non-serializable object", name), nil)
	}
	if hasCycle(value, map[uintptr]bool{}) {
		r.AddError(1, 1, "VARIABLE_CIRCULAR_REFERENCE",
			fmt.Sprintf("Variable %q has circular reference", name), nil)
		return
	}
	if depth := nestingDepth(value); depth > 5 {
		r.AddWarning(1, 1, "VARIABLE_DEEP_NESTING",
			fmt.Sprintf("Variable %q has deep nesting (%d levels). Consider flattening for better performance.", name, depth), nil)
	}

	keys := make([]string, 0, len(value))
	for key := range value {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !variableNameRe.MatchString(key) {
			r.AddWarning(1, 1, "VARIABLE_INVALID_PROPERTY_NAME",
				fmt.Sprintf("Object variable %q has invalid property name: %q", name, key), nil)
		}
	}
}

func validateArrayVariable(name string, value []any, r *Reporter) {
	seen := map[string]bool{}
	var types []string
	for _, item := range value {
		t := looseTypeName(item)
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if len(types) > 1 {
		r.AddInfo(1, 1, "VARIABLE_MIXED_ARRAY",
			fmt.Sprintf("Variable %q contains mixed types: %s", name, strings.Join(types, ", ")), nil)
	}

	if len(value) > 100 {
		r.AddWarning(1, 1, "VARIABLE_LARGE_ARRAY",
			fmt.Sprintf("Variable %q has large initial array (%d items). Consider lazy loading.", name, len(value)), nil)
	}

	for i, item := range value {
		switch item.(type) {
		case map[string]any, []any:
			if !jsonSerializable(item) {
				r.AddError(1, 1, "VARIABLE_NON_SERIALIZABLE_ARRAY_ITEM",
					fmt.Sprintf("Variable %q array item %d is not serializable", name, i), nil)
			}
		}
	}
}

// looseTypeName groups values the way the engine's scripting layer does:
// all numerics are "number" and compound or null values are "object".
func looseTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return "object"
	}
}

func checkVariableRecommendations(names []string, r *Reporter) {
	for _, group := range similarNameGroups(names) {
		r.AddWarning(1, 1, "VARIABLE_SIMILAR_NAMES",
			fmt.Sprintf("Similar variable names detected: %s. Consider consistent naming.", strings.Join(group, ", ")), nil)
	}
	for _, name := range names {
		if len(name) > 30 {
			r.AddInfo(1, 1, "VARIABLE_LONG_NAME",
				fmt.Sprintf("Variable name %q is quite long. Consider shorter names for better readability.", name), nil)
		}
	}
}

func reservedVariableName(name string) bool {
	lower := strings.ToLower(name)
	for _, reserved := range story.ReservedVariableNames {
		if lower == strings.ToLower(reserved) {
			return true
		}
	}
	return false
}

func healthRelated(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range healthKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func jsonSerializable(v any) bool {
	_, err := json.Marshal(v)
	return err == nil
}

// hasCycle walks maps and slices tracking container identity. YAML decoding
// cannot produce cycles, but the validator also accepts programmatically
// built trees.
func hasCycle(v any, seen map[uintptr]bool) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return false
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return true
		}
		seen[ptr] = true
		defer delete(seen, ptr)
		if rv.Kind() == reflect.Map {
			for _, key := range rv.MapKeys() {
				if hasCycle(rv.MapIndex(key).Interface(), seen) {
					return true
				}
			}
		} else {
			for i := 0; i < rv.Len(); i++ {
				if hasCycle(rv.Index(i).Interface(), seen) {
					return true
				}
			}
		}
	}
	return false
}

func nestingDepth(v any) int {
	switch x := v.(type) {
	case map[string]any:
		max := 0
		for _, child := range x {
			if d := nestingDepth(child); d > max {
				max = d
			}
		}
		return max + 1
	case []any:
		max := 0
		for _, child := range x {
			if d := nestingDepth(child); d > max {
				max = d
			}
		}
		return max + 1
	default:
		return 0
	}
}

// similarNameGroups finds near-duplicate variable names: containment in
// either direction or camelCase/snake_case variants of each other.
func similarNameGroups(names []string) [][]string {
	var groups [][]string
	processed := map[string]bool{}

	for _, name := range names {
		if processed[name] {
			continue
		}
		var similar []string
		for _, other := range names {
			if other == name || processed[other] {
				continue
			}
			if similarVariableNames(name, other) {
				similar = append(similar, other)
			}
		}
		if len(similar) > 0 {
			groups = append(groups, append([]string{name}, similar...))
			processed[name] = true
			for _, s := range similar {
				processed[s] = true
			}
		}
	}
	return groups
}

func similarVariableNames(a, b string) bool {
	lowerA, lowerB := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(lowerA, lowerB) || strings.Contains(lowerB, lowerA) {
		return true
	}
	if camelToSnake(a) == lowerB || camelToSnake(b) == lowerA {
		return true
	}
	if snakeToCamel(lowerA) == b || snakeToCamel(lowerB) == a {
		return true
	}
	return false
}

func camelToSnake(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func snakeToCamel(s string) string {
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range s {
		if r == '_' {
			if pendingUnderscore {
				b.WriteByte('_')
			}
			pendingUnderscore = true
			continue
		}
		if pendingUnderscore {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r - ('a' - 'A'))
			} else {
				b.WriteByte('_')
				b.WriteRune(r)
			}
			pendingUnderscore = false
			continue
		}
		b.WriteRune(r)
	}
	if pendingUnderscore {
		b.WriteByte('_')
	}
	return b.String()
}
