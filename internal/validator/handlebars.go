/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

// Template expression analysis. Expressions are extracted per line with a
// non-greedy scan; multi-line expressions are out of scope here and caught
// by the brace-balance pass in the scene validator. The matching policy is
// deliberately permissive: authors define custom helpers the catalog cannot
// see, so only malformed syntax is a hard error.

var (
	exprRe       = regexp.MustCompile(`\{\{[^}]*\}\}`)
	blockStartRe = regexp.MustCompile(`^#(\w+)(\s+.*)?$`)
	blockEndRe   = regexp.MustCompile(`^/(\w+)$`)
	variableRe   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)
	identRe      = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	intRe        = regexp.MustCompile(`^-?\d+$`)
	floatRe      = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// AnalyzeHandlebars scans raw source text for template expressions and
// validates each one. Positions refer to the raw text.
func AnalyzeHandlebars(content string, r *Reporter) {
	for i, line := range strings.Split(content, "\n") {
		lineNumber := i + 1
		for _, loc := range exprRe.FindAllStringIndex(line, -1) {
			expr := line[loc[0]:loc[1]]
			checkExpression(expr, lineNumber, loc[0]+1, r)
		}
	}
}

func checkExpression(expr string, line, column int, r *Reporter) {
	inner := strings.TrimSpace(expr[2 : len(expr)-2])

	if inner == "" {
		r.AddHandlebarsError(expr, line, column, "HANDLEBARS_EMPTY",
			"Empty handlebars expression", nil)
		return
	}
	if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
		r.AddHandlebarsError(expr, line, column, "HANDLEBARS_NESTED_BRACES",
			"Nested handlebars braces are not allowed", nil)
		return
	}

	switch parsed := parseExpression(inner); parsed.kind {
	case exprVariable:
		checkVariableReference(parsed.name, expr, line, column, r)
	case exprHelper:
		checkHelperCall(parsed.name, parsed.args, expr, line, column, r)
	case exprBlockStart:
		checkBlockHelper(parsed.name, parsed.args, expr, line, column, r)
	case exprBlockEnd:
		if !story.KnownHelper(parsed.name) && !likelyCustomHelper(parsed.name) {
			r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_UNKNOWN_HELPER",
				"Unknown helper in block end: "+parsed.name, nil)
		}
	}
}

type exprKind int

const (
	exprVariable exprKind = iota
	exprHelper
	exprBlockStart
	exprBlockEnd
)

type parsedExpression struct {
	kind exprKind
	name string
	args []string
}

func parseExpression(inner string) parsedExpression {
	if m := blockStartRe.FindStringSubmatch(inner); m != nil {
		var args []string
		if m[2] != "" {
			args = splitArguments(strings.TrimSpace(m[2]))
		}
		return parsedExpression{kind: exprBlockStart, name: m[1], args: args}
	}
	if m := blockEndRe.FindStringSubmatch(inner); m != nil {
		return parsedExpression{kind: exprBlockEnd, name: m[1]}
	}

	parts := strings.Fields(inner)
	if len(parts) == 1 && variableRe.MatchString(parts[0]) && !story.KnownHelper(parts[0]) {
		return parsedExpression{kind: exprVariable, name: parts[0]}
	}
	return parsedExpression{
		kind: exprHelper,
		name: parts[0],
		args: splitArguments(strings.Join(parts[1:], " ")),
	}
}

// splitArguments tokenizes a helper argument string. Quoted strings and
// paren/bracket spans are kept as single opaque tokens.
func splitArguments(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	var current strings.Builder
	inString := false
	var stringChar byte
	depth := 0

	flush := func() {
		if tok := strings.TrimSpace(current.String()); tok != "" {
			args = append(args, tok)
		}
		current.Reset()
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			current.WriteByte(ch)
			if ch == stringChar && (i == 0 || s[i-1] != '\\') {
				inString = false
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			inString = true
			stringChar = ch
			current.WriteByte(ch)
		case ch == '(' || ch == '[':
			depth++
			current.WriteByte(ch)
		case ch == ')' || ch == ']':
			depth--
			current.WriteByte(ch)
		case ch == ' ' && depth == 0:
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return args
}

// likelyCustomHelper reports whether an unknown helper name plausibly refers
// to a user-defined helper rather than a typo.
func likelyCustomHelper(name string) bool {
	if identRe.MatchString(name) {
		return true
	}
	for _, pattern := range story.CommonlyCustomHelpers {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func checkVariableReference(name, expr string, line, column int, r *Reporter) {
	if !variableRe.MatchString(name) {
		r.AddHandlebarsError(expr, line, column, "HANDLEBARS_INVALID_VARIABLE",
			"Invalid variable name: "+name, nil)
	}
	if suggestions := variableSuggestions(name); len(suggestions) > 0 {
		r.AddInfo(line, column, "HANDLEBARS_VARIABLE_SUGGESTION",
			fmt.Sprintf("Did you mean: %s?", strings.Join(suggestions, ", ")),
			map[string]any{"suggestions": suggestions})
	}
}

func checkHelperCall(name string, args []string, expr string, line, column int, r *Reporter) {
	if !story.KnownHelper(name) {
		if likelyCustomHelper(name) {
			r.AddInfo(line, column, "HANDLEBARS_CUSTOM_HELPER",
				"Custom helper detected: "+name, map[string]any{"expression": expr})
			return
		}
		r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_UNKNOWN_HELPER",
			"Unknown helper: "+name, nil)
		if suggestions := helperSuggestions(name); len(suggestions) > 0 {
			r.AddInfo(line, column, "HANDLEBARS_HELPER_SUGGESTION",
				fmt.Sprintf("Did you mean: %s?", strings.Join(suggestions, ", ")),
				map[string]any{"suggestions": suggestions})
		}
		return
	}
	checkHelperArguments(name, args, expr, line, column, r)
}

func checkBlockHelper(name string, args []string, expr string, line, column int, r *Reporter) {
	known := story.KnownHelper(name)
	if !known && !likelyCustomHelper(name) {
		r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_UNKNOWN_HELPER",
			"Unknown block helper: "+name, nil)
		return
	}
	if known && !story.UsableAsBlock(name) {
		r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_INVALID_BLOCK_HELPER",
			fmt.Sprintf("Helper %s is not typically used as a block helper", name), nil)
		return
	}
	if known {
		checkHelperArguments(name, args, expr, line, column, r)
	}
}

// checkHelperArguments validates argument count and literal types against
// the catalog signature. Both checks are advisory; the calling convention of
// the engine is flexible, so a mismatch is never an error.
func checkHelperArguments(name string, args []string, expr string, line, column int, r *Reporter) {
	sig, ok := story.SignatureOf(name)
	if !ok {
		return
	}

	got := len(args)
	switch sig.Kind {
	case story.ArityExact:
		if got != sig.Counts[0] {
			r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_WRONG_ARG_COUNT",
				fmt.Sprintf("Helper %s typically expects %d arguments, got %d", name, sig.Counts[0], got), nil)
		}
	case story.ArityChoice:
		allowed := false
		for _, n := range sig.Counts {
			if got == n {
				allowed = true
				break
			}
		}
		if !allowed {
			var counts []string
			for _, n := range sig.Counts {
				counts = append(counts, fmt.Sprintf("%d", n))
			}
			r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_WRONG_ARG_COUNT",
				fmt.Sprintf("Helper %s typically expects %s arguments, got %d", name, strings.Join(counts, " or "), got), nil)
		}
	case story.ArityAtLeast:
		if got < sig.Counts[0] {
			r.AddHandlebarsWarning(expr, line, column, "HANDLEBARS_WRONG_ARG_COUNT",
				fmt.Sprintf("Helper %s typically expects at least %d arguments, got %d", name, sig.Counts[0], got), nil)
		}
	}

	for i, arg := range args {
		if i >= len(sig.Types) {
			break
		}
		expected := sig.Types[i]
		actual := inferArgumentType(arg)
		if expected != "any" && actual != "unknown" && actual != expected {
			r.AddInfo(line, column, "HANDLEBARS_TYPE_MISMATCH",
				fmt.Sprintf("Helper %s argument %d typically expects %s, got %s", name, i+1, expected, actual),
				map[string]any{
					"helperName":    name,
					"argumentIndex": i,
					"expectedType":  expected,
					"actualType":    actual,
				})
		}
	}
}

// inferArgumentType guesses a literal's type from its textual shape.
func inferArgumentType(arg string) string {
	switch {
	case len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"':
		return "string"
	case len(arg) >= 2 && arg[0] == '\'' && arg[len(arg)-1] == '\'':
		return "string"
	case intRe.MatchString(arg) || floatRe.MatchString(arg):
		return "number"
	case arg == "true" || arg == "false":
		return "boolean"
	case arg == "null":
		return "null"
	case arg == "undefined":
		return "undefined"
	case strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]"):
		return "array"
	case strings.HasPrefix(arg, "{") && strings.HasSuffix(arg, "}"):
		return "object"
	default:
		return "unknown"
	}
}

const maxSuggestions = 3

func helperSuggestions(name string) []string {
	return rankSuggestions(name, story.HelperNames())
}

func variableSuggestions(name string) []string {
	return rankSuggestions(name, story.CommonVariables)
}

// rankSuggestions returns up to maxSuggestions candidates within edit
// distance 2 of name, case-insensitive, in candidate order.
func rankSuggestions(name string, candidates []string) []string {
	var out []string
	lower := strings.ToLower(name)
	for _, candidate := range candidates {
		if levenshtein(lower, strings.ToLower(candidate)) <= 2 {
			out = append(out, candidate)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for j := 0; j <= len(a); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(b); i++ {
		curr[0] = i
		for j := 1; j <= len(a); j++ {
			if b[i-1] == a[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j-1], curr[j-1], prev[j]) + 1
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
