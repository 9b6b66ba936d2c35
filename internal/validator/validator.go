/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package validator

import (
	"bytes"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

// Validate runs every validation pass over story source text and returns the
// accumulated report. After YAML parsing and the document shape check, the
// passes are independent: a failure in one never blocks the others, so the
// author sees every problem in a single run. The function is pure; identical
// input yields an identical report.
func Validate(content string) Report {
	r := NewReporter()

	var parsed any
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		addYAMLError(err, r)
		return r.Report()
	}

	doc, ok := parsed.(map[string]any)
	if !ok {
		r.AddError(1, 1, "INVALID_DOCUMENT", "Document must be a valid YAML object", nil)
		return r.Report()
	}

	validateTopLevel(doc, r)

	if scenes, present := doc["scenes"]; present && truthy(scenes) {
		validateScenes(scenes, r)
	}
	if variables, present := doc["variables"]; present && truthy(variables) {
		validateVariables(variables, r)
	}
	if assets, present := doc["assets"]; present && truthy(assets) {
		validateAssets(assets, r)
	}

	// Template expressions are opaque to the YAML parser, so this pass runs
	// over the raw text where line and column positions are meaningful.
	AnalyzeHandlebars(content, r)

	return r.Report()
}

var yamlErrorLineRe = regexp.MustCompile(`line (\d+)`)

// addYAMLError reports a parse failure, recovering the line number from the
// parser's message when it offers one.
func addYAMLError(err error, r *Reporter) {
	message := err.Error()
	line := 1
	if m := yamlErrorLineRe.FindStringSubmatch(message); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			line = n
		}
	}
	r.AddError(line, 1, "YAML_PARSE_ERROR", message, nil)
}

func validateTopLevel(doc map[string]any, r *Reporter) {
	if !truthy(doc["scenes"]) {
		r.AddError(1, 1, "MISSING_SCENES", `Required section "scenes" is missing`, nil)
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !validTopLevelKey(key) {
			r.AddWarning(1, 1, "UNKNOWN_TOP_LEVEL_KEY",
				"Unknown top-level key: "+strconv.Quote(key), nil)
		}
	}
}

func validTopLevelKey(key string) bool {
	for _, valid := range story.TopLevelKeys {
		if key == valid {
			return true
		}
	}
	return false
}

// ValidateSyntax checks YAML well-formedness only.
func ValidateSyntax(content string) Report {
	r := NewReporter()
	var parsed any
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		addYAMLError(err, r)
	}
	return r.Report()
}

// Statistics summarizes a story source without validating it.
type Statistics struct {
	TotalLines            int `json:"totalLines"`
	CodeLines             int `json:"codeLines"`
	CommentLines          int `json:"commentLines"`
	Scenes                int `json:"scenes"`
	Instructions          int `json:"instructions"`
	Choices               int `json:"choices"`
	HandlebarsExpressions int `json:"handlebarsExpressions"`
}

// Stats counts lines, scenes, instructions, choices and template
// expressions. Counts depending on the parsed tree stay zero when the
// document does not parse; the text-level counts are always filled.
func Stats(content string) Statistics {
	var stats Statistics
	lines := strings.Split(content, "\n")
	stats.TotalLines = len(lines)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
			stats.CommentLines++
		default:
			stats.CodeLines++
		}
	}
	stats.HandlebarsExpressions = len(exprRe.FindAllString(content, -1))

	var parsed any
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		return stats
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return stats
	}
	scenes, ok := doc["scenes"].(map[string]any)
	if !ok {
		return stats
	}

	stats.Scenes = len(scenes)
	for _, sceneData := range scenes {
		instructions, isList := sceneData.([]any)
		if !isList {
			continue
		}
		stats.Instructions += len(instructions)
		for _, instruction := range instructions {
			m, isMap := instruction.(map[string]any)
			if !isMap {
				continue
			}
			if choices, isChoices := m["choices"].([]any); isChoices {
				stats.Choices += len(choices)
			}
		}
	}
	return stats
}

// FormatContent canonically re-serializes story YAML with two-space
// indentation, preserving key order and comments. The input is returned
// unchanged when it does not parse.
func FormatContent(content string) string {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(content), &node); err != nil {
		return content
	}
	if node.Kind == 0 {
		return content
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return content
	}
	if err := enc.Close(); err != nil {
		return content
	}
	return buf.String()
}
