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
	"sort"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

var (
	sceneNameRe       = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
	openBraceRe       = regexp.MustCompile(`\{\{`)
	closeBraceRe      = regexp.MustCompile(`\}\}`)
	incompleteOpenRe  = regexp.MustCompile(`\{\{[^}]*$`)
	incompleteCloseRe = regexp.MustCompile(`^[^{]*\}\}`)
)

// validateScenes checks the scene graph: names, instruction shapes, choice
// and action structure, and jump targets against the set of declared scenes.
// Scene names are visited in sorted order so reports are deterministic.
func validateScenes(scenes any, r *Reporter) {
	sceneMap, ok := scenes.(map[string]any)
	if !ok {
		r.AddError(1, 1, "SCENES_INVALID_TYPE", "scenes must be an object", nil)
		return
	}
	if len(sceneMap) == 0 {
		r.AddWarning(1, 1, "SCENES_EMPTY", "No scenes defined", nil)
		return
	}

	names := make([]string, 0, len(sceneMap))
	declared := make(map[string]bool, len(sceneMap))
	for name := range sceneMap {
		names = append(names, name)
		declared[name] = true
	}
	sort.Strings(names)

	for _, name := range names {
		validateScene(name, sceneMap[name], declared, r)
	}
}

func validateScene(name string, data any, declared map[string]bool, r *Reporter) {
	if !sceneNameRe.MatchString(name) {
		r.AddError(1, 1, "SCENE_INVALID_NAME",
			fmt.Sprintf("Scene name %q is invalid. Use letters, numbers, underscores, and hyphens only", name), nil)
	}

	instructions, ok := data.([]any)
	if !ok {
		r.AddSceneError(name, nil, "SCENE_INVALID_STRUCTURE",
			"Scene must be an array of instructions", nil)
		return
	}
	if len(instructions) == 0 {
		r.AddSceneWarning(name, nil, "SCENE_EMPTY",
			"Scene contains no instructions", nil)
		return
	}

	for i, instruction := range instructions {
		validateInstruction(name, instruction, NewPath(i), declared, r)
	}
}

func validateInstruction(scene string, instruction any, path Path, declared map[string]bool, r *Reporter) {
	switch v := instruction.(type) {
	case string:
		validateNarration(scene, v, path, r)
	case map[string]any:
		validateObjectInstruction(scene, v, path, declared, r)
	default:
		r.AddSceneError(scene, path, "INSTRUCTION_INVALID_TYPE",
			"Instruction must be a string or object", nil)
	}
}

func validateNarration(scene, text string, path Path, r *Reporter) {
	if strings.TrimSpace(text) == "" {
		r.AddSceneError(scene, path, "INSTRUCTION_EMPTY_STRING",
			"String instruction cannot be empty", nil)
		return
	}
	checkBracesInString(scene, text, path, r)
}

func validateObjectInstruction(scene string, instruction map[string]any, path Path, declared map[string]bool, r *Reporter) {
	switch story.ClassifyInstruction(instruction) {
	case story.KindDialogue:
		validateDialogue(scene, instruction, path, r)
	case story.KindAction:
		validateActionInstruction(scene, instruction, path, r)
	case story.KindConditional:
		validateConditional(scene, instruction, path, declared, r)
	case story.KindJump:
		validateJump(scene, instruction, path, declared, r)
	default:
		r.AddSceneError(scene, path, "INSTRUCTION_UNKNOWN_TYPE",
			"Unable to determine instruction type", nil)
	}
}

func validateDialogue(scene string, instruction map[string]any, path Path, r *Reporter) {
	if speaker, ok := instruction["speaker"]; ok {
		if s, isString := speaker.(string); !isString {
			r.AddSceneError(scene, path, "DIALOGUE_INVALID_SPEAKER",
				"speaker must be a string", nil)
		} else if strings.TrimSpace(s) == "" {
			r.AddSceneError(scene, path, "DIALOGUE_EMPTY_SPEAKER",
				"speaker cannot be empty", nil)
		}
	}

	if text, ok := firstOf(instruction, "text", "say"); ok {
		if s, isString := text.(string); !isString {
			r.AddSceneError(scene, path, "DIALOGUE_INVALID_TEXT",
				"text/say must be a string", nil)
		} else if strings.TrimSpace(s) == "" {
			r.AddSceneError(scene, path, "DIALOGUE_EMPTY_TEXT",
				"text/say cannot be empty", nil)
		} else {
			checkBracesInString(scene, s, path, r)
		}
	}

	if choices, ok := firstOf(instruction, "choices", "choice"); ok {
		validateChoices(scene, choices, path, r)
	}
	if actions, ok := instruction["actions"]; ok {
		validateActions(scene, actions, path, r)
	}
}

// firstOf returns the value of the first truthy key, falling back to the
// second key's value when it is present at all.
func firstOf(m map[string]any, primary, fallback string) (any, bool) {
	if v, ok := m[primary]; ok && truthy(v) {
		return v, true
	}
	if v, ok := m[fallback]; ok {
		return v, true
	}
	return nil, false
}

// truthy mirrors the loose presence checks of the source format: empty
// strings, zero numbers, false and null all count as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

func validateChoices(scene string, choices any, path Path, r *Reporter) {
	list, ok := choices.([]any)
	if !ok {
		r.AddSceneError(scene, path, "CHOICES_INVALID_TYPE",
			"choices must be an array", nil)
		return
	}
	if len(list) == 0 {
		r.AddSceneError(scene, path, "CHOICES_EMPTY",
			"choices array cannot be empty", nil)
		return
	}
	for i, choice := range list {
		validateChoice(scene, choice, path, i, r)
	}
}

func validateChoice(scene string, choice any, path Path, index int, r *Reporter) {
	m, ok := choice.(map[string]any)
	if !ok {
		r.AddChoiceError(scene, path, index, "CHOICE_INVALID_TYPE",
			"choice must be an object", nil)
		return
	}

	if text, has := m["text"]; !has || !truthy(text) {
		r.AddChoiceError(scene, path, index, "CHOICE_MISSING_TEXT",
			`choice must have a "text" property`, nil)
	} else if s, isString := text.(string); !isString {
		r.AddChoiceError(scene, path, index, "CHOICE_INVALID_TEXT",
			"choice text must be a string", nil)
	} else if strings.TrimSpace(s) == "" {
		r.AddChoiceError(scene, path, index, "CHOICE_EMPTY_TEXT",
			"choice text cannot be empty", nil)
	}

	if condition, has := m["condition"]; has {
		if s, isString := condition.(string); !isString {
			r.AddChoiceError(scene, path, index, "CHOICE_INVALID_CONDITION",
				"choice condition must be a string", nil)
		} else {
			checkBracesInString(scene, s, path, r)
		}
	}

	// Choice goto is shape-checked only. Unlike jump instructions it is not
	// cross-referenced against declared scenes; choice targets may be
	// produced dynamically by the engine.
	if target, has := m["goto"]; has {
		if s, isString := target.(string); !isString {
			r.AddChoiceError(scene, path, index, "CHOICE_INVALID_GOTO",
				"choice goto must be a string", nil)
		} else if strings.TrimSpace(s) == "" {
			r.AddChoiceError(scene, path, index, "CHOICE_EMPTY_GOTO",
				"choice goto cannot be empty", nil)
		}
	}

	if actions, has := m["actions"]; has {
		validateActions(scene, actions, path, r)
	}
}

func validateActionInstruction(scene string, instruction map[string]any, path Path, r *Reporter) {
	var actions any
	if v, ok := instruction["actions"]; ok && truthy(v) {
		actions = v
	} else {
		actions = []any{instruction["action"]}
	}

	list, ok := actions.([]any)
	if !ok {
		r.AddSceneError(scene, path, "ACTION_INVALID_TYPE",
			"actions must be an array", nil)
		return
	}
	if len(list) == 0 {
		r.AddSceneError(scene, path, "ACTION_EMPTY",
			"actions array cannot be empty", nil)
		return
	}
	validateActions(scene, list, path, r)
}

func validateActions(scene string, actions any, path Path, r *Reporter) {
	list, ok := actions.([]any)
	if !ok {
		r.AddSceneError(scene, path, "ACTIONS_INVALID_TYPE",
			"actions must be an array", nil)
		return
	}
	for i, action := range list {
		validateAction(scene, action, path, i, r)
	}
}

func validateAction(scene string, action any, path Path, index int, r *Reporter) {
	m, ok := action.(map[string]any)
	if !ok {
		r.AddActionError(scene, path, index, "ACTION_INVALID_TYPE",
			"action must be an object", nil)
		return
	}

	rawType, has := m["type"]
	if !has || !truthy(rawType) {
		r.AddActionError(scene, path, index, "ACTION_MISSING_TYPE",
			`action must have a "type" property`, nil)
		return
	}
	actionType, _ := rawType.(string)
	if !validActionType(actionType) {
		r.AddActionError(scene, path, index, "ACTION_INVALID_TYPE_VALUE",
			fmt.Sprintf("Invalid action type: %q. Valid types: %s",
				actionType, strings.Join(story.ActionTypes, ", ")), nil)
		return
	}

	// Key-like fields are truthiness-checked; value-like fields only need
	// to be present, since 0, false and "" are legitimate values.
	switch actionType {
	case "setVar", "addVar":
		if !truthy(m["key"]) {
			r.AddActionError(scene, path, index, "ACTION_MISSING_KEY",
				fmt.Sprintf(`%s action must have a "key" property`, actionType), nil)
		}
		if _, present := m["value"]; !present {
			r.AddActionError(scene, path, index, "ACTION_MISSING_VALUE",
				fmt.Sprintf(`%s action must have a "value" property`, actionType), nil)
		}
	case "setFlag", "clearFlag":
		if !truthy(m["flag"]) {
			r.AddActionError(scene, path, index, "ACTION_MISSING_FLAG",
				fmt.Sprintf(`%s action must have a "flag" property`, actionType), nil)
		}
	case "addToList":
		if !truthy(m["list"]) {
			r.AddActionError(scene, path, index, "ACTION_MISSING_LIST",
				`addToList action must have a "list" property`, nil)
		}
		if _, present := m["item"]; !present {
			r.AddActionError(scene, path, index, "ACTION_MISSING_ITEM",
				`addToList action must have an "item" property`, nil)
		}
	case "addTime":
		if _, present := m["minutes"]; !present {
			r.AddActionError(scene, path, index, "ACTION_MISSING_MINUTES",
				`addTime action must have a "minutes" property`, nil)
		}
	case "helper":
		if !truthy(m["helper"]) {
			r.AddActionError(scene, path, index, "ACTION_MISSING_HELPER",
				`helper action must have a "helper" property`, nil)
		}
	}
}

func validActionType(t string) bool {
	for _, valid := range story.ActionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

func validateConditional(scene string, instruction map[string]any, path Path, declared map[string]bool, r *Reporter) {
	condition, _ := firstOf(instruction, "condition", "if")
	if !truthy(condition) {
		r.AddSceneError(scene, path, "CONDITIONAL_MISSING_CONDITION",
			`Conditional instruction must have a "condition" or "if" property`, nil)
	} else if s, isString := condition.(string); !isString {
		r.AddSceneError(scene, path, "CONDITIONAL_INVALID_CONDITION",
			"Conditional condition must be a string", nil)
	} else {
		checkBracesInString(scene, s, path, r)
	}

	if branch, ok := instruction["then"]; ok {
		validateBranch(scene, branch, path, BranchThen, declared, r)
	}
	if branch, ok := instruction["else"]; ok {
		validateBranch(scene, branch, path, BranchElse, declared, r)
	}
}

func validateBranch(scene string, branch any, path Path, side Branch, declared map[string]bool, r *Reporter) {
	if list, ok := branch.([]any); ok {
		for i, sub := range list {
			validateInstruction(scene, sub, path.Child(side, i), declared, r)
		}
		return
	}
	validateInstruction(scene, branch, path.Child(side, 0), declared, r)
}

func validateJump(scene string, instruction map[string]any, path Path, declared map[string]bool, r *Reporter) {
	target, _ := firstOf(instruction, "goto", "jump")
	if !truthy(target) {
		r.AddSceneError(scene, path, "JUMP_MISSING_TARGET",
			`Jump instruction must have a "goto" or "jump" property`, nil)
		return
	}
	s, isString := target.(string)
	if !isString {
		r.AddSceneError(scene, path, "JUMP_INVALID_TARGET",
			"Jump target must be a string", nil)
		return
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		r.AddSceneError(scene, path, "JUMP_EMPTY_TARGET",
			"Jump target cannot be empty", nil)
		return
	}
	if !declared[trimmed] {
		r.AddSceneError(scene, path, "JUMP_INVALID_SCENE_REFERENCE",
			fmt.Sprintf("Referenced scene %q does not exist", trimmed), nil)
	}
}

// checkBracesInString is a scene-local template sanity pass. It verifies
// brace balance per line and across the whole scalar, and re-checks complete
// spans for emptiness and nesting so the problem is attributed to a specific
// instruction. Helper-level validation happens in the global pass.
func checkBracesInString(scene, s string, path Path, r *Reporter) {
	if !strings.Contains(s, "{{") && !strings.Contains(s, "}}") {
		return
	}

	totalOpen, totalClose := 0, 0
	for i, line := range strings.Split(s, "\n") {
		open := len(openBraceRe.FindAllString(line, -1))
		closeCount := len(closeBraceRe.FindAllString(line, -1))
		totalOpen += open
		totalClose += closeCount

		if open != closeCount && (open > 0 || closeCount > 0) {
			if incompleteOpenRe.MatchString(line) || incompleteCloseRe.MatchString(line) {
				r.AddSceneError(scene, path, "HANDLEBARS_UNMATCHED_BRACES",
					fmt.Sprintf("Unmatched handlebars braces in line %d", i+1), nil)
			}
		}
	}
	if totalOpen != totalClose {
		r.AddSceneError(scene, path, "HANDLEBARS_UNMATCHED_BRACES",
			"Unmatched handlebars braces in multiline string", nil)
	}

	for _, expr := range exprRe.FindAllString(s, -1) {
		inner := strings.TrimSpace(expr[2 : len(expr)-2])
		if inner == "" {
			r.AddSceneError(scene, path, "HANDLEBARS_EMPTY_EXPRESSION",
				"Empty handlebars expression", nil)
		}
		if strings.Contains(inner, "{{") || strings.Contains(inner, "}}") {
			r.AddSceneError(scene, path, "HANDLEBARS_NESTED_BRACES",
				"Nested handlebars braces are not allowed", nil)
		}
	}
}
