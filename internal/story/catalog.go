/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

// The helper catalog is immutable configuration data: every template helper
// the VN engine ships with, grouped by category, plus advisory call
// signatures for the subset with a stable calling convention. It is consulted
// by the expression analyzer and by editor surfaces (autocomplete, hover).

// HelperCategory groups helpers by purpose.
type HelperCategory string

const (
	HelperVN         HelperCategory = "vn"
	HelperComparison HelperCategory = "comparison"
	HelperMath       HelperCategory = "math"
	HelperString     HelperCategory = "string"
	HelperArray      HelperCategory = "array"
	HelperAsset      HelperCategory = "asset"
	HelperBuiltin    HelperCategory = "handlebars"
	HelperTime       HelperCategory = "time"
)

// ArityKind describes how a Signature constrains the argument count.
type ArityKind int

const (
	// ArityExact requires exactly Counts[0] arguments.
	ArityExact ArityKind = iota
	// ArityChoice allows any count listed in Counts.
	ArityChoice
	// ArityAtLeast requires Counts[0] or more arguments.
	ArityAtLeast
)

// Signature is an advisory call signature. Types holds positional type hints
// ("string", "number", "boolean", "array", "any"); shorter than the maximum
// argument count when trailing arguments are unconstrained.
type Signature struct {
	Kind   ArityKind
	Counts []int
	Types  []string
}

func exact(n int, types ...string) *Signature {
	return &Signature{Kind: ArityExact, Counts: []int{n}, Types: types}
}

func choice(counts []int, types ...string) *Signature {
	return &Signature{Kind: ArityChoice, Counts: counts, Types: types}
}

func atLeast(n int, types ...string) *Signature {
	return &Signature{Kind: ArityAtLeast, Counts: []int{n}, Types: types}
}

// helpersByCategory lists every known helper in catalog order. The order is
// load-bearing for suggestion ranking: ties in edit distance resolve to the
// first match.
var helpersByCategory = []struct {
	Category HelperCategory
	Names    []string
}{
	{HelperVN, []string{
		"hasFlag", "addFlag", "removeFlag", "toggleFlag", "getVar", "setVar",
		"hasVar", "incrementVar", "playerChose", "getLastChoice", "choiceCount",
		"formatTime", "randomBool", "debug", "timestamp", "currentDate", "currentTime",
		"input", "saveGame", "loadGame", "quickSave", "quickLoad", "hasSave",
		"textInput", "selectInput", "checkboxInput", "numberInput", "component",
	}},
	{HelperComparison, []string{
		"eq", "ne", "gt", "gte", "lt", "lte", "and", "or", "not", "contains",
		"isEmpty", "isString", "isNumber", "isArray", "isObject", "isBoolean",
		"compare", "between", "ifx", "ternary", "coalesce", "default", "eqw", "neqw",
	}},
	{HelperMath, []string{
		"add", "subtract", "multiply", "divide", "remainder", "mod", "abs", "min", "max",
		"round", "ceil", "floor", "random", "randomInt", "clamp", "sum", "average",
		"percentage", "statCheck", "rollDice", "lerp", "normalize", "formatNumber",
		"inRange", "isEven", "isOdd",
	}},
	{HelperString, []string{
		"uppercase", "lowercase", "capitalize", "capitalizeFirst", "titleCase",
		"trim", "truncate", "ellipsis", "replace", "remove", "reverse", "repeat",
		"padStart", "padEnd", "center", "startsWith", "endsWith", "includes",
		"substring", "words", "wordCount", "slugify", "stripTags", "typewriter",
		"nameTag", "dialogueFormat", "parseMarkdown", "sanitizeInput", "colorText", "charAt",
	}},
	{HelperArray, []string{
		"first", "last", "length", "size", "includes", "isEmpty", "filter", "find",
		"where", "map", "pluck", "join", "groupBy", "chunk", "unique", "shuffle",
		"slice", "take", "sample", "sampleSize", "flatten", "reverse", "concat",
		"compact", "without", "randomChoice", "weightedChoice", "cycleNext",
		"findByProperty", "array", "range", "times",
	}},
	{HelperAsset, []string{
		"hasAsset", "getAsset", "resolveAsset", "getAssetInfo", "getMediaType",
		"normalizeKey", "assetCount", "formatFileSize", "validateAsset",
		"showImage", "playAudio", "playVideo",
	}},
	{HelperBuiltin, []string{
		"if", "unless", "each", "with", "lookup", "log", "blockHelperMissing",
		"helperMissing", "noop",
	}},
	{HelperTime, []string{
		"currentTime", "currentDate", "formatDate", "timeElapsed", "addTime",
	}},
}

// signatures holds advisory call signatures for helpers whose calling
// convention is stable enough to hint on. Mismatches are never errors.
var signatures = map[string]*Signature{
	// VN helpers
	"hasFlag":      exact(1, "string"),
	"addFlag":      exact(1, "string"),
	"removeFlag":   exact(1, "string"),
	"toggleFlag":   exact(1, "string"),
	"getVar":       choice([]int{1, 2}, "string", "any"),
	"setVar":       exact(2, "string", "any"),
	"incrementVar": exact(2, "string", "number"),
	"playerChose":  choice([]int{1, 2}, "string", "string"),
	"formatTime":   exact(1, "number"),
	"randomBool":   choice([]int{0, 1}, "number"),
	"input":        choice([]int{2, 4}, "string", "string", "string", "any"),

	// Save/load helpers
	"saveGame":  exact(1, "number"),
	"loadGame":  exact(1, "number"),
	"quickSave": exact(0),
	"quickLoad": exact(0),
	"hasSave":   exact(1, "number"),

	// Input helpers
	"textInput":     choice([]int{2, 3}, "string", "string", "string"),
	"selectInput":   exact(3, "string", "string", "string"),
	"checkboxInput": exact(2, "string", "string"),
	"numberInput":   choice([]int{2, 4}, "string", "string", "number", "number"),
	"component":     choice([]int{1, 2}, "string", "any"),

	// Comparison helpers
	"eq":       exact(2, "any", "any"),
	"ne":       exact(2, "any", "any"),
	"gt":       exact(2, "number", "number"),
	"gte":      exact(2, "number", "number"),
	"lt":       exact(2, "number", "number"),
	"lte":      exact(2, "number", "number"),
	"and":      atLeast(2, "any"),
	"or":       atLeast(2, "any"),
	"not":      exact(1, "any"),
	"contains": exact(2, "any", "any"),
	"between":  exact(3, "number", "number", "number"),

	// Math helpers
	"add":       atLeast(2, "number"),
	"subtract":  exact(2, "number", "number"),
	"multiply":  atLeast(2, "number"),
	"divide":    exact(2, "number", "number"),
	"random":    exact(2, "number", "number"),
	"randomInt": exact(2, "number", "number"),
	"clamp":     exact(3, "number", "number", "number"),
	"rollDice":  choice([]int{1, 2}, "number", "number"),

	// String helpers
	"truncate":  choice([]int{2, 3}, "string", "number", "string"),
	"replace":   exact(3, "string", "string", "string"),
	"repeat":    exact(2, "string", "number"),
	"padStart":  choice([]int{2, 3}, "string", "number", "string"),
	"padEnd":    choice([]int{2, 3}, "string", "number", "string"),
	"substring": choice([]int{2, 3}, "string", "number", "number"),

	// Array helpers
	"first": choice([]int{1, 2}, "array", "number"),
	"last":  choice([]int{1, 2}, "array", "number"),
	"take":  exact(2, "array", "number"),
	"slice": choice([]int{2, 3}, "array", "number", "number"),
	"join":  choice([]int{1, 2}, "array", "string"),

	// Asset helpers
	"hasAsset":     exact(2, "string", "array"),
	"getAsset":     exact(2, "string", "array"),
	"resolveAsset": exact(2, "string", "array"),
	"showImage":    choice([]int{2, 4}, "string", "array", "string", "string"),
	"playAudio":    choice([]int{2, 4}, "string", "array", "boolean", "boolean"),
}

// blockHelpers is the subset of helpers usable with {{#name}}...{{/name}}.
var blockHelpers = map[string]bool{
	"if": true, "unless": true, "each": true, "with": true, "hasFlag": true,
	"hasVar": true, "playerChose": true, "eq": true, "ne": true, "gt": true,
	"gte": true, "lt": true, "lte": true, "and": true, "or": true, "not": true,
	"contains": true, "isEmpty": true, "compare": true, "between": true,
	"randomBool": true, "toggleFlag": true, "statCheck": true,
	"startsWith": true, "endsWith": true, "includes": true, "hasAsset": true,
	"validateAsset": true, "hasSave": true, "component": true,
}

// CommonlyCustomHelpers are substrings that mark a helper name as a likely
// user-defined helper rather than a typo.
var CommonlyCustomHelpers = []string{
	"input", "custom", "gameSpecific", "userDefined", "scenario",
	"save", "load", "Input", "Save", "Load", "Game", "component",
}

// CommonVariables are engine and convention variable names used for
// typo suggestions on bare variable references.
var CommonVariables = []string{
	"player", "gameTime", "currentScene", "score", "health", "inventory",
	"flags", "variables", "choiceHistory", "storyFlags", "keeper_name",
	"current_time_period", "session_start_time", "saveSlot", "currentSave",
	"playerInput", "userChoice", "selectedOption",
}

var (
	helperNames    []string
	helperCategory map[string]HelperCategory
)

func init() {
	helperCategory = make(map[string]HelperCategory)
	seen := make(map[string]bool)
	for _, group := range helpersByCategory {
		for _, name := range group.Names {
			if _, ok := helperCategory[name]; !ok {
				helperCategory[name] = group.Category
			}
			if !seen[name] {
				seen[name] = true
				helperNames = append(helperNames, name)
			}
		}
	}
}

// KnownHelper reports whether name is in the catalog.
func KnownHelper(name string) bool {
	_, ok := helperCategory[name]
	return ok
}

// HelperNames returns all catalog helper names in catalog order.
// The returned slice must not be modified.
func HelperNames() []string { return helperNames }

// CategoryOf returns the category of a known helper. Helpers listed in more
// than one category report the first listing.
func CategoryOf(name string) (HelperCategory, bool) {
	c, ok := helperCategory[name]
	return c, ok
}

// HelpersIn returns the helpers of one category in catalog order.
func HelpersIn(category HelperCategory) []string {
	for _, group := range helpersByCategory {
		if group.Category == category {
			return group.Names
		}
	}
	return nil
}

// SignatureOf returns the advisory signature for a helper, if one is defined.
func SignatureOf(name string) (*Signature, bool) {
	s, ok := signatures[name]
	return s, ok
}

// UsableAsBlock reports whether a known helper may be used as a block helper.
func UsableAsBlock(name string) bool { return blockHelpers[name] }
