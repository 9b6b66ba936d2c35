/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package story defines the story document model shared by the validator,
// the exporter and the project index: the typed document tree, instruction
// classification, and the engine's helper catalog.
package story

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the typed view of a story file. Scenes map scene names to
// instruction lists; instruction elements stay untyped here because the
// validator needs to inspect malformed shapes, not reject them at decode.
type Document struct {
	Title       string           `yaml:"title,omitempty" json:"title,omitempty"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Scenes      map[string][]any `yaml:"scenes" json:"scenes"`
	Variables   map[string]any   `yaml:"variables,omitempty" json:"variables,omitempty"`
	Assets      []map[string]any `yaml:"assets,omitempty" json:"assets,omitempty"`
	Styles      map[string]any   `yaml:"styles,omitempty" json:"styles,omitempty"`
}

// Decode parses story YAML into the typed document. Unlike the validator,
// Decode fails hard on shape mismatches; it is for consumers that require a
// well-formed story (export, indexing).
func Decode(content string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	return &doc, nil
}

// TopLevelKeys are the recognized root keys of a story document.
var TopLevelKeys = []string{"title", "description", "scenes", "variables", "assets", "styles"}

// InstructionKind classifies a scene instruction.
type InstructionKind int

const (
	KindInvalid InstructionKind = iota // not a string or mapping
	KindUnknown                        // mapping with no recognized shape
	KindNarration
	KindDialogue
	KindConditional
	KindJump
	KindAction
)

func (k InstructionKind) String() string {
	switch k {
	case KindNarration:
		return "narration"
	case KindDialogue:
		return "dialogue"
	case KindConditional:
		return "conditional"
	case KindJump:
		return "jump"
	case KindAction:
		return "action"
	case KindUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ClassifyInstruction maps a raw YAML node to an instruction kind. Mapping
// shapes are tested in priority order so that an instruction carrying both
// an action and dialogue fields is treated as an action instruction.
func ClassifyInstruction(raw any) InstructionKind {
	switch v := raw.(type) {
	case string:
		return KindNarration
	case map[string]any:
		switch {
		case hasKey(v, "action", "actions"):
			return KindAction
		case hasKey(v, "if", "condition"):
			return KindConditional
		case hasKey(v, "goto", "jump"):
			return KindJump
		case hasKey(v, "say", "text", "speaker", "choices", "choice"):
			return KindDialogue
		default:
			return KindUnknown
		}
	default:
		return KindInvalid
	}
}

func hasKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// ActionTypes are the recognized values of an action's "type" field.
var ActionTypes = []string{"setVar", "addVar", "setFlag", "clearFlag", "addToList", "addTime", "helper"}

// AssetTypes are the recognized values of an asset's "type" field.
var AssetTypes = []string{"image", "audio", "video", "text", "data"}

// ExtensionsForAssetType lists file extensions conventionally matching each
// asset type. Used for the type/extension consistency hint.
var ExtensionsForAssetType = map[string][]string{
	"image": {"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp"},
	"audio": {"mp3", "wav", "ogg", "m4a", "aac", "flac"},
	"video": {"mp4", "webm", "avi", "mov", "wmv", "flv"},
	"text":  {"txt", "md", "rtf"},
	"data":  {"json", "xml", "csv", "yaml", "yml"},
}

// ReservedVariableNames may not be used as top-level variable names; they
// collide with template context or engine state. Compared case-insensitively.
var ReservedVariableNames = []string{
	"this", "that", "root", "parent", "index", "key", "value",
	"first", "last", "length", "size", "empty",
	"null", "undefined", "true", "false",
	"storyFlags", "variables", "choiceHistory", "gameTime",
	"currentScene", "currentInstruction", "computed", "helpers",
	"assets", "scenes",
}
