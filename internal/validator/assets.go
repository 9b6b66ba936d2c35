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
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
)

var (
	assetKeyRe    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)
	filePathRe    = regexp.MustCompile(`^[a-zA-Z0-9_\-/.]+$`)
	domainLikeRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*\.[a-zA-Z]{2,}`)
	extensionRe   = regexp.MustCompile(`\.([^.]+)$`)
	requiredProps = []string{"key", "url", "type"}
	optionalProps = []string{
		"id", "name", "description", "size", "duration", "width", "height",
		"alt", "title", "tags", "metadata", "preload", "loop", "autoplay",
	}
)

// validateAssets checks the asset manifest: per-asset required and optional
// properties, type/extension consistency, and manifest-wide duplicates.
func validateAssets(assets any, r *Reporter) {
	list, ok := assets.([]any)
	if !ok {
		r.AddError(1, 1, "ASSETS_INVALID_TYPE", "assets must be an array", nil)
		return
	}
	if len(list) == 0 {
		r.AddInfo(1, 1, "ASSETS_EMPTY", "Assets section is empty", nil)
		return
	}

	for i, asset := range list {
		validateAsset(asset, i, r)
	}
	checkDuplicateAssets(list, r)
}

func validateAsset(asset any, index int, r *Reporter) {
	m, ok := asset.(map[string]any)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_TYPE",
			fmt.Sprintf("Asset %d must be an object", index+1), nil)
		return
	}

	for _, prop := range requiredProps {
		if !truthy(m[prop]) {
			r.AddError(1, 1, "ASSET_MISSING_PROPERTY",
				fmt.Sprintf("Asset %d missing required property: %s", index+1, prop), nil)
		}
	}

	if truthy(m["key"]) {
		validateAssetKey(m["key"], index, r)
	}
	if truthy(m["url"]) {
		validateAssetURL(m["url"], index, r)
	}
	if truthy(m["type"]) {
		validateAssetType(m["type"], index, r)
	}
	if truthy(m["id"]) {
		validateAssetID(m["id"], index, r)
	}
	if truthy(m["name"]) {
		validateAssetName(m["name"], index, r)
	}
	if truthy(m["description"]) {
		validateAssetDescription(m["description"], index, r)
	}
	if truthy(m["size"]) {
		validateAssetSize(m["size"], index, r)
	}
	if truthy(m["duration"]) {
		validateAssetDuration(m["duration"], index, r)
	}
	if truthy(m["width"]) || truthy(m["height"]) {
		validateAssetDimensions(m["width"], m["height"], index, r)
	}
	if truthy(m["tags"]) {
		validateAssetTags(m["tags"], index, r)
	}
	if truthy(m["metadata"]) {
		validateAssetMetadata(m["metadata"], index, r)
	}

	props := make([]string, 0, len(m))
	for prop := range m {
		props = append(props, prop)
	}
	sort.Strings(props)
	for _, prop := range props {
		if !knownAssetProperty(prop) {
			r.AddWarning(1, 1, "ASSET_UNKNOWN_PROPERTY",
				fmt.Sprintf("Asset %d has unknown property: %s", index+1, prop), nil)
		}
	}

	validateAssetCrossProperties(m, index, r)
}

func knownAssetProperty(prop string) bool {
	for _, p := range requiredProps {
		if prop == p {
			return true
		}
	}
	for _, p := range optionalProps {
		if prop == p {
			return true
		}
	}
	return false
}

func validateAssetKey(key any, index int, r *Reporter) {
	s, ok := key.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_KEY_TYPE",
			fmt.Sprintf("Asset %d key must be a string", index+1), nil)
		return
	}
	if strings.TrimSpace(s) == "" {
		r.AddError(1, 1, "ASSET_EMPTY_KEY",
			fmt.Sprintf("Asset %d key cannot be empty", index+1), nil)
		return
	}
	if !assetKeyRe.MatchString(s) {
		r.AddError(1, 1, "ASSET_INVALID_KEY_FORMAT",
			fmt.Sprintf("Asset %d key %q invalid format. Must start with letter/underscore and contain only letters, numbers, underscores, and hyphens", index+1, s), nil)
	}
	if len(s) > 50 {
		r.AddWarning(1, 1, "ASSET_LONG_KEY",
			fmt.Sprintf("Asset %d key %q is quite long. Consider shorter names.", index+1, s), nil)
	}
}

func validateAssetURL(raw any, index int, r *Reporter) {
	s, ok := raw.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_URL_TYPE",
			fmt.Sprintf("Asset %d url must be a string", index+1), nil)
		return
	}
	if strings.TrimSpace(s) == "" {
		r.AddError(1, 1, "ASSET_EMPTY_URL",
			fmt.Sprintf("Asset %d url cannot be empty", index+1), nil)
		return
	}
	if !validURL(s) && !filePathRe.MatchString(s) {
		r.AddError(1, 1, "ASSET_INVALID_URL_FORMAT",
			fmt.Sprintf("Asset %d url %q is not a valid URL or file path", index+1, s), nil)
	}
	if fileExtension(s) == "" {
		r.AddWarning(1, 1, "ASSET_NO_EXTENSION",
			fmt.Sprintf("Asset %d URL has no file extension", index+1), nil)
	}
}

func validateAssetType(raw any, index int, r *Reporter) {
	s, ok := raw.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_TYPE_TYPE",
			fmt.Sprintf("Asset %d type must be a string", index+1), nil)
		return
	}
	if !validAssetType(s) {
		r.AddError(1, 1, "ASSET_INVALID_TYPE_VALUE",
			fmt.Sprintf("Asset %d type %q is invalid. Valid types: %s",
				index+1, s, strings.Join(story.AssetTypes, ", ")), nil)
	}
}

func validAssetType(t string) bool {
	for _, valid := range story.AssetTypes {
		if t == valid {
			return true
		}
	}
	return false
}

func validateAssetID(raw any, index int, r *Reporter) {
	s, ok := raw.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_ID_TYPE",
			fmt.Sprintf("Asset %d id must be a string", index+1), nil)
		return
	}
	if strings.TrimSpace(s) == "" {
		r.AddError(1, 1, "ASSET_EMPTY_ID",
			fmt.Sprintf("Asset %d id cannot be empty", index+1), nil)
	}
}

func validateAssetName(raw any, index int, r *Reporter) {
	s, ok := raw.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_NAME_TYPE",
			fmt.Sprintf("Asset %d name must be a string", index+1), nil)
		return
	}
	if strings.TrimSpace(s) == "" {
		r.AddWarning(1, 1, "ASSET_EMPTY_NAME",
			fmt.Sprintf("Asset %d name is empty", index+1), nil)
	}
	if len(s) > 100 {
		r.AddWarning(1, 1, "ASSET_LONG_NAME",
			fmt.Sprintf("Asset %d name is quite long (%d characters)", index+1, len(s)), nil)
	}
}

func validateAssetDescription(raw any, index int, r *Reporter) {
	s, ok := raw.(string)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_DESCRIPTION_TYPE",
			fmt.Sprintf("Asset %d description must be a string", index+1), nil)
		return
	}
	if len(s) > 500 {
		r.AddWarning(1, 1, "ASSET_LONG_DESCRIPTION",
			fmt.Sprintf("Asset %d description is quite long (%d characters)", index+1, len(s)), nil)
	}
}

func validateAssetSize(raw any, index int, r *Reporter) {
	size, ok := numeric(raw)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_SIZE_TYPE",
			fmt.Sprintf("Asset %d size must be a number", index+1), nil)
		return
	}
	if size < 0 {
		r.AddError(1, 1, "ASSET_NEGATIVE_SIZE",
			fmt.Sprintf("Asset %d size cannot be negative", index+1), nil)
	}
	if size > 50*1024*1024 {
		r.AddWarning(1, 1, "ASSET_LARGE_SIZE",
			fmt.Sprintf("Asset %d is quite large (%s). Consider optimization.", index+1, formatFileSize(size)), nil)
	}
}

func validateAssetDuration(raw any, index int, r *Reporter) {
	duration, ok := numeric(raw)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_DURATION_TYPE",
			fmt.Sprintf("Asset %d duration must be a number", index+1), nil)
		return
	}
	if duration < 0 {
		r.AddError(1, 1, "ASSET_NEGATIVE_DURATION",
			fmt.Sprintf("Asset %d duration cannot be negative", index+1), nil)
	}
	if duration > 3600 {
		r.AddWarning(1, 1, "ASSET_LONG_DURATION",
			fmt.Sprintf("Asset %d has very long duration (%v seconds)", index+1, duration), nil)
	}
}

func validateAssetDimensions(width, height any, index int, r *Reporter) {
	var w, h float64
	if width != nil {
		var ok bool
		if w, ok = numeric(width); !ok {
			r.AddError(1, 1, "ASSET_INVALID_WIDTH_TYPE",
				fmt.Sprintf("Asset %d width must be a number", index+1), nil)
		} else if w <= 0 {
			r.AddError(1, 1, "ASSET_INVALID_WIDTH_VALUE",
				fmt.Sprintf("Asset %d width must be positive", index+1), nil)
		}
	}
	if height != nil {
		var ok bool
		if h, ok = numeric(height); !ok {
			r.AddError(1, 1, "ASSET_INVALID_HEIGHT_TYPE",
				fmt.Sprintf("Asset %d height must be a number", index+1), nil)
		} else if h <= 0 {
			r.AddError(1, 1, "ASSET_INVALID_HEIGHT_VALUE",
				fmt.Sprintf("Asset %d height must be positive", index+1), nil)
		}
	}
	if w > 4096 || h > 4096 {
		r.AddWarning(1, 1, "ASSET_LARGE_DIMENSIONS",
			fmt.Sprintf("Asset %d has very large dimensions (%vx%v)", index+1, w, h), nil)
	}
}

func validateAssetTags(raw any, index int, r *Reporter) {
	tags, ok := raw.([]any)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_TAGS_TYPE",
			fmt.Sprintf("Asset %d tags must be an array", index+1), nil)
		return
	}

	seen := map[string]bool{}
	duplicate := false
	for i, tag := range tags {
		s, isString := tag.(string)
		if !isString {
			r.AddError(1, 1, "ASSET_INVALID_TAG_TYPE",
				fmt.Sprintf("Asset %d tag %d must be a string", index+1, i+1), nil)
			continue
		}
		if strings.TrimSpace(s) == "" {
			r.AddWarning(1, 1, "ASSET_EMPTY_TAG",
				fmt.Sprintf("Asset %d has empty tag", index+1), nil)
		}
		if seen[s] {
			duplicate = true
		}
		seen[s] = true
	}
	if duplicate {
		r.AddWarning(1, 1, "ASSET_DUPLICATE_TAGS",
			fmt.Sprintf("Asset %d has duplicate tags", index+1), nil)
	}
}

func validateAssetMetadata(raw any, index int, r *Reporter) {
	m, ok := raw.(map[string]any)
	if !ok {
		r.AddError(1, 1, "ASSET_INVALID_METADATA_TYPE",
			fmt.Sprintf("Asset %d metadata must be an object", index+1), nil)
		return
	}
	if !jsonSerializable(m) {
		r.AddError(1, 1, "ASSET_NON_SERIALIZABLE_METADATA",
			fmt.Sprintf("Asset %d metadata is not serializable", index+1), nil)
	}
}

func validateAssetCrossProperties(m map[string]any, index int, r *Reporter) {
	assetURL, _ := m["url"].(string)
	assetType, _ := m["type"].(string)

	if assetURL != "" && assetType != "" {
		if ext := fileExtension(assetURL); ext != "" && !extensionMatchesType(ext, assetType) {
			r.AddWarning(1, 1, "ASSET_TYPE_EXTENSION_MISMATCH",
				fmt.Sprintf("Asset %d type %q doesn't match URL extension %q", index+1, assetType, "."+ext), nil)
		}
	}

	if truthy(m["duration"]) && assetType != "" && assetType != "audio" && assetType != "video" {
		r.AddWarning(1, 1, "ASSET_DURATION_INVALID_TYPE",
			fmt.Sprintf("Asset %d has duration but type is %q", index+1, assetType), nil)
	}

	if (truthy(m["width"]) || truthy(m["height"])) && assetType != "" && assetType != "image" && assetType != "video" {
		r.AddWarning(1, 1, "ASSET_DIMENSIONS_INVALID_TYPE",
			fmt.Sprintf("Asset %d has dimensions but type is %q", index+1, assetType), nil)
	}

	key, _ := m["key"].(string)
	id, _ := m["id"].(string)
	if key != "" && id != "" && key == id {
		r.AddInfo(1, 1, "ASSET_DUPLICATE_KEY_ID",
			fmt.Sprintf("Asset %d has identical key and id. Consider using only one.", index+1), nil)
	}
}

// checkDuplicateAssets flags repeated keys and ids (errors) and repeated
// URLs (warning), naming both positions.
func checkDuplicateAssets(assets []any, r *Reporter) {
	keySeen := map[string]int{}
	idSeen := map[string]int{}
	urlSeen := map[string]int{}

	for i, asset := range assets {
		m, ok := asset.(map[string]any)
		if !ok {
			continue
		}
		if key, isString := m["key"].(string); isString && key != "" {
			if first, dup := keySeen[key]; dup {
				r.AddError(1, 1, "ASSET_DUPLICATE_KEY",
					fmt.Sprintf("Duplicate asset key %q found at positions %d and %d", key, first+1, i+1), nil)
			} else {
				keySeen[key] = i
			}
		}
		if id, isString := m["id"].(string); isString && id != "" {
			if first, dup := idSeen[id]; dup {
				r.AddError(1, 1, "ASSET_DUPLICATE_ID",
					fmt.Sprintf("Duplicate asset id %q found at positions %d and %d", id, first+1, i+1), nil)
			} else {
				idSeen[id] = i
			}
		}
		if u, isString := m["url"].(string); isString && u != "" {
			if first, dup := urlSeen[u]; dup {
				r.AddWarning(1, 1, "ASSET_DUPLICATE_URL",
					fmt.Sprintf("Duplicate asset URL %q found at positions %d and %d", u, first+1, i+1), nil)
			} else {
				urlSeen[u] = i
			}
		}
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func validURL(s string) bool {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return true
	}
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "/") || domainLikeRe.MatchString(s)
}

func fileExtension(s string) string {
	path := s
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		path = u.Path
	}
	if m := extensionRe.FindStringSubmatch(path); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

func extensionMatchesType(ext, assetType string) bool {
	valid, known := story.ExtensionsForAssetType[assetType]
	if !known {
		return true
	}
	for _, v := range valid {
		if ext == v {
			return true
		}
	}
	return false
}

func formatFileSize(bytes float64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(bytes) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	value := bytes / math.Pow(1024, float64(i))
	rounded := math.Round(value*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}
