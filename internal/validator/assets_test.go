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

func validateAssetsInput(t *testing.T, assets any) *Reporter {
	t.Helper()
	r := NewReporter()
	validateAssets(assets, r)
	return r
}

func cleanAsset() map[string]any {
	return map[string]any{
		"key":  "hero_portrait",
		"url":  "./images/hero.png",
		"type": "image",
	}
}

func TestAssetsInvalidType(t *testing.T) {
	r := validateAssetsInput(t, map[string]any{})
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, "ASSETS_INVALID_TYPE", r.Errors()[0].Code)
}

func TestAssetsEmptyIsInfo(t *testing.T) {
	r := validateAssetsInput(t, []any{})
	assert.Empty(t, r.Errors())
	assert.Equal(t, 1, countCode(r.Info(), "ASSETS_EMPTY"))
}

func TestAssetClean(t *testing.T) {
	r := validateAssetsInput(t, []any{cleanAsset()})
	assert.Empty(t, r.Errors())
	assert.Empty(t, r.Warnings())
}

func TestAssetMissingRequiredProperties(t *testing.T) {
	r := validateAssetsInput(t, []any{map[string]any{"key": "a"}})
	assert.Equal(t, 2, countCode(r.Errors(), "ASSET_MISSING_PROPERTY"))
}

func TestAssetNotAnObject(t *testing.T) {
	r := validateAssetsInput(t, []any{"just a string"})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_TYPE"))
}

func TestAssetKeyFormat(t *testing.T) {
	bad := cleanAsset()
	bad["key"] = "9 bad key"
	r := validateAssetsInput(t, []any{bad})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_KEY_FORMAT"))
}

func TestAssetURLFormat(t *testing.T) {
	ok := []any{
		func() map[string]any { a := cleanAsset(); a["url"] = "https://cdn.example.com/a.png"; return a }(),
		func() map[string]any { a := cleanAsset(); a["key"] = "b"; a["url"] = "example.com/a.png"; return a }(),
		func() map[string]any { a := cleanAsset(); a["key"] = "c"; a["url"] = "/abs/path/a.png"; return a }(),
	}
	r := validateAssetsInput(t, ok)
	assert.Zero(t, countCode(r.Errors(), "ASSET_INVALID_URL_FORMAT"))

	bad := cleanAsset()
	bad["url"] = "not valid url ???"
	r = validateAssetsInput(t, []any{bad})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_URL_FORMAT"))
}

func TestAssetURLWithoutExtension(t *testing.T) {
	a := cleanAsset()
	a["url"] = "./images/hero"
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_NO_EXTENSION"))
}

func TestAssetTypeValue(t *testing.T) {
	a := cleanAsset()
	a["type"] = "hologram"
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_TYPE_VALUE"))
}

func TestAssetTypeExtensionMismatch(t *testing.T) {
	a := cleanAsset()
	a["url"] = "./sounds/theme.mp3"
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_TYPE_EXTENSION_MISMATCH"))
}

func TestAssetUnknownProperty(t *testing.T) {
	a := cleanAsset()
	a["sparkle"] = true
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_UNKNOWN_PROPERTY"))
}

func TestAssetSizeAndDuration(t *testing.T) {
	a := cleanAsset()
	a["type"] = "audio"
	a["url"] = "./sounds/theme.mp3"
	a["size"] = 60 * 1024 * 1024
	a["duration"] = 4000
	r := validateAssetsInput(t, []any{a})
	assert.Empty(t, r.Errors())
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_LARGE_SIZE"))
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_LONG_DURATION"))

	b := cleanAsset()
	b["size"] = -5
	r = validateAssetsInput(t, []any{b})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_NEGATIVE_SIZE"))
}

func TestAssetDurationOnImage(t *testing.T) {
	a := cleanAsset()
	a["duration"] = 10
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_DURATION_INVALID_TYPE"))
}

func TestAssetDimensions(t *testing.T) {
	a := cleanAsset()
	a["width"] = 8192
	a["height"] = 10
	r := validateAssetsInput(t, []any{a})
	assert.Empty(t, r.Errors())
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_LARGE_DIMENSIONS"))

	b := cleanAsset()
	b["width"] = -1
	r = validateAssetsInput(t, []any{b})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_WIDTH_VALUE"))
}

func TestAssetDimensionsOnAudio(t *testing.T) {
	a := cleanAsset()
	a["type"] = "audio"
	a["url"] = "./sounds/theme.mp3"
	a["width"] = 100
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_DIMENSIONS_INVALID_TYPE"))
}

func TestAssetTags(t *testing.T) {
	a := cleanAsset()
	a["tags"] = []any{"hero", "hero", 7, "  "}
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_INVALID_TAG_TYPE"))
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_EMPTY_TAG"))
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_DUPLICATE_TAGS"))
}

func TestAssetKeyEqualsID(t *testing.T) {
	a := cleanAsset()
	a["id"] = "hero_portrait"
	r := validateAssetsInput(t, []any{a})
	assert.Equal(t, 1, countCode(r.Info(), "ASSET_DUPLICATE_KEY_ID"))
}

func TestDuplicateAssets(t *testing.T) {
	first := cleanAsset()
	second := cleanAsset()
	r := validateAssetsInput(t, []any{first, second})

	require.Equal(t, 1, countCode(r.Errors(), "ASSET_DUPLICATE_KEY"))
	assert.Contains(t, r.Errors()[0].Message, "positions 1 and 2")
	assert.Equal(t, 1, countCode(r.Warnings(), "ASSET_DUPLICATE_URL"))

	third := cleanAsset()
	third["key"] = "other"
	third["id"] = "shared"
	fourth := cleanAsset()
	fourth["key"] = "another"
	fourth["id"] = "shared"
	fourth["url"] = "./images/b.png"
	r = validateAssetsInput(t, []any{third, fourth})
	assert.Equal(t, 1, countCode(r.Errors(), "ASSET_DUPLICATE_ID"))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 B", formatFileSize(0))
	assert.Equal(t, "512 B", formatFileSize(512))
	assert.Equal(t, "1 KB", formatFileSize(1024))
	assert.Equal(t, "1.5 MB", formatFileSize(1.5*1024*1024))
}

func TestValidURL(t *testing.T) {
	assert.True(t, validURL("https://example.com/a.png"))
	assert.True(t, validURL("./relative/path.png"))
	assert.True(t, validURL("example.com/a.png"))
	assert.False(t, validURL("not a url at all"))
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "png", fileExtension("./images/hero.PNG"))
	assert.Equal(t, "mp3", fileExtension("https://cdn.example.com/theme.mp3?v=2"))
	assert.Equal(t, "", fileExtension("./images/hero"))
}
