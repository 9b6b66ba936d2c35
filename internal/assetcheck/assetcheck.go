/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assetcheck probes the asset files a story declares against what is
// actually on disk. The pure validator never touches the filesystem; this
// package is the optional I/O companion that checks existence, declared byte
// size and declared image dimensions for assets with project-relative URLs.
// All findings are warnings: a missing file is a deploy problem, not a story
// shape problem.
package assetcheck

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/story"
	"github.com/KenanMathews/vn-story-editor/internal/validator"

	// Register decoders for the formats the asset manifest allows.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// sizeTolerance is the accepted relative deviation between the declared and
// actual byte size before a mismatch is reported.
const sizeTolerance = 0.05

// ProbeAssets checks each declared asset with a local (relative) URL against
// the files under root. Remote URLs (with a scheme) are skipped. Findings are
// added to r as warnings.
func ProbeAssets(root string, doc *story.Document, r *validator.Reporter) {
	if doc == nil || r == nil {
		return
	}
	for i, a := range doc.Assets {
		probeAsset(root, a, i, r)
	}
}

func probeAsset(root string, a map[string]any, index int, r *validator.Reporter) {
	url, _ := a["url"].(string)
	url = strings.TrimSpace(url)
	if url == "" || !isLocalURL(url) {
		return
	}
	path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "./")))

	fi, err := os.Stat(path)
	if err != nil {
		r.AddWarning(1, 1, "ASSET_FILE_MISSING",
			fmt.Sprintf("Asset %d file not found: %s", index+1, url), nil)
		return
	}
	if fi.IsDir() {
		r.AddWarning(1, 1, "ASSET_FILE_IS_DIRECTORY",
			fmt.Sprintf("Asset %d URL points at a directory: %s", index+1, url), nil)
		return
	}

	if declared, ok := numeric(a["size"]); ok && declared > 0 {
		actual := float64(fi.Size())
		if deviation(declared, actual) > sizeTolerance {
			r.AddWarning(1, 1, "ASSET_SIZE_MISMATCH",
				fmt.Sprintf("Asset %d declared size %.0f bytes but file is %.0f bytes", index+1, declared, actual), nil)
		}
	}

	if typ, _ := a["type"].(string); typ == "image" {
		probeImage(path, a, index, r)
	}
}

// probeImage decodes only the image header to compare declared and actual
// dimensions.
func probeImage(path string, a map[string]any, index int, r *validator.Reporter) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		r.AddWarning(1, 1, "ASSET_IMAGE_UNDECODABLE",
			fmt.Sprintf("Asset %d image could not be decoded: %v", index+1, err), nil)
		return
	}
	if w, ok := numeric(a["width"]); ok && w > 0 && int(w) != cfg.Width {
		r.AddWarning(1, 1, "ASSET_DIMENSION_MISMATCH",
			fmt.Sprintf("Asset %d declared width %d but image is %d", index+1, int(w), cfg.Width), nil)
	}
	if h, ok := numeric(a["height"]); ok && h > 0 && int(h) != cfg.Height {
		r.AddWarning(1, 1, "ASSET_DIMENSION_MISMATCH",
			fmt.Sprintf("Asset %d declared height %d but image is %d", index+1, int(h), cfg.Height), nil)
	}
}

// isLocalURL reports whether the URL refers to a file inside the project.
func isLocalURL(s string) bool {
	if strings.Contains(s, "://") || strings.HasPrefix(s, "//") {
		return false
	}
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.HasPrefix(s, "/") || !strings.Contains(s, ":")
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func deviation(declared, actual float64) float64 {
	if declared == 0 {
		return 0
	}
	d := (actual - declared) / declared
	if d < 0 {
		d = -d
	}
	return d
}
