/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ManifestFileName = "project.json"
	BackupsDirName   = "backups"

	// StoryDirName holds the YAML story files; StoryFileName is the entry file.
	StoryDirName  = "story"
	StoryFileName = "story.yaml"
)

// Standard subfolders of a story project.
var standardSubDirs = []string{
	StoryDirName,
	"components",
	"scripts",
	"styles",
	"assets",
	BackupsDirName,
}

// Manifest is the canonical project.json content. The story text itself lives
// in story/*.yaml; the manifest records project identity and settings.
type Manifest struct {
	ManifestVersion int    `json:"manifest_version"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Author          string `json:"author,omitempty"`
	Entry           string `json:"entry"` // story file relative to the project root
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// NewManifest returns a manifest with defaults filled in.
func NewManifest(name string) Manifest {
	now := time.Now().UTC().Format(time.RFC3339)
	return Manifest{
		ManifestVersion: 1,
		Name:            name,
		Entry:           filepath.ToSlash(filepath.Join(StoryDirName, StoryFileName)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ProjectHandle keeps track of the project state loaded/saved from disk.
// Root is the project directory containing project.json and subfolders.
type ProjectHandle struct {
	Root         string
	ManifestPath string
	Manifest     Manifest
}

// StoryPath returns the absolute path of the project's entry story file.
func (ph *ProjectHandle) StoryPath() string {
	entry := ph.Manifest.Entry
	if strings.TrimSpace(entry) == "" {
		entry = filepath.Join(StoryDirName, StoryFileName)
	}
	return filepath.Join(ph.Root, filepath.FromSlash(entry))
}

// starterStory is written into a freshly scaffolded project so the editor
// opens on something valid.
const starterStory = `title: "New Story"
description: "Describe your story here."

variables:
  player: "Traveler"
  health: 100

scenes:
  intro:
    - "The story begins."
    - speaker: "Narrator"
      text: "Welcome, {{player}}."
      choices:
        - text: "Begin"
          goto: "ending"
  ending:
    - "The end."
`

// InitProject creates a new project directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, writes a starter story
// file and the manifest transactionally.
func InitProject(root string, m Manifest) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	ph := &ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Manifest:     m,
	}
	storyPath := ph.StoryPath()
	if _, err := os.Stat(storyPath); errors.Is(err, os.ErrNotExist) {
		if err := writeFileSync(storyPath, []byte(starterStory)); err != nil {
			return nil, fmt.Errorf("write starter story: %w", err)
		}
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	return ph, nil
}

// Open loads an existing project from the given root directory.
// If the current manifest cannot be read or parsed, it will attempt the last backup.
func Open(root string) (*ProjectHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		m, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *m}, nil
	}
	var m Manifest
	if uerr := json.Unmarshal(b, &m); uerr != nil {
		bm, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *bm}, nil
	}
	return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: m}, nil
}

// Save writes the current manifest to disk with transactional semantics and a
// timestamped backup of the previous manifest (if present).
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	ph.Manifest.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(ph.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current manifest exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(ph.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(ph.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(ph.ManifestPath); err == nil {
		_ = os.Remove(ph.ManifestPath)
	}
	if rerr := os.Rename(temp, ph.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// ReadStory returns the entry story file's text.
func ReadStory(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	b, err := os.ReadFile(ph.StoryPath())
	if err != nil {
		return "", fmt.Errorf("read story: %w", err)
	}
	return string(b), nil
}

// WriteStory replaces the entry story file transactionally, keeping a
// timestamped backup of the previous content.
func WriteStory(ph *ProjectHandle, content string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	path := ph.StoryPath()
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp)
		if cerr := copyFile(path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current story: %w", cerr)
		}
	}
	temp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, []byte(content)); err != nil {
		return fmt.Errorf("write temp story: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace story: %w", err)
	}
	return nil
}

// AutosaveCrashSnapshot writes the manifest and current story text into the
// backups folder. Used by the crash handler; best effort, no temp/rename dance
// since the destination is a fresh file.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("autosave-%s.json", stamp))
	data, err := json.MarshalIndent(ph.Manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeFileSync(path, append(data, '\n')); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	if text, rerr := ReadStory(ph); rerr == nil {
		storyBak := filepath.Join(bdir, fmt.Sprintf("autosave-%s.story.yaml", stamp))
		_ = writeFileSync(storyBak, []byte(text))
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped manifest backup.
func openFromLatestBackup(root string) (*Manifest, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &m, nil
}
