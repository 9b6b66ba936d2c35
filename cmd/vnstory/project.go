/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KenanMathews/vn-story-editor/internal/assetcheck"
	"github.com/KenanMathews/vn-story-editor/internal/storage"
	"github.com/KenanMathews/vn-story-editor/internal/story"
	"github.com/KenanMathews/vn-story-editor/internal/validator"
)

// currentProject is whatever project a command has open; the crash handler
// uses it to autosave next to the right project.
var currentProject *storage.ProjectHandle

func writeFileReplacing(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// openProject opens the project and remembers it for crash reporting.
func openProject(dir string) (*storage.ProjectHandle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	ph, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	currentProject = ph
	return ph, nil
}

// loadProjectStory opens the project and decodes its entry story file.
func loadProjectStory(dir string) (*storage.ProjectHandle, *story.Document, error) {
	ph, err := openProject(dir)
	if err != nil {
		return nil, nil, err
	}
	text, err := storage.ReadStory(ph)
	if err != nil {
		return nil, nil, err
	}
	doc, err := story.Decode(text)
	if err != nil {
		return nil, nil, err
	}
	return ph, doc, nil
}

func newInitCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "init <dir> <name>",
		Short: "Create a new story project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			m := storage.NewManifest(args[1])
			m.Author = author
			ph, err := storage.InitProject(abs, m)
			if err != nil {
				return err
			}
			currentProject = ph
			fmt.Fprintln(cmd.OutOrStdout(), "Created project at", abs)
			return nil
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "project author recorded in the manifest")
	return cmd
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <dir>",
		Short: "Open a project, refresh its index and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, doc, err := loadProjectStory(args[0])
			if err != nil {
				return err
			}
			if err := storage.UpdateIndex(cmd.Context(), ph.Root, doc); err != nil {
				return fmt.Errorf("update index: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", ph.Manifest.Name, ph.Root)
			fmt.Fprintf(out, "entry:  %s\n", ph.Manifest.Entry)
			fmt.Fprintf(out, "scenes: %d, variables: %d, assets: %d\n",
				len(doc.Scenes), len(doc.Variables), len(doc.Assets))
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var scene, speaker string
	var types []string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <dir> [query]",
		Short: "Full-text search over the project index",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, err := openProject(args[0])
			if err != nil {
				return err
			}
			q := storage.SearchQuery{Scene: scene, Speaker: speaker, Types: types, Limit: limit}
			if len(args) == 2 {
				q.Text = args[1]
			}
			results, err := storage.Search(cmd.Context(), ph.Root, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, res := range results {
				if res.Snippet != "" {
					fmt.Fprintf(out, "%-10s %-30s %s\n", res.Type, res.Path, res.Snippet)
				} else {
					fmt.Fprintf(out, "%-10s %s\n", res.Type, res.Path)
				}
			}
			fmt.Fprintf(out, "%d result(s)\n", len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&scene, "scene", "", "restrict to one scene")
	cmd.Flags().StringVar(&speaker, "speaker", "", "restrict to one speaker")
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to entry types (narration, dialogue, choice, jump)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	return cmd
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <dir>",
		Short: "Check declared assets against files on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, doc, err := loadProjectStory(args[0])
			if err != nil {
				return err
			}
			r := validator.NewReporter()
			assetcheck.ProbeAssets(ph.Root, doc, r)
			out := cmd.OutOrStdout()
			warnings := r.Warnings()
			for _, d := range warnings {
				fmt.Fprintln(out, validator.FormatDiagnostic(d))
			}
			if len(warnings) > 0 {
				exitCode = 1
			}
			fmt.Fprintf(out, "%d asset problem(s)\n", len(warnings))
			return nil
		},
	}
}
