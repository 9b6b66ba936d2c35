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
	"strings"

	"github.com/spf13/cobra"

	"github.com/KenanMathews/vn-story-editor/internal/backend"
	"github.com/KenanMathews/vn-story-editor/internal/compiler"
	"github.com/KenanMathews/vn-story-editor/internal/config"
	"github.com/KenanMathews/vn-story-editor/internal/storage"
)

func newCompileCmd() *cobra.Command {
	var out string
	var minify, withAssets bool
	cmd := &cobra.Command{
		Use:   "compile <dir>",
		Short: "Compile the story into a playable bundle via the compiler service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, doc, err := loadProjectStory(args[0])
			if err != nil {
				return err
			}
			text, err := storage.ReadStory(ph)
			if err != nil {
				return err
			}
			cfg, token, err := config.Load()
			if err != nil {
				return err
			}
			cli := compiler.New(cfg.Compiler, token)
			ctx := cmd.Context()

			session, err := cli.CreateSession(ctx, compiler.SessionOptions{Title: ph.Manifest.Name, Minify: minify})
			if err != nil {
				return err
			}
			defer func() { _ = cli.DeleteSession(ctx, session) }()

			if err := cli.UploadScript(ctx, session, text); err != nil {
				return err
			}
			if withAssets {
				if err := uploadLocalAssets(cmd, cli, session, ph.Root, doc.Assets); err != nil {
					return err
				}
			}
			res, err := cli.Compile(ctx, session, compiler.CompileOptions{Minify: minify})
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("compile rejected: %s", res.Error)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer func() { _ = f.Close() }()
			n, err := cli.Download(ctx, session, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "story.html", "output bundle path")
	cmd.Flags().BoolVar(&minify, "minify", false, "ask the service for a minified bundle")
	cmd.Flags().BoolVar(&withAssets, "assets", true, "upload local asset files into the session")
	return cmd
}

// uploadLocalAssets sends every asset with a project-relative URL. Missing
// files are reported but do not abort the build; the probe command exists
// for strict checking.
func uploadLocalAssets(cmd *cobra.Command, cli *compiler.Client, session, root string, assets []map[string]any) error {
	for _, a := range assets {
		url, _ := a["url"].(string)
		url = strings.TrimSpace(url)
		if url == "" || strings.Contains(url, "://") {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "./")))
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping asset %s: %v\n", url, err)
			continue
		}
		err = cli.UploadAsset(cmd.Context(), session, filepath.Base(path), f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the validation HTTP service (requires Postgres)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return backend.Start()
		},
	}
}
