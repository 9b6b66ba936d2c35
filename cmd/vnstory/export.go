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

	"github.com/spf13/cobra"

	"github.com/KenanMathews/vn-story-editor/internal/export"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the story to other formats",
	}
	cmd.AddCommand(newExportPDFCmd())
	return cmd
}

func newExportPDFCmd() *cobra.Command {
	var out string
	var titlePage, jumps bool
	var scenes []string
	cmd := &cobra.Command{
		Use:   "pdf <dir>",
		Short: "Render the story as a script-formatted PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ph, doc, err := loadProjectStory(args[0])
			if err != nil {
				return err
			}
			opt := export.PDFOptions{TitlePage: titlePage, IncludeJumps: jumps, Scenes: scenes}
			if err := export.ExportScriptPDF(doc, ph.Root, out, opt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "script.pdf", "output file (relative paths land in exports/)")
	cmd.Flags().BoolVar(&titlePage, "title-page", true, "include a title page")
	cmd.Flags().BoolVar(&jumps, "jumps", false, "render scene transitions")
	cmd.Flags().StringSliceVar(&scenes, "scene", nil, "export only these scenes, in order")
	return cmd
}
