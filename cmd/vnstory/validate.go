/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KenanMathews/vn-story-editor/internal/validator"
)

func newValidateCmd() *cobra.Command {
	var asJSON bool
	var syntaxOnly bool
	var showTips bool
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a story file (stdin when no file or \"-\")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			var rep validator.Report
			if syntaxOnly {
				rep = validator.ValidateSyntax(content)
			} else {
				rep = validator.Validate(content)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
			} else {
				fmt.Fprint(out, validator.FormatReport(rep))
				if showTips {
					for _, tip := range validator.ValidationTips(rep) {
						fmt.Fprintf(out, "tip [%s]: %s\n", tip.Category, tip.Tip)
					}
				}
			}
			if !rep.Valid {
				exitCode = 1
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full report as JSON")
	cmd.Flags().BoolVar(&syntaxOnly, "syntax-only", false, "check YAML well-formedness only")
	cmd.Flags().BoolVar(&showTips, "tips", false, "append improvement tips to text output")
	return cmd
}

func newFmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Canonically reformat a story file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			formatted := validator.FormatContent(content)
			if write {
				if path == "" || path == "-" {
					return fmt.Errorf("--write requires a file argument")
				}
				return writeFileReplacing(path, formatted)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print story statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			content, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			stats := validator.Stats(content)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			fmt.Fprintf(out, "lines:       %d (%d code, %d comments)\n", stats.TotalLines, stats.CodeLines, stats.CommentLines)
			fmt.Fprintf(out, "scenes:      %d\n", stats.Scenes)
			fmt.Fprintf(out, "instructions: %d\n", stats.Instructions)
			fmt.Fprintf(out, "choices:     %d\n", stats.Choices)
			fmt.Fprintf(out, "expressions: %d\n", stats.HandlebarsExpressions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit statistics as JSON")
	return cmd
}
