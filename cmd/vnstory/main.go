/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// vnstory is the command line front end: validate and format story files,
// manage story projects, search the project index, export scripts and talk
// to the VN compiler service.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KenanMathews/vn-story-editor/internal/crash"
	applog "github.com/KenanMathews/vn-story-editor/internal/log"
	"github.com/KenanMathews/vn-story-editor/internal/version"
)

func main() {
	applog.Init(applog.FromEnv())
	defer func() { crash.Recover(currentProject) }()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// exitCode lets subcommands report failure (invalid story, failed probe)
// without aborting cobra's flow.
var exitCode int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vnstory",
		Short:         "Visual novel story toolkit",
		Long:          "vnstory validates, formats, indexes and exports YAML visual novel stories.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newFmtCmd(),
		newStatsCmd(),
		newInitCmd(),
		newOpenCmd(),
		newSearchCmd(),
		newProbeCmd(),
		newExportCmd(),
		newCompileCmd(),
		newServeCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "vnstory", version.String())
		},
	}
}

// readInput returns the story text from path, or from stdin when path is
// "-" or empty.
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
