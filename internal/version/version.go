/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version exposes build metadata. The variables are overridden at
// build time via -ldflags, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=v0.3.0 -X .../internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "v0.0.0-dev"
	// Commit is the short VCS revision the build was made from.
	Commit = "unknown"
	// Date is the build date in RFC 3339 form.
	Date = "unknown"
)

// String returns the human-readable version line used in logs, the CLI
// version command and crash reports.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
