// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command osb is the Open Site Builder CLI. It manages versioned themes,
// provisions projects from them and rolls theme updates out to projects,
// either on demand or continuously via the run mode.
package main

import "os"

// Build-time version information injected via ldflags:
//
//	go build -ldflags "\
//	  -X main.appVersion=$(git describe --tags --always) \
//	  -X main.appGitCommit=$(git rev-parse --short HEAD) \
//	  -X main.appBuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/osb
var (
	appVersion   string
	appGitCommit string
	appBuildTime string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
