// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/olegiv/osb-go/internal/version"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "osb",
	Short: "Open Site Builder",
	Long: `oSB manages versioned website themes and the projects built from them:
install theme archives, build update snapshots, provision projects and
roll theme updates out to the projects that want them.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("osb %s\n", buildInfo())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.Version = buildInfo().String()
	rootCmd.SetVersionTemplate("osb {{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}.Resolve()
}

// printJSON renders v as indented JSON on w.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
