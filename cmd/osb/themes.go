// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegiv/osb-go/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Manage installed themes",
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed themes",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesVersionsCmd = &cobra.Command{
	Use:   "versions <theme>",
	Short: "List the versions a theme carries",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesVersions,
}

var themesBuildCmd = &cobra.Command{
	Use:   "build [theme...]",
	Short: "Build latest/ snapshots",
	Long: `Build the latest/ snapshot of the named themes. With no arguments,
every theme with pending updates is built.`,
	RunE: runThemesBuild,
}

var themesInstallCmd = &cobra.Command{
	Use:   "install <archive.zip>",
	Short: "Install a theme archive",
	Long: `Validate a theme archive and install it: a new theme is extracted
whole, an archive for an installed theme contributes only its new update
folders.`,
	Args: cobra.ExactArgs(1),
	RunE: runThemesInstall,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd)
	themesCmd.AddCommand(themesVersionsCmd)
	themesCmd.AddCommand(themesBuildCmd)
	themesCmd.AddCommand(themesInstallCmd)
}

type themeRow struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Author         string `json:"author"`
	PendingUpdates bool   `json:"pendingUpdates"`
}

func runThemesList(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	infos, err := app.themes.ListThemes(ctx)
	if err != nil {
		return err
	}

	rows := make([]themeRow, 0, len(infos))
	for _, info := range infos {
		pending, err := app.themes.HasPendingUpdates(ctx, info.ID)
		if err != nil {
			return err
		}
		rows = append(rows, themeRow{
			ID:             info.ID,
			Name:           info.Config.Name,
			Version:        info.Config.Version,
			Author:         info.Config.Author,
			PendingUpdates: pending,
		})
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rows)
	}
	if len(rows) == 0 {
		cmd.Println("No themes installed")
		return nil
	}
	for _, r := range rows {
		line := r.ID + "\t" + r.Version + "\t" + r.Name
		if r.PendingUpdates {
			line += "\t(updates pending)"
		}
		cmd.Println(line)
	}
	return nil
}

func runThemesVersions(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	versions, err := app.themes.ListVersions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), versions)
	}
	for _, v := range versions {
		cmd.Println(v)
	}
	return nil
}

func runThemesBuild(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	results := make([]theme.BuildResult, 0, len(args))
	if len(args) == 0 {
		all, err := app.builder.BuildAll(ctx)
		if err != nil {
			return err
		}
		results = append(results, all...)
	} else {
		for _, id := range args {
			res, err := app.builder.Build(ctx, id)
			if err != nil {
				return err
			}
			results = append(results, *res)
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), results)
	}
	if len(results) == 0 {
		cmd.Println("Nothing to build")
		return nil
	}
	for _, r := range results {
		if r.Built {
			cmd.Printf("%s: built %s (applied %s)\n", r.ThemeID, r.Version, strings.Join(r.Applied, ", "))
		} else {
			cmd.Printf("%s: nothing to build\n", r.ThemeID)
		}
	}
	return nil
}

func runThemesInstall(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.installer.InstallFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if !res.Installed {
		cmd.Println(res.Message)
		return nil
	}
	if res.NewTheme {
		cmd.Printf("Installed theme %s\n", res.ThemeID)
	}
	if len(res.NewUpdates) > 0 {
		cmd.Printf("Installed updates for %s: %s\n", res.ThemeID, strings.Join(res.NewUpdates, ", "))
	}
	return nil
}
