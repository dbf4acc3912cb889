// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/osb-go/internal/project"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Show a project's record",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var (
	createTheme  string
	createPreset string
	createID     string
)

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project from a theme",
	Long: `Create a project provisioned from a theme's current source version,
optionally seeded with one of the theme's presets.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsCreate,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsCreateCmd)

	projectsCreateCmd.Flags().StringVar(&createTheme, "theme", "", "Theme to provision from (required)")
	projectsCreateCmd.Flags().StringVar(&createPreset, "preset", "", "Theme preset to seed content from")
	projectsCreateCmd.Flags().StringVar(&createID, "id", "", "Project id (defaults to the slugified name)")
	_ = projectsCreateCmd.MarkFlagRequired("theme")
}

func runProjectsList(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	projects, err := app.projects.List()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), projects)
	}
	if len(projects) == 0 {
		cmd.Println("No projects")
		return nil
	}
	for _, p := range projects {
		line := p.ID + "\t" + p.Theme + " " + p.ThemeVersion
		if p.ReceiveThemeUpdates {
			line += "\t(auto updates)"
		}
		cmd.Println(line)
	}
	return nil
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.projects.Load(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), p)
	}
	printProject(cmd, p)
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	p, err := app.provisioner.CreateFromTheme(cmd.Context(), project.CreateOptions{
		ID:      createID,
		Name:    args[0],
		ThemeID: createTheme,
		Preset:  createPreset,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), p)
	}
	cmd.Printf("Created project %s from %s %s\n", p.ID, p.Theme, p.ThemeVersion)
	return nil
}

func printProject(cmd *cobra.Command, p *project.Project) {
	cmd.Printf("ID:            %s\n", p.ID)
	cmd.Printf("Name:          %s\n", p.Name)
	cmd.Printf("Theme:         %s %s\n", p.Theme, p.ThemeVersion)
	auto := "off"
	if p.ReceiveThemeUpdates {
		auto = "on"
	}
	cmd.Printf("Auto updates:  %s\n", auto)
	if !p.LastThemeUpdateAt.IsZero() {
		cmd.Printf("Last update:   %s at %s\n",
			p.LastThemeUpdateVersion, p.LastThemeUpdateAt.Format(time.RFC3339))
	}
	cmd.Printf("Created:       %s\n", p.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Updated:       %s\n", p.UpdatedAt.Format(time.RFC3339))
}
