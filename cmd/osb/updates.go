// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Check and apply theme updates",
}

var updatesCheckCmd = &cobra.Command{
	Use:   "check <project>",
	Short: "Check whether a newer theme version is available",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdatesCheck,
}

var updatesApplyCmd = &cobra.Command{
	Use:   "apply <project>",
	Short: "Apply the pending theme update to a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdatesApply,
}

var updatesToggleCmd = &cobra.Command{
	Use:   "toggle <project> <on|off>",
	Short: "Switch automatic theme updates for a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpdatesToggle,
}

func init() {
	rootCmd.AddCommand(updatesCmd)
	updatesCmd.AddCommand(updatesCheckCmd)
	updatesCmd.AddCommand(updatesApplyCmd)
	updatesCmd.AddCommand(updatesToggleCmd)
}

func runUpdatesCheck(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.updates.CheckForUpdates(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	switch {
	case res.HasUpdate:
		cmd.Printf("Update available: %s -> %s\n", res.CurrentVersion, res.LatestVersion)
	case res.LatestVersion == "unknown":
		cmd.Printf("No update information: the project's theme is missing\n")
	default:
		cmd.Printf("Project is up to date (%s)\n", res.CurrentVersion)
	}
	return nil
}

func runUpdatesApply(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.updates.Apply(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	if !res.Success {
		cmd.Println(res.Message)
		return nil
	}
	cmd.Printf("Updated %s: %s -> %s\n", args[0], res.PreviousVersion, res.NewVersion)
	return nil
}

func runUpdatesToggle(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch args[1] {
	case "on", "true", "1", "yes":
		enabled = true
	case "off", "false", "0", "no":
		enabled = false
	default:
		return fmt.Errorf("invalid toggle value %q: use on or off", args[1])
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.updates.Toggle(args[0], enabled)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}
	state := "disabled"
	if res.ReceiveThemeUpdates {
		state = "enabled"
	}
	cmd.Printf("Automatic theme updates %s for %s\n", state, args[0])
	return nil
}
