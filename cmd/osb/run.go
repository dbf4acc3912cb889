// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olegiv/osb-go/internal/scheduler"
	"github.com/olegiv/osb-go/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rebuild scheduler and theme watcher",
	Long: `Run oSB in the background: theme snapshots are rebuilt on the
configured schedule, opted-in projects receive fresh versions after each
pass, and theme edits on disk invalidate cached state immediately.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	// The watch set and the stores assume the content roots exist.
	if err := os.MkdirAll(app.cfg.ThemesDir, 0755); err != nil {
		return fmt.Errorf("creating themes directory: %w", err)
	}
	if err := os.MkdirAll(app.cfg.ProjectsDir, 0755); err != nil {
		return fmt.Errorf("creating projects directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(app.builder, app.updates, app.journal,
		app.cfg.RebuildSchedule, app.cfg.AutoApply, app.logger)
	w := watcher.New(app.themes, app.journal, watcher.Config{
		Interval: app.cfg.WatchDebounceDuration(),
		MaxWait:  10 * app.cfg.WatchDebounceDuration(),
	}, app.logger)

	if err := sched.Start(); err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		sched.Stop()
		return err
	}

	// One pass up front so a fresh start does not wait a full interval.
	sched.RunOnce(ctx)

	app.logger.Info("osb running",
		"themes_dir", app.cfg.ThemesDir,
		"projects_dir", app.cfg.ProjectsDir,
		"schedule", app.cfg.RebuildSchedule,
	)
	<-ctx.Done()
	app.logger.Info("shutting down")

	w.Stop()
	sched.Stop()
	return nil
}
