// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler periodically rebuilds theme snapshots and pushes fresh
// versions out to projects that opted in to automatic updates.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/osb-go/internal/journal"
	"github.com/olegiv/osb-go/internal/theme"
	"github.com/olegiv/osb-go/internal/update"
)

// Scheduler runs the rebuild pass on a cron schedule.
type Scheduler struct {
	builder   *theme.SnapshotBuilder
	updates   *update.Service
	journal   *journal.Journal
	cron      *cron.Cron
	spec      string
	autoApply bool
	logger    *slog.Logger
}

// New creates a scheduler that rebuilds on the given cron spec. The spec
// accepts the standard five-field form and descriptors like "@every 5m".
func New(builder *theme.SnapshotBuilder, updates *update.Service, jrnl *journal.Journal, spec string, autoApply bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		builder:   builder,
		updates:   updates,
		journal:   jrnl,
		cron:      cron.New(),
		spec:      spec,
		autoApply: autoApply,
		logger:    logger,
	}
}

// Start registers the rebuild job and begins the schedule. It fails if the
// cron spec does not parse.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid rebuild schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "auto_apply", s.autoApply)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce executes a single rebuild pass: every theme with pending updates
// is rebuilt, then opted-in projects receive the fresh versions. Failures
// are reported per item and never abort the pass.
func (s *Scheduler) RunOnce(ctx context.Context) {
	started := time.Now()

	results, err := s.builder.BuildAll(ctx)
	if err != nil {
		s.logger.Error("snapshot rebuild pass failed", "error", err)
		s.journal.Error(journal.CategoryTheme, "snapshot rebuild failed", map[string]any{
			"error": err.Error(),
		})
	}

	var stats update.AutoApplyStats
	if s.autoApply {
		stats, err = s.updates.AutoApply(ctx)
		if err != nil {
			s.logger.Error("automatic update pass failed", "error", err)
		}
	}

	s.logger.Info("rebuild pass finished",
		"built", len(results),
		"projects_checked", stats.Checked,
		"projects_applied", stats.Applied,
		"projects_failed", stats.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
}
