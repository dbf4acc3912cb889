// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/osb-go/internal/cache"
	"github.com/olegiv/osb-go/internal/config"
	"github.com/olegiv/osb-go/internal/journal"
	"github.com/olegiv/osb-go/internal/locks"
	"github.com/olegiv/osb-go/internal/project"
	"github.com/olegiv/osb-go/internal/theme"
	"github.com/olegiv/osb-go/internal/update"
)

// appContext carries the wired services a command works with.
type appContext struct {
	cfg    *config.Config
	logger *slog.Logger

	cache   cache.Cacher
	journal *journal.Journal
	locks   *locks.KeyedMutex

	themes      *theme.Store
	projects    *project.Store
	builder     *theme.SnapshotBuilder
	installer   *theme.Installer
	provisioner *project.Provisioner
	updates     *update.Service
}

// newApp loads configuration and wires the services every command shares.
// Results go to stdout; logs go to stderr, with WARN and above also landing
// in the journal.
func newApp() (*appContext, error) {
	// .env files are a development convenience.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	jrnl, err := journal.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(journal.NewHandler(textHandler, jrnl))
	slog.SetDefault(logger)

	c := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)

	km := locks.NewKeyedMutex()
	themes := theme.NewStore(cfg.ThemesDir, cache.NewThemeCache(c, cfg.CacheTTLDuration()), logger)
	projects := project.NewStore(cfg.ProjectsDir, logger)

	return &appContext{
		cfg:         cfg,
		logger:      logger,
		cache:       c,
		journal:     jrnl,
		locks:       km,
		themes:      themes,
		projects:    projects,
		builder:     theme.NewSnapshotBuilder(themes, km, logger),
		installer:   theme.NewInstaller(themes, km, logger),
		provisioner: project.NewProvisioner(projects, themes, km, logger),
		updates:     update.NewService(projects, themes, jrnl, km, logger),
	}, nil
}

// Close releases the app's resources.
func (a *appContext) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("error closing cache", "error", err)
	}
	if err := a.journal.Close(); err != nil {
		a.logger.Error("error closing journal", "error", err)
	}
}
