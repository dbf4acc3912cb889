// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/olegiv/osb-go/internal/fsutil"
	"github.com/olegiv/osb-go/internal/locks"
	"github.com/olegiv/osb-go/internal/theme"
)

// ErrProjectExists is returned when creating a project whose id is taken.
var ErrProjectExists = errors.New("project already exists")

// ErrPresetNotFound is returned when the requested preset is not in the
// theme's manifest.
var ErrPresetNotFound = errors.New("preset not found")

// CreateOptions names the new project and the theme it is built from.
type CreateOptions struct {
	// ID is the project directory name. Derived from Name when empty.
	ID string
	// Name is the human-readable project name.
	Name string
	// ThemeID selects the theme the content is seeded from.
	ThemeID string
	// Preset optionally selects a starter-content preset from the theme.
	Preset string
}

// Provisioner creates project directories from themes: it copies the
// theme's source tree, turns template files into pages, seeds preset
// content and writes the initial record.
type Provisioner struct {
	projects *Store
	themes   *theme.Store
	locks    *locks.KeyedMutex
	logger   *slog.Logger
}

// NewProvisioner creates a provisioner sharing the update service's
// per-project locks.
func NewProvisioner(projects *Store, themes *theme.Store, km *locks.KeyedMutex, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		projects: projects,
		themes:   themes,
		locks:    km,
		logger:   logger,
	}
}

// CreateFromTheme builds a new project from a theme's current source
// directory. The project receives the theme content minus theme-only
// entries, every template as a slug-named page, the preset content when one
// is selected, and a theme.json copy with all setting defaults materialized.
func (pv *Provisioner) CreateFromTheme(ctx context.Context, opts CreateOptions) (*Project, error) {
	if opts.Name == "" {
		return nil, errors.New("project name is required")
	}
	id := opts.ID
	if id == "" {
		id = fsutil.Slugify(opts.Name)
	}
	if !fsutil.IsValidSlug(id) {
		return nil, fmt.Errorf("invalid project id %q", id)
	}

	unlock := pv.locks.Lock("project:" + id)
	defer unlock()

	if pv.projects.Exists(id) {
		return nil, fmt.Errorf("project %s: %w", id, ErrProjectExists)
	}

	srcDir, err := pv.themes.SourceDir(opts.ThemeID)
	if err != nil {
		return nil, err
	}
	srcCfg, err := theme.LoadConfig(filepath.Join(srcDir, theme.ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", opts.ThemeID, err)
	}

	var preset *theme.Preset
	if opts.Preset != "" {
		presets, err := pv.themes.Presets(opts.ThemeID)
		if err != nil {
			return nil, err
		}
		for i := range presets {
			if presets[i].ID == opts.Preset {
				preset = &presets[i]
				break
			}
		}
		if preset == nil {
			return nil, fmt.Errorf("theme %s preset %s: %w", opts.ThemeID, opts.Preset, ErrPresetNotFound)
		}
	}

	dest := pv.projects.Dir(id)
	created := false
	defer func() {
		if !created {
			_ = os.RemoveAll(dest)
		}
	}()

	if _, err := fsutil.CopyDir(ctx, srcDir, dest, fsutil.CopyOptions{Exclude: excludeThemeOnly}); err != nil {
		return nil, fmt.Errorf("copying theme %s content: %w", opts.ThemeID, err)
	}

	if err := writePages(ctx, srcDir, dest); err != nil {
		return nil, fmt.Errorf("creating pages from theme %s templates: %w", opts.ThemeID, err)
	}

	if preset != nil {
		presetDir := filepath.Join(pv.themes.Dir(opts.ThemeID), theme.PresetsDir, preset.ID)
		if info, err := os.Stat(presetDir); err == nil && info.IsDir() {
			if _, err := fsutil.CopyDir(ctx, presetDir, dest, fsutil.CopyOptions{}); err != nil {
				return nil, fmt.Errorf("seeding preset %s: %w", preset.ID, err)
			}
		} else {
			pv.logger.Debug("preset has no content directory", "theme", opts.ThemeID, "preset", preset.ID)
		}
	}

	projCfg := theme.MergeConfig(nil, srcCfg)
	if err := projCfg.Write(filepath.Join(dest, theme.ConfigFile)); err != nil {
		return nil, fmt.Errorf("writing project settings: %w", err)
	}

	p := &Project{
		ID:                  id,
		Name:                opts.Name,
		Theme:               opts.ThemeID,
		ThemeVersion:        srcCfg.Version,
		ReceiveThemeUpdates: true,
		CreatedAt:           time.Now().UTC(),
	}
	if err := pv.projects.Save(p); err != nil {
		return nil, err
	}
	created = true

	pv.logger.Info("project created",
		"project", id, "theme", opts.ThemeID, "version", srcCfg.Version)
	return p, nil
}

// excludeThemeOnly filters the top-level theme entries that never become
// project content: config, version history, snapshots, templates, presets
// and the screenshot.
func excludeThemeOnly(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	switch rel {
	case theme.ConfigFile, theme.UpdatesDir, theme.LatestDir, theme.TemplatesDir, theme.PresetsDir:
		return true
	}
	match, _ := doublestar.Match(theme.ScreenshotGlob, rel)
	return match
}

// writePages copies every template file into pages/ under its slug,
// preserving the extension. A theme without templates is tolerated.
func writePages(ctx context.Context, srcDir, dest string) error {
	entries, err := os.ReadDir(filepath.Join(srcDir, theme.TemplatesDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		slug := fsutil.Slugify(strings.TrimSuffix(name, ext))
		if slug == "" {
			continue
		}

		src := filepath.Join(srcDir, theme.TemplatesDir, name)
		dst := filepath.Join(dest, PagesDir, slug+ext)
		if err := fsutil.CopyFile(ctx, src, dst); err != nil {
			return fmt.Errorf("copying template %s: %w", name, err)
		}
	}
	return nil
}
