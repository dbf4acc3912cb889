// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package update brings projects up to the version their theme's source
// directory currently serves. Checking compares recorded versions, applying
// synchronizes the project's content tree and re-merges its settings, and
// projects opt in to the automatic pass with a per-project flag.
package update

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/olegiv/osb-go/internal/fsutil"
	"github.com/olegiv/osb-go/internal/journal"
	"github.com/olegiv/osb-go/internal/locks"
	"github.com/olegiv/osb-go/internal/project"
	"github.com/olegiv/osb-go/internal/theme"
	"github.com/olegiv/osb-go/internal/versioning"
)

// unknownVersion is reported as the latest version when a project's theme
// no longer exists on disk.
const unknownVersion = "unknown"

// CheckResult reports whether a newer theme version is available for a
// project.
type CheckResult struct {
	HasUpdate      bool   `json:"hasUpdate"`
	CurrentVersion string `json:"currentVersion"`
	LatestVersion  string `json:"latestVersion"`
}

// ApplyResult reports the outcome of applying a theme update to a project.
// Success is false when the project was already current; that is a normal
// outcome, not an error.
type ApplyResult struct {
	Success         bool   `json:"success"`
	PreviousVersion string `json:"previousVersion"`
	NewVersion      string `json:"newVersion,omitempty"`
	Message         string `json:"message,omitempty"`
}

// ToggleResult reports the automatic-updates flag after a toggle.
type ToggleResult struct {
	Success             bool `json:"success"`
	ReceiveThemeUpdates bool `json:"receiveThemeUpdates"`
}

// AutoApplyStats summarizes one automatic update pass over all projects.
type AutoApplyStats struct {
	Checked int
	Applied int
	Failed  int
}

// Service checks for and applies theme updates to projects.
type Service struct {
	projects *project.Store
	themes   *theme.Store
	journal  *journal.Journal
	locks    *locks.KeyedMutex
	logger   *slog.Logger
}

// NewService creates an update service over the given stores.
func NewService(projects *project.Store, themes *theme.Store, jrnl *journal.Journal, keyed *locks.KeyedMutex, logger *slog.Logger) *Service {
	return &Service{
		projects: projects,
		themes:   themes,
		journal:  jrnl,
		locks:    keyed,
		logger:   logger,
	}
}

// CheckForUpdates compares a project's recorded theme version against the
// version the theme's source directory currently serves. A project whose
// theme is gone from disk reports no update and an unknown latest version
// instead of failing, so one broken project does not poison bulk checks.
func (s *Service) CheckForUpdates(ctx context.Context, projectID string) (*CheckResult, error) {
	p, err := s.projects.Load(projectID)
	if err != nil {
		return nil, err
	}

	if !s.themes.Exists(p.Theme) {
		s.logger.Warn("project references a missing theme",
			"category", journal.CategoryUpdate, "project", p.ID, "theme", p.Theme)
		return &CheckResult{CurrentVersion: p.ThemeVersion, LatestVersion: unknownVersion}, nil
	}

	latest, err := s.themes.SourceVersion(ctx, p.Theme)
	if err != nil {
		return nil, fmt.Errorf("resolving source version of theme %s: %w", p.Theme, err)
	}

	return &CheckResult{
		HasUpdate:      outdated(p.ThemeVersion, latest),
		CurrentVersion: p.ThemeVersion,
		LatestVersion:  latest,
	}, nil
}

// Apply brings a project up to the version its theme's source directory
// currently serves.
//
// Content is synchronized in the shape provisioning established: layout
// files, assets/ and widgets/ are overwritten, menus/ entries are added but
// never overwritten, and templates land as new pages unless a page with the
// same slug already exists under any extension. The project's theme.json is
// re-merged against the source config so customized setting values survive
// while new settings pick up their defaults, and the project record adopts
// the source version.
func (s *Service) Apply(ctx context.Context, projectID string) (*ApplyResult, error) {
	unlock := s.locks.Lock("project:" + projectID)
	defer unlock()

	p, err := s.projects.Load(projectID)
	if err != nil {
		return nil, err
	}

	srcDir, err := s.themes.SourceDir(p.Theme)
	if err != nil {
		return nil, err
	}
	srcCfg, err := theme.LoadConfig(filepath.Join(srcDir, theme.ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", p.Theme, err)
	}

	if !outdated(p.ThemeVersion, srcCfg.Version) {
		return &ApplyResult{PreviousVersion: p.ThemeVersion, Message: "No update available"}, nil
	}

	projDir := s.projects.Dir(p.ID)
	if err := s.syncContent(ctx, srcDir, projDir); err != nil {
		return nil, fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	if err := s.mergeSettings(projDir, srcCfg); err != nil {
		return nil, fmt.Errorf("updating project %s: %w", p.ID, err)
	}

	prev := p.ThemeVersion
	p.ThemeVersion = srcCfg.Version
	p.LastThemeUpdateAt = time.Now().UTC()
	p.LastThemeUpdateVersion = srcCfg.Version
	if err := s.projects.Save(p); err != nil {
		return nil, fmt.Errorf("updating project %s: %w", p.ID, err)
	}

	s.journal.Info(journal.CategoryUpdate, "theme update applied", map[string]any{
		"project": p.ID,
		"theme":   p.Theme,
		"from":    prev,
		"to":      srcCfg.Version,
	})
	s.logger.Info("theme update applied",
		"project", p.ID, "theme", p.Theme, "from", prev, "to", srcCfg.Version)

	return &ApplyResult{Success: true, PreviousVersion: prev, NewVersion: srcCfg.Version}, nil
}

// Toggle switches automatic theme updates for a project on or off. It only
// writes the flag; no content is touched.
func (s *Service) Toggle(projectID string, enabled bool) (*ToggleResult, error) {
	unlock := s.locks.Lock("project:" + projectID)
	defer unlock()

	p, err := s.projects.Load(projectID)
	if err != nil {
		return nil, err
	}

	p.ReceiveThemeUpdates = enabled
	if err := s.projects.Save(p); err != nil {
		return nil, fmt.Errorf("saving project %s: %w", p.ID, err)
	}

	s.logger.Info("automatic theme updates toggled", "project", p.ID, "enabled", enabled)
	return &ToggleResult{Success: true, ReceiveThemeUpdates: enabled}, nil
}

// AutoApply applies pending updates to every project that has opted in to
// automatic updates. A failing project is counted and logged but does not
// stop the pass.
func (s *Service) AutoApply(ctx context.Context) (AutoApplyStats, error) {
	all, err := s.projects.List()
	if err != nil {
		return AutoApplyStats{}, err
	}

	var stats AutoApplyStats
	for _, p := range all {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !p.ReceiveThemeUpdates {
			continue
		}
		stats.Checked++

		res, err := s.Apply(ctx, p.ID)
		if err != nil {
			stats.Failed++
			s.logger.Warn("automatic theme update failed",
				"category", journal.CategoryUpdate, "project", p.ID, "error", err)
			continue
		}
		if res.Success {
			stats.Applied++
		}
	}
	return stats, nil
}

// syncContent copies the source directory's content into the project,
// category by category. A source that lacks an optional category is left
// alone rather than treated as an error.
func (s *Service) syncContent(ctx context.Context, srcDir, projDir string) error {
	if err := copyLayoutFiles(ctx, srcDir, projDir); err != nil {
		return err
	}

	for _, dir := range []string{theme.AssetsDir, theme.WidgetsDir} {
		if err := syncDir(ctx, srcDir, projDir, dir, fsutil.CopyOptions{}); err != nil {
			return err
		}
	}

	// Menu edits belong to the project, so new menu files are added and
	// existing ones are left alone.
	if err := syncDir(ctx, srcDir, projDir, theme.MenusDir, fsutil.CopyOptions{SkipExisting: true}); err != nil {
		return err
	}

	return s.propagatePages(ctx, srcDir, projDir)
}

func syncDir(ctx context.Context, srcDir, projDir, dir string, opts fsutil.CopyOptions) error {
	src := filepath.Join(srcDir, dir)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("reading %s/: %w", dir, err)
	}

	if _, err := fsutil.CopyDir(ctx, src, filepath.Join(projDir, dir), opts); err != nil {
		return fmt.Errorf("syncing %s/: %w", dir, err)
	}
	return nil
}

func copyLayoutFiles(ctx context.Context, srcDir, projDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("reading theme source: %w", err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := doublestar.Match(theme.LayoutGlob, e.Name()); !ok {
			continue
		}
		if err := fsutil.CopyFile(ctx, filepath.Join(srcDir, e.Name()), filepath.Join(projDir, e.Name())); err != nil {
			return fmt.Errorf("copying %s: %w", e.Name(), err)
		}
	}
	return nil
}

// propagatePages copies templates the project has no page for yet. Pages
// are named by slug, the same shape provisioning writes, and the existence
// check ignores extensions so a page converted to another format still
// blocks its template.
func (s *Service) propagatePages(ctx context.Context, srcDir, projDir string) error {
	tmplDir := filepath.Join(srcDir, theme.TemplatesDir)
	entries, err := os.ReadDir(tmplDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s/: %w", theme.TemplatesDir, err)
	}

	pagesDir := filepath.Join(projDir, project.PagesDir)
	existing, err := pageSlugs(pagesDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		slug := fsutil.Slugify(strings.TrimSuffix(name, ext))
		if slug == "" || existing[slug] {
			continue
		}

		if err := fsutil.CopyFile(ctx, filepath.Join(tmplDir, name), filepath.Join(pagesDir, slug+ext)); err != nil {
			return fmt.Errorf("copying template %s: %w", name, err)
		}
		existing[slug] = true
		s.logger.Debug("page added from new template", "template", name, "page", slug+ext)
	}
	return nil
}

func pageSlugs(pagesDir string) (map[string]bool, error) {
	slugs := make(map[string]bool)
	entries, err := os.ReadDir(pagesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return slugs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/: %w", project.PagesDir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slug := fsutil.Slugify(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))); slug != "" {
			slugs[slug] = true
		}
	}
	return slugs, nil
}

// mergeSettings re-merges the project's theme config against the source
// config, keeping customized values and adopting the source version.
func (s *Service) mergeSettings(projDir string, srcCfg *theme.Config) error {
	path := filepath.Join(projDir, theme.ConfigFile)
	current, err := theme.LoadConfig(path)
	if err != nil {
		// With the project's own config unreadable there are no
		// customizations left to preserve, so the source config is
		// adopted whole.
		s.logger.Warn("project theme config unreadable, adopting source config",
			"category", journal.CategoryUpdate, "path", path, "error", err)
		current = nil
	}

	if err := theme.MergeConfig(current, srcCfg).Write(path); err != nil {
		return fmt.Errorf("writing merged config: %w", err)
	}
	return nil
}

// outdated reports whether latest should replace current. An unparseable
// recorded version counts as outdated whenever the source version is valid,
// so a damaged project record cannot pin the project forever.
func outdated(current, latest string) bool {
	if !versioning.IsValid(latest) {
		return false
	}
	if !versioning.IsValid(current) {
		return true
	}
	return versioning.IsNewer(current, latest)
}
