// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/olegiv/osb-go/internal/cache"
	"github.com/olegiv/osb-go/internal/versioning"
)

// ErrThemeNotFound is returned when a theme directory does not exist.
var ErrThemeNotFound = errors.New("theme not found")

// Store answers read-side queries over the themes directory: which
// versions a theme has, which directory is authoritative to read from, and
// what its config says. Version lists and source versions are cached per
// theme id; anything that mutates a theme tree must call Invalidate.
type Store struct {
	themesDir string
	cache     *cache.ThemeCache
	logger    *slog.Logger
}

// NewStore creates a theme store rooted at themesDir.
func NewStore(themesDir string, themeCache *cache.ThemeCache, logger *slog.Logger) *Store {
	return &Store{
		themesDir: themesDir,
		cache:     themeCache,
		logger:    logger,
	}
}

// ThemesDir returns the themes directory path.
func (s *Store) ThemesDir() string {
	return s.themesDir
}

// Dir returns the directory of a theme. The theme is not required to exist.
func (s *Store) Dir(themeID string) string {
	return filepath.Join(s.themesDir, themeID)
}

// Exists reports whether a theme directory is present on disk.
func (s *Store) Exists(themeID string) bool {
	info, err := os.Stat(s.Dir(themeID))
	return err == nil && info.IsDir()
}

// ListVersions returns every version a theme carries: the base version
// from the root theme.json (when parseable and valid) unioned with every
// valid-semver folder name under updates/, deduplicated and ascending.
// Malformed folder names and an unreadable base config are skipped, not
// errors; only a missing theme directory is.
func (s *Store) ListVersions(ctx context.Context, themeID string) ([]string, error) {
	if cached, ok := s.cache.Versions(ctx, themeID); ok {
		return cached, nil
	}

	dir := s.Dir(themeID)
	if !s.Exists(themeID) {
		return nil, fmt.Errorf("theme %s: %w", themeID, ErrThemeNotFound)
	}

	seen := make(map[string]struct{})

	if cfg, err := LoadConfig(filepath.Join(dir, ConfigFile)); err == nil {
		if versioning.IsValid(cfg.Version) {
			seen[cfg.Version] = struct{}{}
		}
	} else {
		s.logger.Warn("theme base config unreadable", "theme", themeID, "error", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, UpdatesDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading updates of theme %s: %w", themeID, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if versioning.IsValid(entry.Name()) {
			seen[entry.Name()] = struct{}{}
		}
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	versions = versioning.SortAscending(versions)

	s.cache.SetVersions(ctx, themeID, versions)
	return versions, nil
}

// SourceDir returns the directory authoritative to read theme content
// from: latest/ iff it holds a readable theme.json, the base directory
// otherwise. The marker-file check is what keeps a half-built latest/ from
// being trusted.
func (s *Store) SourceDir(themeID string) (string, error) {
	dir := s.Dir(themeID)
	if !s.Exists(themeID) {
		return "", fmt.Errorf("theme %s: %w", themeID, ErrThemeNotFound)
	}

	latest := filepath.Join(dir, LatestDir)
	if info, err := os.Stat(filepath.Join(latest, ConfigFile)); err == nil && info.Mode().IsRegular() {
		return latest, nil
	}
	return dir, nil
}

// SourceConfig returns the parsed theme.json of the source directory.
func (s *Store) SourceConfig(themeID string) (*Config, error) {
	dir, err := s.SourceDir(themeID)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", themeID, err)
	}
	return cfg, nil
}

// SourceVersion returns the version of the source directory's theme.json.
// This is the version projects are offered: the already-built snapshot,
// not the newest declared update folder.
func (s *Store) SourceVersion(ctx context.Context, themeID string) (string, error) {
	if cached, ok := s.cache.SourceVersion(ctx, themeID); ok {
		return cached, nil
	}

	cfg, err := s.SourceConfig(themeID)
	if err != nil {
		return "", err
	}

	s.cache.SetSourceVersion(ctx, themeID, cfg.Version)
	return cfg.Version, nil
}

// LatestVersion returns the highest version a theme carries. ok is false
// for a theme with no versions at all.
func (s *Store) LatestVersion(ctx context.Context, themeID string) (string, bool, error) {
	versions, err := s.ListVersions(ctx, themeID)
	if err != nil {
		return "", false, err
	}

	latest, ok := versioning.Latest(versions)
	return latest, ok, nil
}

// HasPendingUpdates reports whether a theme has update folders newer than
// its built source version. A theme with zero or one version never has
// pending updates.
func (s *Store) HasPendingUpdates(ctx context.Context, themeID string) (bool, error) {
	versions, err := s.ListVersions(ctx, themeID)
	if err != nil {
		return false, err
	}
	if len(versions) <= 1 {
		return false, nil
	}

	latest, _ := versioning.Latest(versions)
	source, err := s.SourceVersion(ctx, themeID)
	if err != nil {
		return false, err
	}

	return versioning.IsNewer(source, latest), nil
}

// ListThemes scans the themes directory and returns every theme with a
// readable config. Entries that are not directories are skipped; a theme
// with an unreadable theme.json is skipped with a warning.
func (s *Store) ListThemes(ctx context.Context) ([]Info, error) {
	if _, err := os.Stat(s.themesDir); os.IsNotExist(err) {
		s.logger.Warn("themes directory does not exist", "path", s.themesDir)
		return nil, nil
	}

	entries, err := os.ReadDir(s.themesDir)
	if err != nil {
		return nil, fmt.Errorf("reading themes directory: %w", err)
	}

	var themes []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		themeID := entry.Name()
		cfg, err := LoadConfig(filepath.Join(s.themesDir, themeID, ConfigFile))
		if err != nil {
			s.logger.Warn("skipping theme with unreadable config", "theme", themeID, "error", err)
			continue
		}

		themes = append(themes, Info{ID: themeID, Config: *cfg})
	}

	s.logger.Debug("themes listed", "count", len(themes))
	return themes, nil
}

// Presets returns the presets a theme ships under presets/presets.json.
// A theme without presets yields an empty list, not an error.
func (s *Store) Presets(themeID string) ([]Preset, error) {
	if !s.Exists(themeID) {
		return nil, fmt.Errorf("theme %s: %w", themeID, ErrThemeNotFound)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(themeID), PresetsDir, PresetsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading presets of theme %s: %w", themeID, err)
	}

	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parsing presets of theme %s: %w", themeID, err)
	}
	return presets, nil
}

// Invalidate drops every cached query result for a theme. Snapshot builds,
// archive installs and the filesystem watcher call this after mutating a
// theme tree.
func (s *Store) Invalidate(ctx context.Context, themeID string) {
	s.cache.Invalidate(ctx, themeID)
}
