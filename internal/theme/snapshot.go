// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/osb-go/internal/fsutil"
	"github.com/olegiv/osb-go/internal/locks"
)

// tempPrefix names the sibling directory a snapshot is assembled in before
// being renamed into place as latest/.
const tempPrefix = "latest.tmp-"

// SnapshotBuilder materializes a theme's latest/ directory from the base
// layer plus every update delta in ascending version order. Builds are
// validate-all-then-commit: every update folder is checked before a single
// file is copied, the new tree is assembled in a temp directory, and the
// swap into latest/ is a rename. Concurrent builds of the same theme are
// serialized on a per-theme lock.
type SnapshotBuilder struct {
	store  *Store
	locks  *locks.KeyedMutex
	logger *slog.Logger
}

// NewSnapshotBuilder creates a builder over the given store.
func NewSnapshotBuilder(store *Store, keyed *locks.KeyedMutex, logger *slog.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		store:  store,
		locks:  keyed,
		logger: logger,
	}
}

// BuildResult describes one snapshot build.
type BuildResult struct {
	ThemeID string   `json:"themeId"`
	Built   bool     `json:"built"`
	Version string   `json:"version,omitempty"`
	Applied []string `json:"applied,omitempty"`
}

// Build rebuilds the latest/ snapshot of a theme. A theme with at most one
// version has nothing to layer and yields Built=false without touching
// disk. Rebuilding an already-current snapshot yields an identical tree.
func (b *SnapshotBuilder) Build(ctx context.Context, themeID string) (*BuildResult, error) {
	unlock := b.locks.Lock("theme:" + themeID)
	defer unlock()

	// Always plan from fresh disk state, not from cached queries.
	b.store.Invalidate(ctx, themeID)

	versions, err := b.store.ListVersions(ctx, themeID)
	if err != nil {
		return nil, err
	}
	if len(versions) <= 1 {
		b.logger.Debug("snapshot build skipped, nothing to layer",
			"theme", themeID, "versions", len(versions))
		return &BuildResult{ThemeID: themeID, Built: false}, nil
	}

	dir := b.store.Dir(themeID)
	baseCfg, err := LoadConfig(filepath.Join(dir, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", themeID, err)
	}

	if err := validateUpdates(dir, versions, baseCfg.Version); err != nil {
		return nil, fmt.Errorf("theme %s: %w", themeID, err)
	}

	b.removeStaleTemp(dir)

	tmp := filepath.Join(dir, tempPrefix+uuid.NewString()[:8])
	defer os.RemoveAll(tmp) // no-op once renamed into place

	if _, err := fsutil.CopyDir(ctx, dir, tmp, fsutil.CopyOptions{Exclude: excludeDerived}); err != nil {
		return nil, fmt.Errorf("copying base layer of theme %s: %w", themeID, err)
	}

	applied := make([]string, 0, len(versions)-1)
	for _, v := range versions {
		if v == baseCfg.Version {
			continue
		}

		updateDir := filepath.Join(dir, UpdatesDir, v)
		if _, err := fsutil.CopyDir(ctx, updateDir, tmp, fsutil.CopyOptions{Exclude: excludeDeleted}); err != nil {
			return nil, fmt.Errorf("applying update %s of theme %s: %w", v, themeID, err)
		}

		deletions, err := ResolveDeletions(filepath.Join(updateDir, DeletedDir))
		if err != nil {
			return nil, fmt.Errorf("theme %s update %s: %w", themeID, v, err)
		}
		if err := applyDeletions(tmp, deletions); err != nil {
			return nil, fmt.Errorf("theme %s update %s: %w", themeID, v, err)
		}

		applied = append(applied, v)
	}

	builtCfg, err := LoadConfig(filepath.Join(tmp, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("built snapshot of theme %s: %w", themeID, err)
	}

	latest := filepath.Join(dir, LatestDir)
	if err := os.RemoveAll(latest); err != nil {
		return nil, fmt.Errorf("removing previous snapshot of theme %s: %w", themeID, err)
	}
	if err := os.Rename(tmp, latest); err != nil {
		return nil, fmt.Errorf("activating snapshot of theme %s: %w", themeID, err)
	}

	b.store.Invalidate(ctx, themeID)
	b.logger.Info("theme snapshot built",
		"theme", themeID, "version", builtCfg.Version, "updates", len(applied))

	return &BuildResult{
		ThemeID: themeID,
		Built:   true,
		Version: builtCfg.Version,
		Applied: applied,
	}, nil
}

// BuildAll rebuilds every theme whose snapshot lags behind its declared
// updates. Per-theme failures do not stop the sweep; they are joined into
// the returned error alongside the successful results.
func (b *SnapshotBuilder) BuildAll(ctx context.Context) ([]BuildResult, error) {
	themes, err := b.store.ListThemes(ctx)
	if err != nil {
		return nil, err
	}

	var results []BuildResult
	var errs []error
	for _, t := range themes {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		pending, err := b.store.HasPendingUpdates(ctx, t.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !pending {
			continue
		}

		res, err := b.Build(ctx, t.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}

	return results, errors.Join(errs...)
}

// validateUpdates checks that every non-base version folder carries a
// parseable theme.json whose version equals the folder name. All
// violations are collected before any is reported, so one pass names every
// offending folder.
func validateUpdates(themeDir string, versions []string, baseVersion string) error {
	var violations []error
	for _, v := range versions {
		if v == baseVersion {
			continue
		}

		cfg, err := LoadConfig(filepath.Join(themeDir, UpdatesDir, v, ConfigFile))
		if err != nil {
			violations = append(violations, fmt.Errorf("updates/%s: %w", v, err))
			continue
		}
		if cfg.Version != v {
			violations = append(violations,
				fmt.Errorf("updates/%s: theme.json declares version %q", v, cfg.Version))
		}
	}

	if len(violations) > 0 {
		return fmt.Errorf("update validation failed:\n%w", errors.Join(violations...))
	}
	return nil
}

// removeStaleTemp clears latest.tmp-* leftovers from crashed builds.
func (b *SnapshotBuilder) removeStaleTemp(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, tempPrefix+"*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.RemoveAll(m); err != nil {
			b.logger.Warn("could not remove stale snapshot temp dir", "path", m, "error", err)
		} else {
			b.logger.Debug("removed stale snapshot temp dir", "path", m)
		}
	}
}

// excludeDerived filters the top-level entries never copied into a
// snapshot: the update history, the previous snapshot and temp dirs left
// by interrupted builds.
func excludeDerived(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	return rel == UpdatesDir || rel == LatestDir || strings.HasPrefix(rel, tempPrefix)
}

// excludeDeleted filters an update's top-level deleted/ marker tree out of
// the overlay copy.
func excludeDeleted(rel string) bool {
	return rel == DeletedDir
}
