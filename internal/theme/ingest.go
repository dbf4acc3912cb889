// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"archive/zip"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xeipuuv/gojsonschema"

	"github.com/olegiv/osb-go/internal/fsutil"
	"github.com/olegiv/osb-go/internal/locks"
	"github.com/olegiv/osb-go/internal/versioning"
)

//go:embed theme_schema.json
var themeSchemaJSON []byte

// ErrBaseVersionConflict is returned when an uploaded archive carries a
// different base version than the theme already installed under the same ID.
// Version history moves through update folders, never by replacing the base.
var ErrBaseVersionConflict = errors.New("theme base version conflict")

// ArchiveInfo describes a validated theme archive.
type ArchiveInfo struct {
	// ThemeID is the single root folder name inside the archive.
	ThemeID string
	// Config is the parsed base theme.json.
	Config *Config
	// Updates lists the update versions embedded in the archive, ascending.
	Updates []string
	// Exists reports whether a theme with this ID is already installed.
	Exists bool
}

// ArchiveValidator checks uploaded theme archives before anything touches
// the themes directory. All structural problems are collected and reported
// in one pass so an author does not fix them one upload at a time.
type ArchiveValidator struct {
	store  *Store
	logger *slog.Logger
}

// NewArchiveValidator creates a validator backed by the given store.
func NewArchiveValidator(store *Store, logger *slog.Logger) *ArchiveValidator {
	return &ArchiveValidator{store: store, logger: logger}
}

// ValidateFile opens a zip archive on disk and validates it.
func (v *ArchiveValidator) ValidateFile(path string) (*ArchiveInfo, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			v.logger.Error("failed to close archive", "path", path, "error", err)
		}
	}()

	return v.Validate(&zr.Reader)
}

// Validate checks the archive structure, the base theme.json against the
// embedded schema, and every update folder it carries. For a theme that is
// already installed it additionally requires the archive base version to
// match the installed base version, returning ErrBaseVersionConflict
// otherwise.
func (v *ArchiveValidator) Validate(zr *zip.Reader) (*ArchiveInfo, error) {
	var violations []error

	root, entryViolations := archiveRoot(zr)
	violations = append(violations, entryViolations...)
	if root == "" {
		violations = append(violations, errors.New("archive has no root folder"))
		return nil, validationError(violations)
	}

	files := make(map[string]*zip.File)
	dirCounts := map[string]int{AssetsDir: 0, TemplatesDir: 0, WidgetsDir: 0}
	var hasLayout, hasScreenshot bool
	for _, f := range zr.File {
		rel, ok := entryRel(f.Name, root)
		if !ok || f.FileInfo().IsDir() {
			continue
		}
		files[rel] = f
		if match, _ := doublestar.Match(LayoutGlob, rel); match {
			hasLayout = true
		}
		if match, _ := doublestar.Match(ScreenshotGlob, rel); match {
			hasScreenshot = true
		}
		if first, rest, found := strings.Cut(rel, "/"); found && rest != "" {
			if _, tracked := dirCounts[first]; tracked {
				dirCounts[first]++
			}
		}
	}

	if files[ConfigFile] == nil {
		violations = append(violations, fmt.Errorf("%s is missing", ConfigFile))
	}
	if !hasLayout {
		violations = append(violations, fmt.Errorf("no %s file at the theme root", LayoutGlob))
	}
	if !hasScreenshot {
		violations = append(violations, fmt.Errorf("no %s file at the theme root", ScreenshotGlob))
	}
	for _, dir := range []string{AssetsDir, TemplatesDir, WidgetsDir} {
		if dirCounts[dir] == 0 {
			violations = append(violations, fmt.Errorf("%s/ is missing or empty", dir))
		}
	}

	var cfg *Config
	if f := files[ConfigFile]; f != nil {
		parsed, errs := parseArchiveConfig(f)
		violations = append(violations, errs...)
		cfg = parsed
	}

	updates, updateViolations := archiveUpdates(zr, root, files)
	violations = append(violations, updateViolations...)

	if len(violations) > 0 {
		return nil, validationError(violations)
	}

	exists := v.store.Exists(root)
	if exists {
		installed, err := LoadConfig(filepath.Join(v.store.Dir(root), ConfigFile))
		if err != nil {
			return nil, fmt.Errorf("reading installed config for theme %s: %w", root, err)
		}
		if installed.Version != cfg.Version {
			return nil, fmt.Errorf("theme %s: archive base is %s but installed base is %s: %w",
				root, cfg.Version, installed.Version, ErrBaseVersionConflict)
		}
	}

	return &ArchiveInfo{
		ThemeID: root,
		Config:  cfg,
		Updates: versioning.SortAscending(updates),
		Exists:  exists,
	}, nil
}

// archiveRoot finds the single top-level folder that every entry must live
// under. Unsafe entry names are reported and excluded from root detection.
func archiveRoot(zr *zip.Reader) (string, []error) {
	var violations []error
	roots := make(map[string]bool)
	for _, f := range zr.File {
		name := f.Name
		if name == "" {
			continue
		}
		if unsafeEntryName(name) {
			violations = append(violations, fmt.Errorf("unsafe entry name %q", name))
			continue
		}
		seg, _, found := strings.Cut(name, "/")
		if !found {
			violations = append(violations, fmt.Errorf("entry %q is outside the theme folder", name))
			continue
		}
		roots[seg] = true
	}

	if len(roots) > 1 {
		names := make([]string, 0, len(roots))
		for name := range roots {
			names = append(names, name)
		}
		sort.Strings(names)
		violations = append(violations, fmt.Errorf("archive contains multiple root folders: %s", strings.Join(names, ", ")))
		return "", violations
	}
	for name := range roots {
		return name, violations
	}
	return "", violations
}

// unsafeEntryName reports whether an archive entry name could address
// anything outside the extraction root: absolute paths, backslashes, and
// any ".." element, even one a Clean would collapse away.
func unsafeEntryName(name string) bool {
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return true
	}
	if fsutil.ContainsPathTraversal(name) {
		return true
	}
	return slices.Contains(strings.Split(name, "/"), "..")
}

// entryRel strips the root folder from an entry name. Entries already
// reported as unsafe never match the root prefix and are dropped here.
func entryRel(name, root string) (string, bool) {
	rel := strings.TrimPrefix(name, root+"/")
	if rel == name || rel == "" {
		return "", false
	}
	return rel, true
}

// parseArchiveConfig validates theme.json against the embedded schema and
// parses it. Schema errors are reported individually.
func parseArchiveConfig(f *zip.File) (*Config, []error) {
	data, err := readZipFile(f)
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", ConfigFile, err)}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(themeSchemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, []error{fmt.Errorf("%s: %w", ConfigFile, err)}
	}
	if !result.Valid() {
		var violations []error
		for _, desc := range result.Errors() {
			violations = append(violations, fmt.Errorf("%s: %s", ConfigFile, desc))
		}
		return nil, violations
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, []error{fmt.Errorf("%s: %w", ConfigFile, err)}
	}
	return cfg, nil
}

// archiveUpdates checks every updates/<version>/ folder in the archive:
// the folder name must be a valid version and must match the version
// declared by the theme.json inside it.
func archiveUpdates(zr *zip.Reader, root string, files map[string]*zip.File) ([]string, []error) {
	var violations []error
	seen := make(map[string]bool)
	for _, f := range zr.File {
		rel, ok := entryRel(f.Name, root)
		if !ok || !strings.HasPrefix(rel, UpdatesDir+"/") {
			continue
		}
		version, _, found := strings.Cut(rel[len(UpdatesDir)+1:], "/")
		if found && version != "" {
			seen[version] = true
		}
	}

	versions := make([]string, 0, len(seen))
	for version := range seen {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	for _, version := range versions {
		if !versioning.IsValid(version) {
			violations = append(violations, fmt.Errorf("%s/%s: not a valid version", UpdatesDir, version))
			continue
		}
		f := files[path.Join(UpdatesDir, version, ConfigFile)]
		if f == nil {
			violations = append(violations, fmt.Errorf("%s/%s: %s is missing", UpdatesDir, version, ConfigFile))
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			violations = append(violations, fmt.Errorf("%s/%s: reading %s: %w", UpdatesDir, version, ConfigFile, err))
			continue
		}
		cfg, err := ParseConfig(data)
		if err != nil {
			violations = append(violations, fmt.Errorf("%s/%s: %w", UpdatesDir, version, err))
			continue
		}
		if cfg.Version != version {
			violations = append(violations, fmt.Errorf("%s/%s: %s declares version %q", UpdatesDir, version, ConfigFile, cfg.Version))
		}
	}

	return versions, violations
}

func validationError(violations []error) error {
	return fmt.Errorf("archive validation failed:\n%w", errors.Join(violations...))
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// InstallResult reports what an archive install changed on disk.
type InstallResult struct {
	ThemeID    string   `json:"themeId"`
	Installed  bool     `json:"installed"`
	NewTheme   bool     `json:"newTheme"`
	NewUpdates []string `json:"newUpdates,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Installer validates theme archives and writes them into the themes
// directory. Installing never rewrites history: for an existing theme only
// update folders not yet on disk are extracted.
type Installer struct {
	store     *Store
	validator *ArchiveValidator
	locks     *locks.KeyedMutex
	logger    *slog.Logger
}

// NewInstaller creates an installer sharing the builder's per-theme locks.
func NewInstaller(store *Store, km *locks.KeyedMutex, logger *slog.Logger) *Installer {
	return &Installer{
		store:     store,
		validator: NewArchiveValidator(store, logger),
		locks:     km,
		logger:    logger,
	}
}

// InstallFile opens a zip archive on disk and installs it.
func (ins *Installer) InstallFile(ctx context.Context, path string) (*InstallResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer func() {
		if err := zr.Close(); err != nil {
			ins.logger.Error("failed to close archive", "path", path, "error", err)
		}
	}()

	return ins.Install(ctx, &zr.Reader)
}

// Install validates the archive and extracts it. A new theme gets its whole
// tree written out; an existing theme only gains update folders it does not
// already have. Every target path is revalidated against the theme directory
// before any file is written.
func (ins *Installer) Install(ctx context.Context, zr *zip.Reader) (*InstallResult, error) {
	info, err := ins.validator.Validate(zr)
	if err != nil {
		return nil, err
	}

	unlock := ins.locks.Lock("theme:" + info.ThemeID)
	defer unlock()

	if info.Exists {
		return ins.installUpdates(ctx, zr, info)
	}
	return ins.installNew(ctx, zr, info)
}

func (ins *Installer) installNew(ctx context.Context, zr *zip.Reader, info *ArchiveInfo) (*InstallResult, error) {
	dest := ins.store.Dir(info.ThemeID)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, ok := entryRel(f.Name, info.ThemeID)
		if !ok || f.FileInfo().IsDir() {
			continue
		}
		// A materialized snapshot inside the archive is stale by definition.
		if rel == LatestDir || strings.HasPrefix(rel, LatestDir+"/") {
			continue
		}
		if err := extractZipFile(f, dest, rel); err != nil {
			return nil, fmt.Errorf("installing theme %s: %w", info.ThemeID, err)
		}
	}

	ins.store.Invalidate(ctx, info.ThemeID)
	ins.logger.Info("theme installed",
		"theme", info.ThemeID,
		"version", info.Config.Version,
		"updates", len(info.Updates))

	return &InstallResult{
		ThemeID:    info.ThemeID,
		Installed:  true,
		NewTheme:   true,
		NewUpdates: info.Updates,
	}, nil
}

func (ins *Installer) installUpdates(ctx context.Context, zr *zip.Reader, info *ArchiveInfo) (*InstallResult, error) {
	dest := ins.store.Dir(info.ThemeID)

	newUpdates := make([]string, 0, len(info.Updates))
	for _, version := range info.Updates {
		if _, err := os.Stat(filepath.Join(dest, UpdatesDir, version)); err == nil {
			continue
		}
		newUpdates = append(newUpdates, version)
	}
	if len(newUpdates) == 0 {
		return &InstallResult{
			ThemeID: info.ThemeID,
			Message: "No new updates in archive",
		}, nil
	}

	wanted := make(map[string]bool, len(newUpdates))
	for _, version := range newUpdates {
		wanted[version] = true
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, ok := entryRel(f.Name, info.ThemeID)
		if !ok || f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasPrefix(rel, UpdatesDir+"/") {
			continue
		}
		version, _, _ := strings.Cut(rel[len(UpdatesDir)+1:], "/")
		if !wanted[version] {
			continue
		}
		if err := extractZipFile(f, dest, rel); err != nil {
			return nil, fmt.Errorf("installing updates for theme %s: %w", info.ThemeID, err)
		}
	}

	ins.store.Invalidate(ctx, info.ThemeID)
	ins.logger.Info("theme updates installed", "theme", info.ThemeID, "updates", newUpdates)

	return &InstallResult{
		ThemeID:    info.ThemeID,
		Installed:  true,
		NewUpdates: newUpdates,
	}, nil
}

// extractZipFile writes one archive entry below destRoot, refusing any
// entry whose resolved path would escape it.
func extractZipFile(f *zip.File, destRoot, rel string) error {
	target, err := fsutil.SafeJoinPath(destRoot, filepath.FromSlash(rel))
	if err != nil {
		return fmt.Errorf("invalid entry path %s: %w", rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", rel, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", rel, err)
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", rel, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", rel, err)
	}
	return nil
}
