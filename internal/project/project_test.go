// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, testLogger()), dir
}

func TestSaveAndLoad(t *testing.T) {
	store, _ := newTestStore(t)

	p := &Project{
		ID:                  "my-site",
		Name:                "My Site",
		Theme:               "aurora",
		ThemeVersion:        "1.0.0",
		ReceiveThemeUpdates: true,
		CreatedAt:           time.Now().UTC(),
	}
	require.NoError(t, store.Save(p))
	assert.False(t, p.UpdatedAt.IsZero(), "Save should stamp UpdatedAt")

	loaded, err := store.Load("my-site")
	require.NoError(t, err)
	assert.Equal(t, "my-site", loaded.ID)
	assert.Equal(t, "My Site", loaded.Name)
	assert.Equal(t, "aurora", loaded.Theme)
	assert.Equal(t, "1.0.0", loaded.ThemeVersion)
	assert.True(t, loaded.ReceiveThemeUpdates)
	assert.True(t, loaded.LastThemeUpdateAt.IsZero())
}

func TestRecordOmitsUnsetUpdateTimestamp(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, store.Save(&Project{ID: "my-site", Name: "My Site"}))

	data, err := os.ReadFile(filepath.Join(dir, "my-site", RecordFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lastThemeUpdateAt")
	assert.NotContains(t, string(data), "lastThemeUpdateVersion")
	assert.True(t, strings.HasSuffix(string(data), "\n"), "record should end with a newline")

	now := time.Now().UTC()
	require.NoError(t, store.Save(&Project{
		ID:                     "my-site",
		Name:                   "My Site",
		LastThemeUpdateAt:      now,
		LastThemeUpdateVersion: "1.2.0",
	}))

	data, err = os.ReadFile(filepath.Join(dir, "my-site", RecordFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "lastThemeUpdateAt")
	assert.Contains(t, string(data), "1.2.0")
}

func TestLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMalformed(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", RecordFile), []byte("{broken"), 0o644))

	_, err := store.Load("broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoadUsesDirectoryName(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "actual"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "actual", RecordFile),
		[]byte(`{"id": "stale", "name": "Renamed"}`), 0o644))

	p, err := store.Load("actual")
	require.NoError(t, err)
	assert.Equal(t, "actual", p.ID)
}

func TestSaveRequiresID(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Save(&Project{Name: "No ID"})
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	store, dir := newTestStore(t)

	assert.False(t, store.Exists("my-site"))

	// A bare directory without a record does not count.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "my-site"), 0o755))
	assert.False(t, store.Exists("my-site"))

	require.NoError(t, store.Save(&Project{ID: "my-site", Name: "My Site"}))
	assert.True(t, store.Exists("my-site"))
}

func TestList(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, store.Save(&Project{ID: "alpha", Name: "Alpha"}))
	require.NoError(t, store.Save(&Project{ID: "beta", Name: "Beta"}))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "no-record"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	projects, err := store.List()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "alpha", projects[0].ID)
	assert.Equal(t, "beta", projects[1].ID)
}

func TestListMissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"), testLogger())

	projects, err := store.List()
	require.NoError(t, err)
	assert.Nil(t, projects)
}
