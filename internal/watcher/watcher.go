// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package watcher drops cached theme state when theme files change on
// disk, so edits made outside the tool become visible without a restart.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/olegiv/osb-go/internal/journal"
	"github.com/olegiv/osb-go/internal/theme"
)

// Config holds the watcher's debounce settings.
type Config struct {
	// Interval is the quiet window after the last event before a theme's
	// cache is invalidated. Events within the window are coalesced.
	Interval time.Duration
	// MaxWait bounds how long invalidation can be pushed back by a steady
	// stream of events.
	MaxWait time.Duration
}

// DefaultConfig returns the default debounce settings.
func DefaultConfig() Config {
	return Config{
		Interval: 500 * time.Millisecond,
		MaxWait:  5 * time.Second,
	}
}

// pendingChange tracks a debounced theme change.
type pendingChange struct {
	timer     *time.Timer
	firstSeen time.Time
}

// Watcher watches the themes directory and invalidates a theme's cached
// state when files under it change. fsnotify is not recursive, so the
// watch set is the themes directory itself, each theme root and each
// updates/ directory; that covers everything the cache is derived from.
type Watcher struct {
	store   *theme.Store
	journal *journal.Journal
	config  Config
	logger  *slog.Logger

	fw      *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]*pendingChange
	wg      sync.WaitGroup
}

// New creates a watcher over the given store. Start must be called before
// events are observed.
func New(store *theme.Store, jrnl *journal.Journal, cfg Config, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:   store,
		journal: jrnl,
		config:  cfg,
		logger:  logger,
		pending: make(map[string]*pendingChange),
	}
}

// Start registers the watch set and begins handling events.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.fw = fw

	if err := w.addRoots(); err != nil {
		_ = fw.Close()
		return err
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("theme watcher started", "dir", w.store.ThemesDir())
	return nil
}

// Stop closes the watcher and fires any pending invalidations.
func (w *Watcher) Stop() {
	if w.fw != nil {
		_ = w.fw.Close()
	}
	w.wg.Wait()
	w.Flush()
	w.logger.Info("theme watcher stopped")
}

// Flush immediately fires all pending invalidations.
func (w *Watcher) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id := range w.pending {
		w.fireLocked(id)
	}
}

func (w *Watcher) addRoots() error {
	themesDir := w.store.ThemesDir()
	if err := w.fw.Add(themesDir); err != nil {
		return fmt.Errorf("watching %s: %w", themesDir, err)
	}

	entries, err := os.ReadDir(themesDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", themesDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.watchTheme(filepath.Join(themesDir, e.Name()))
		}
	}
	return nil
}

// watchTheme registers a theme root and its updates/ directory. Both adds
// are best-effort: a theme removed mid-walk is not an error.
func (w *Watcher) watchTheme(dir string) {
	if err := w.fw.Add(dir); err != nil {
		w.logger.Warn("failed to watch theme dir", "dir", dir, "error", err)
		return
	}
	updates := filepath.Join(dir, theme.UpdatesDir)
	if info, err := os.Stat(updates); err == nil && info.IsDir() {
		if err := w.fw.Add(updates); err != nil {
			w.logger.Warn("failed to watch updates dir", "dir", updates, "error", err)
		}
	}
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.store.ThemesDir(), ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	themeID := parts[0]

	if ev.Op.Has(fsnotify.Create) {
		w.watchNew(ev.Name, parts)
	}

	w.debounce(themeID)
}

// watchNew extends the watch set when a new theme or updates/ directory
// appears.
func (w *Watcher) watchNew(path string, parts []string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	switch {
	case len(parts) == 1:
		w.watchTheme(path)
	case len(parts) == 2 && parts[1] == theme.UpdatesDir:
		if err := w.fw.Add(path); err != nil {
			w.logger.Warn("failed to watch updates dir", "dir", path, "error", err)
		}
	}
}

func (w *Watcher) debounce(themeID string) {
	now := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[themeID]; ok {
		if now.Sub(existing.firstSeen) >= w.config.MaxWait {
			w.fireLocked(themeID)
			return
		}
		existing.timer.Reset(w.config.Interval)
		return
	}

	pc := &pendingChange{firstSeen: now}
	pc.timer = time.AfterFunc(w.config.Interval, func() {
		w.mu.Lock()
		w.fireLocked(themeID)
		w.mu.Unlock()
	})
	w.pending[themeID] = pc
}

// fireLocked invalidates a theme's cached state. Must be called with the
// lock held.
func (w *Watcher) fireLocked(themeID string) {
	pc, ok := w.pending[themeID]
	if !ok {
		return
	}
	pc.timer.Stop()
	delete(w.pending, themeID)

	w.store.Invalidate(context.Background(), themeID)
	w.journal.Debug(journal.CategoryTheme, "theme files changed on disk", map[string]any{
		"theme": themeID,
	})
	w.logger.Debug("theme cache invalidated", "theme", themeID)
}

// PendingCount returns the number of themes awaiting invalidation.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
