package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/osb-go/internal/cache"
	"github.com/olegiv/osb-go/internal/journal"
	"github.com/olegiv/osb-go/internal/locks"
	"github.com/olegiv/osb-go/internal/project"
	"github.com/olegiv/osb-go/internal/theme"
	"github.com/olegiv/osb-go/internal/update"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestScheduler wires a scheduler over real stores in a temp directory.
func newTestScheduler(t *testing.T, autoApply bool) (*Scheduler, *project.Store, string) {
	t.Helper()

	root := t.TempDir()
	logger := testLogger()

	c := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	themesDir := filepath.Join(root, "themes")
	themes := theme.NewStore(themesDir, cache.NewThemeCache(c, time.Minute), logger)
	projects := project.NewStore(filepath.Join(root, "projects"), logger)

	jrnl, err := journal.Open(filepath.Join(root, "data"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = jrnl.Close() })

	km := locks.NewKeyedMutex()
	builder := theme.NewSnapshotBuilder(themes, km, logger)
	updates := update.NewService(projects, themes, jrnl, km, logger)

	return New(builder, updates, jrnl, "@every 1h", autoApply, logger), projects, themesDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func configJSON(name, version string) string {
	return fmt.Sprintf(`{"name": %q, "version": %q, "author": "oSB"}`, name, version)
}

// seedPendingTheme writes a base layer plus one unbuilt update.
func seedPendingTheme(t *testing.T, themesDir, themeID string) {
	t.Helper()
	dir := filepath.Join(themesDir, themeID)
	writeFile(t, filepath.Join(dir, theme.ConfigFile), configJSON(themeID, "1.0.0"))
	writeFile(t, filepath.Join(dir, "layout.liquid"), "layout-1.0.0")
	writeFile(t, filepath.Join(dir, "screenshot.png"), "png")
	writeFile(t, filepath.Join(dir, theme.AssetsDir, "css", "site.css"), "body {}")
	writeFile(t, filepath.Join(dir, theme.UpdatesDir, "1.1.0", theme.ConfigFile), configJSON(themeID, "1.1.0"))
	writeFile(t, filepath.Join(dir, theme.UpdatesDir, "1.1.0", "layout.liquid"), "layout-1.1.0")
}

func TestNew(t *testing.T) {
	s, _, _ := newTestScheduler(t, true)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.spec != "@every 1h" {
		t.Errorf("spec = %q, want %q", s.spec, "@every 1h")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t, true)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
}

func TestScheduler_StartInvalidSpec(t *testing.T) {
	s, _, _ := newTestScheduler(t, true)
	s.spec = "not a cron spec"

	if err := s.Start(); err == nil {
		t.Fatal("Start() should fail for an invalid spec")
	}
}

func TestRunOnce(t *testing.T) {
	s, projects, themesDir := newTestScheduler(t, true)
	seedPendingTheme(t, themesDir, "aurora")

	if err := projects.Save(&project.Project{
		ID:                  "my-site",
		Name:                "My Site",
		Theme:               "aurora",
		ThemeVersion:        "1.0.0",
		ReceiveThemeUpdates: true,
	}); err != nil {
		t.Fatalf("failed to save project: %v", err)
	}

	s.RunOnce(context.Background())

	// The snapshot was built.
	cfg, err := theme.LoadConfig(filepath.Join(themesDir, "aurora", theme.LatestDir, theme.ConfigFile))
	if err != nil {
		t.Fatalf("expected a built snapshot: %v", err)
	}
	if cfg.Version != "1.1.0" {
		t.Errorf("snapshot version = %q, want %q", cfg.Version, "1.1.0")
	}

	// The opted-in project received the new version.
	p, err := projects.Load("my-site")
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}
	if p.ThemeVersion != "1.1.0" {
		t.Errorf("project theme version = %q, want %q", p.ThemeVersion, "1.1.0")
	}
}

func TestRunOnceWithoutAutoApply(t *testing.T) {
	s, projects, themesDir := newTestScheduler(t, false)
	seedPendingTheme(t, themesDir, "aurora")

	if err := projects.Save(&project.Project{
		ID:                  "my-site",
		Name:                "My Site",
		Theme:               "aurora",
		ThemeVersion:        "1.0.0",
		ReceiveThemeUpdates: true,
	}); err != nil {
		t.Fatalf("failed to save project: %v", err)
	}

	s.RunOnce(context.Background())

	// The snapshot was built but the project was left alone.
	if _, err := os.Stat(filepath.Join(themesDir, "aurora", theme.LatestDir, theme.ConfigFile)); err != nil {
		t.Fatalf("expected a built snapshot: %v", err)
	}
	p, err := projects.Load("my-site")
	if err != nil {
		t.Fatalf("failed to load project: %v", err)
	}
	if p.ThemeVersion != "1.0.0" {
		t.Errorf("project theme version = %q, want %q", p.ThemeVersion, "1.0.0")
	}
}
