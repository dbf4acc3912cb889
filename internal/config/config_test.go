// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ThemesDir != "./data/themes" {
		t.Errorf("ThemesDir = %q, want %q", cfg.ThemesDir, "./data/themes")
	}
	if cfg.ProjectsDir != "./data/projects" {
		t.Errorf("ProjectsDir = %q, want %q", cfg.ProjectsDir, "./data/projects")
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "./data")
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.CachePrefix != "osb:" {
		t.Errorf("CachePrefix = %q, want %q", cfg.CachePrefix, "osb:")
	}
	if cfg.CacheTTL != 3600 {
		t.Errorf("CacheTTL = %d, want %d", cfg.CacheTTL, 3600)
	}
	if cfg.RebuildSchedule != "@every 5m" {
		t.Errorf("RebuildSchedule = %q, want %q", cfg.RebuildSchedule, "@every 5m")
	}
	if !cfg.AutoApply {
		t.Error("AutoApply should default to true")
	}
	if cfg.WatchDebounce != 500 {
		t.Errorf("WatchDebounce = %d, want %d", cfg.WatchDebounce, 500)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OSB_THEMES_DIR", "/srv/osb/themes")
	setEnv(t, "OSB_PROJECTS_DIR", "/srv/osb/projects")
	setEnv(t, "OSB_ENV", "production")
	setEnv(t, "OSB_LOG_LEVEL", "debug")
	setEnv(t, "OSB_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "OSB_REBUILD_SCHEDULE", "@every 1h")
	setEnv(t, "OSB_AUTO_APPLY", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ThemesDir != "/srv/osb/themes" {
		t.Errorf("ThemesDir = %q, want %q", cfg.ThemesDir, "/srv/osb/themes")
	}
	if cfg.ProjectsDir != "/srv/osb/projects" {
		t.Errorf("ProjectsDir = %q, want %q", cfg.ProjectsDir, "/srv/osb/projects")
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q, want %q", cfg.RedisURL, "redis://localhost:6379/0")
	}
	if cfg.RebuildSchedule != "@every 1h" {
		t.Errorf("RebuildSchedule = %q, want %q", cfg.RebuildSchedule, "@every 1h")
	}
	if cfg.AutoApply {
		t.Error("AutoApply should be false")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OSB_LOG_LEVEL", "verbose")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail for an unknown log level")
	}
}

func TestLoad_InvalidCacheTTL(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OSB_CACHE_TTL", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail for a non-positive cache TTL")
	}
}

func TestLoad_EmptyRebuildSchedule(t *testing.T) {
	os.Clearenv()
	setEnv(t, "OSB_REBUILD_SCHEDULE", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail for an empty rebuild schedule")
	}
}

func TestIsDevelopment(t *testing.T) {
	if !(Config{Env: "development"}).IsDevelopment() {
		t.Error("development env should report IsDevelopment")
	}
	if (Config{Env: "production"}).IsDevelopment() {
		t.Error("production env should not report IsDevelopment")
	}
}

func TestUseRedisCache(t *testing.T) {
	if (Config{}).UseRedisCache() {
		t.Error("empty RedisURL should not enable Redis")
	}
	if !(Config{RedisURL: "redis://localhost:6379"}).UseRedisCache() {
		t.Error("a set RedisURL should enable Redis")
	}
}

func TestDurations(t *testing.T) {
	cfg := Config{CacheTTL: 90, WatchDebounce: 250}
	if got := cfg.CacheTTLDuration(); got != 90*time.Second {
		t.Errorf("CacheTTLDuration = %v, want %v", got, 90*time.Second)
	}
	if got := cfg.WatchDebounceDuration(); got != 250*time.Millisecond {
		t.Errorf("WatchDebounceDuration = %v, want %v", got, 250*time.Millisecond)
	}
}
