// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ThemesDir   string `env:"OSB_THEMES_DIR" envDefault:"./data/themes"`
	ProjectsDir string `env:"OSB_PROJECTS_DIR" envDefault:"./data/projects"`
	DataDir     string `env:"OSB_DATA_DIR" envDefault:"./data"`
	Env         string `env:"OSB_ENV" envDefault:"development"`
	LogLevel    string `env:"OSB_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"OSB_REDIS_URL"`                         // Optional Redis URL for shared caching
	CachePrefix  string `env:"OSB_CACHE_PREFIX" envDefault:"osb:"`    // Redis key prefix
	CacheTTL     int    `env:"OSB_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"OSB_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Background rebuild configuration
	RebuildSchedule string `env:"OSB_REBUILD_SCHEDULE" envDefault:"@every 5m"` // Cron spec for snapshot rebuilds
	AutoApply       bool   `env:"OSB_AUTO_APPLY" envDefault:"true"`            // Apply updates to opted-in projects after rebuilds
	WatchDebounce   int    `env:"OSB_WATCH_DEBOUNCE_MS" envDefault:"500"`      // Theme watcher debounce in milliseconds
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// WatchDebounceDuration returns the watcher debounce as a duration.
func (c Config) WatchDebounceDuration() time.Duration {
	return time.Duration(c.WatchDebounce) * time.Millisecond
}

// validLogLevels are the accepted OSB_LOG_LEVEL values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if !validLogLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("OSB_LOG_LEVEL must be one of debug, info, warn, error; got %q", cfg.LogLevel)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("OSB_CACHE_TTL must be positive, got %d", cfg.CacheTTL)
	}
	if cfg.CacheMaxSize <= 0 {
		return nil, fmt.Errorf("OSB_CACHE_MAX_SIZE must be positive, got %d", cfg.CacheMaxSize)
	}
	if cfg.WatchDebounce <= 0 {
		return nil, fmt.Errorf("OSB_WATCH_DEBOUNCE_MS must be positive, got %d", cfg.WatchDebounce)
	}
	if cfg.RebuildSchedule == "" {
		return nil, fmt.Errorf("OSB_REBUILD_SCHEDULE must not be empty")
	}

	return cfg, nil
}
