// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package theme implements the versioned theme store: read-side queries
// over a theme's on-disk layout, snapshot construction from the base layer
// plus ordered update deltas, and validation/installation of uploaded
// theme archives.
//
// A theme directory holds a base layer (theme.json, layout.*, assets/,
// templates/, widgets/ and optional menus/ and presets/), zero or more
// delta folders under updates/<version>/, and a derived latest/ snapshot
// that materializes base plus all updates in ascending version order.
// latest/ is a cache, never a source of truth: it is trusted only while
// latest/theme.json is readable, and is rebuilt wholesale by the
// SnapshotBuilder.
package theme

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olegiv/osb-go/internal/settings"
)

// Well-known names inside a theme directory.
const (
	ConfigFile   = "theme.json"
	UpdatesDir   = "updates"
	LatestDir    = "latest"
	DeletedDir   = "deleted"
	AssetsDir    = "assets"
	TemplatesDir = "templates"
	WidgetsDir   = "widgets"
	MenusDir     = "menus"
	PresetsDir   = "presets"

	// PresetsFile lists the presets shipped under presets/.
	PresetsFile = "presets.json"
)

// Glob patterns for the single-file base-layer entries.
const (
	LayoutGlob     = "layout.*"
	ScreenshotGlob = "screenshot.*"
)

// Config represents the configuration loaded from theme.json.
type Config struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Author      string          `json:"author,omitempty"`
	Description string          `json:"description,omitempty"`
	Screenshot  string          `json:"screenshot,omitempty"`
	Required    json.RawMessage `json:"required,omitempty"`
	Settings    *settings.Node  `json:"settings,omitempty"`
}

// LoadConfig reads and parses a theme.json file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses raw theme.json bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing theme config: %w", err)
	}
	return &cfg, nil
}

// Write marshals the config and writes it to the given path. The output is
// indented because project theme.json files are edited by hand.
func (c *Config) Write(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding theme config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing theme config: %w", err)
	}
	return nil
}

// MergeConfig reconciles a project's stored theme config with the config
// shipped by a newer theme version. Every top-level field, the version
// included, comes from the new config; only the settings tree is merged so
// values the site owner has customized survive the update.
func MergeConfig(old, new *Config) *Config {
	merged := *new
	if new.Required != nil {
		merged.Required = append(json.RawMessage(nil), new.Required...)
	}

	var oldSettings *settings.Node
	if old != nil {
		oldSettings = old.Settings
	}
	merged.Settings = settings.Merge(oldSettings, new.Settings)
	return &merged
}

// Info pairs a theme's directory name with its parsed config.
type Info struct {
	ID     string
	Config Config
}

// Preset is one entry of presets/presets.json: a named bundle of starter
// content a project can be created from.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Screenshot  string `json:"screenshot,omitempty"`
}
