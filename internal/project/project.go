// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package project persists site projects as directories under the projects
// root. Each project directory holds project.json (the record), the
// project's own theme.json settings copy, and the content tree seeded from
// its theme: layout.*, assets/, widgets/, menus/ and pages/.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RecordFile is the per-project metadata file.
const RecordFile = "project.json"

// PagesDir holds a project's page files. Theme template files land here
// keyed by slug.
const PagesDir = "pages"

// ErrNotFound is returned when a project directory or its record does not
// exist.
var ErrNotFound = errors.New("project not found")

// Project is the record stored in project.json. ThemeVersion tracks the
// theme version the project content was last reconciled with, not the
// newest version the theme declares.
type Project struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Theme                  string    `json:"theme"`
	ThemeVersion           string    `json:"themeVersion"`
	ReceiveThemeUpdates    bool      `json:"receiveThemeUpdates"`
	LastThemeUpdateAt      time.Time `json:"lastThemeUpdateAt,omitzero"`
	LastThemeUpdateVersion string    `json:"lastThemeUpdateVersion,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Store reads and writes project records. Concurrent writers of the same
// project are expected to hold its key lock; the store itself does not
// serialize.
type Store struct {
	projectsDir string
	logger      *slog.Logger
}

// NewStore creates a project store rooted at projectsDir.
func NewStore(projectsDir string, logger *slog.Logger) *Store {
	return &Store{
		projectsDir: projectsDir,
		logger:      logger,
	}
}

// ProjectsDir returns the projects directory path.
func (s *Store) ProjectsDir() string {
	return s.projectsDir
}

// Dir returns the directory of a project. The project is not required to
// exist.
func (s *Store) Dir(projectID string) string {
	return filepath.Join(s.projectsDir, projectID)
}

// Exists reports whether a project directory with a record is present.
func (s *Store) Exists(projectID string) bool {
	info, err := os.Stat(filepath.Join(s.Dir(projectID), RecordFile))
	return err == nil && info.Mode().IsRegular()
}

// Load reads a project record. The directory name is authoritative for the
// id, whatever the file says.
func (s *Store) Load(projectID string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(projectID), RecordFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", projectID, err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", projectID, err)
	}
	p.ID = projectID
	return &p, nil
}

// Save writes a project record, stamping UpdatedAt.
func (s *Store) Save(p *Project) error {
	if p.ID == "" {
		return errors.New("project id is required")
	}

	p.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.ID, err)
	}

	if err := os.MkdirAll(s.Dir(p.ID), 0o755); err != nil {
		return fmt.Errorf("creating project directory %s: %w", p.ID, err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(p.ID), RecordFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing project %s: %w", p.ID, err)
	}
	return nil
}

// List returns every project with a readable record, in directory order.
// Directories without a record are skipped with a warning.
func (s *Store) List() ([]*Project, error) {
	if _, err := os.Stat(s.projectsDir); os.IsNotExist(err) {
		s.logger.Warn("projects directory does not exist", "path", s.projectsDir)
		return nil, nil
	}

	entries, err := os.ReadDir(s.projectsDir)
	if err != nil {
		return nil, fmt.Errorf("reading projects directory: %w", err)
	}

	var projects []*Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warn("skipping project with unreadable record", "project", entry.Name(), "error", err)
			continue
		}
		projects = append(projects, p)
	}

	s.logger.Debug("projects listed", "count", len(projects))
	return projects, nil
}
