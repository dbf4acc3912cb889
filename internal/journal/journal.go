// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package journal appends operational events to a JSON Lines file for
// auditing: theme installs, snapshot builds, update applies and the
// warnings the slog bridge forwards.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event levels
const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event categories
const (
	CategoryTheme   = "theme"
	CategoryProject = "project"
	CategoryUpdate  = "update"
	CategorySystem  = "system"
	CategoryCache   = "cache"
)

// EventsFile is the journal file name inside the data directory.
const EventsFile = "events.jsonl"

// Event is one journal entry.
type Event struct {
	ID       string         `json:"id"`
	Time     time.Time      `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category"`
	Message  string         `json:"message"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Journal is an append-only event log. Writes are serialized; one Journal
// is shared by the whole process.
type Journal struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// Open creates the data directory if needed and opens the journal file for
// appending.
func Open(dataDir string) (*Journal, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, EventsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	return &Journal{path: path, f: f}, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// Record appends one event and returns it with id and time filled in.
func (j *Journal) Record(level, category, message string, fields map[string]any) (*Event, error) {
	e := Event{
		ID:       uuid.NewString(),
		Time:     time.Now().UTC(),
		Level:    level,
		Category: category,
		Message:  message,
		Fields:   fields,
	}
	if err := j.write(e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Debug records a debug event, dropping write failures.
func (j *Journal) Debug(category, message string, fields map[string]any) {
	_, _ = j.Record(LevelDebug, category, message, fields)
}

// Info records an info event, dropping write failures. Journaling never
// fails the operation being journaled.
func (j *Journal) Info(category, message string, fields map[string]any) {
	_, _ = j.Record(LevelInfo, category, message, fields)
}

// Warning records a warning event, dropping write failures.
func (j *Journal) Warning(category, message string, fields map[string]any) {
	_, _ = j.Record(LevelWarning, category, message, fields)
}

// Error records an error event, dropping write failures.
func (j *Journal) Error(category, message string, fields map[string]any) {
	_, _ = j.Record(LevelError, category, message, fields)
}

func (j *Journal) write(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Tail returns the last n events in file order. Malformed lines are
// skipped. A journal that does not exist yet yields no events.
func (j *Journal) Tail(n int) ([]Event, error) {
	if n <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var events []Event
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		events = append(events, e)
	}

	if len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}
