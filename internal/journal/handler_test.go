// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package journal

import (
	"context"
	"log/slog"
	"testing"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestHandlerJournalsWarnings(t *testing.T) {
	j := newTestJournal(t)
	logger := slog.New(NewHandler(discardHandler{}, j))

	logger.Warn("snapshot build failed", "category", CategoryTheme, "theme", "aurora")

	events, err := j.Tail(10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Level != LevelWarning {
		t.Errorf("expected warning level, got %q", e.Level)
	}
	if e.Category != CategoryTheme {
		t.Errorf("expected theme category, got %q", e.Category)
	}
	if e.Message != "snapshot build failed" {
		t.Errorf("unexpected message %q", e.Message)
	}
	if e.Fields["theme"] != "aurora" {
		t.Errorf("expected theme field, got %v", e.Fields)
	}
	if _, ok := e.Fields["category"]; ok {
		t.Error("category attribute should not be duplicated into fields")
	}
}

func TestHandlerSkipsInfo(t *testing.T) {
	j := newTestJournal(t)
	logger := slog.New(NewHandler(discardHandler{}, j))

	logger.Info("themes listed", "count", 3)

	events, err := j.Tail(10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events below warn, got %v", events)
	}
}

func TestHandlerErrorLevel(t *testing.T) {
	j := newTestJournal(t)
	logger := slog.New(NewHandler(discardHandler{}, j))

	logger.Error("archive rejected")

	events, err := j.Tail(1)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(events) != 1 || events[0].Level != LevelError {
		t.Errorf("expected one error event, got %v", events)
	}
}

func TestHandlerInfersCategory(t *testing.T) {
	j := newTestJournal(t)
	logger := slog.New(NewHandler(discardHandler{}, j))

	tests := []struct {
		message string
		want    string
	}{
		{"cache backend unreachable", CategoryCache},
		{"theme directory vanished", CategoryTheme},
		{"project record unreadable", CategoryProject},
		{"disk almost full", CategorySystem},
	}
	for _, tt := range tests {
		logger.Warn(tt.message)
	}

	events, err := j.Tail(len(tests))
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(events) != len(tests) {
		t.Fatalf("expected %d events, got %d", len(tests), len(events))
	}
	for i, tt := range tests {
		if events[i].Category != tt.want {
			t.Errorf("message %q: expected category %q, got %q", tt.message, tt.want, events[i].Category)
		}
	}
}

func TestHandlerCustomLevel(t *testing.T) {
	j := newTestJournal(t)
	logger := slog.New(NewHandlerWithLevel(discardHandler{}, j, slog.LevelInfo))

	logger.Info("update check ran", "category", CategoryUpdate)

	events, err := j.Tail(1)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(events) != 1 || events[0].Level != LevelInfo {
		t.Errorf("expected one info event, got %v", events)
	}
}
