// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package journal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Handler is a slog.Handler that wraps another handler and also journals
// records at WARN level and above, so operational problems are captured in
// the event log without a second logging call at every site.
type Handler struct {
	inner   slog.Handler
	journal *Journal
	level   slog.Level
}

// NewHandler creates a Handler that journals records at WARN and above.
func NewHandler(inner slog.Handler, j *Journal) *Handler {
	return &Handler{
		inner:   inner,
		journal: j,
		level:   slog.LevelWarn,
	}
}

// NewHandlerWithLevel creates a Handler with a custom journaling threshold.
func NewHandlerWithLevel(inner slog.Handler, j *Journal, level slog.Level) *Handler {
	return &Handler{
		inner:   inner,
		journal: j,
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		// Journal write failures must not fail the logging call.
		_ = h.journal.write(Event{
			ID:       uuid.NewString(),
			Time:     r.Time.UTC(),
			Level:    eventLevel(r.Level),
			Category: extractCategory(r),
			Message:  r.Message,
			Fields:   extractFields(r),
		})
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:   h.inner.WithAttrs(attrs),
		journal: h.journal,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:   h.inner.WithGroup(name),
		journal: h.journal,
		level:   h.level,
	}
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// extractCategory takes an explicit "category" attribute when present and
// otherwise infers one from the message.
func extractCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "theme") || strings.Contains(msg, "snapshot"):
		return CategoryTheme
	case strings.Contains(msg, "project"):
		return CategoryProject
	case strings.Contains(msg, "update"):
		return CategoryUpdate
	case strings.Contains(msg, "cache"):
		return CategoryCache
	default:
		return CategorySystem
	}
}

// extractFields collects the record attributes, minus the category.
func extractFields(r slog.Record) map[string]any {
	if r.NumAttrs() == 0 {
		return nil
	}

	fields := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "category" {
			fields[a.Key] = a.Value.Any()
		}
		return true
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
