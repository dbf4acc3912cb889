// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type themeSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

func TestTypedCache_BasicOperations(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	summary := &themeSummary{ID: "aurora", Name: "Aurora", Version: "1.2.0"}

	// Test Set and Get
	err := cache.Set(ctx, "theme:aurora", summary)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := cache.Get(ctx, "theme:aurora")
	if !found {
		t.Fatal("expected to find theme:aurora")
	}
	if got.ID != summary.ID || got.Name != summary.Name || got.Version != summary.Version {
		t.Errorf("got %+v, want %+v", got, summary)
	}
}

func TestTypedCache_CacheMiss(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	_, found := cache.Get(ctx, "nonexistent")
	if found {
		t.Error("expected not to find nonexistent key")
	}
}

func TestTypedCache_Delete(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	_ = cache.Set(ctx, "theme:aurora", &themeSummary{ID: "aurora", Version: "1.2.0"})

	err := cache.Delete(ctx, "theme:aurora")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, found := cache.Get(ctx, "theme:aurora")
	if found {
		t.Error("expected theme:aurora to be deleted")
	}
}

func TestTypedCache_Has(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	_ = cache.Set(ctx, "theme:aurora", &themeSummary{ID: "aurora"})

	if !cache.Has(ctx, "theme:aurora") {
		t.Error("expected theme:aurora to exist")
	}

	if cache.Has(ctx, "theme:borealis") {
		t.Error("expected theme:borealis to not exist")
	}
}

func TestTypedCache_SetWithTTL(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	// Set with short TTL
	err := cache.SetWithTTL(ctx, "theme:aurora", &themeSummary{ID: "aurora"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("SetWithTTL failed: %v", err)
	}

	// Should exist immediately
	if _, found := cache.Get(ctx, "theme:aurora"); !found {
		t.Error("expected theme:aurora to exist immediately")
	}

	// Wait for expiration
	time.Sleep(60 * time.Millisecond)

	// Should be expired
	if _, found := cache.Get(ctx, "theme:aurora"); found {
		t.Error("expected theme:aurora to be expired")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	callCount := 0
	loader := func() (*themeSummary, error) {
		callCount++
		return &themeSummary{ID: "aurora", Version: "1.2.0"}, nil
	}

	// First call should invoke the loader
	summary, err := cache.GetOrSet(ctx, "theme:aurora", loader)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected loader to be called once, got %d", callCount)
	}
	if summary.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %s", summary.Version)
	}

	// Second call should use cached value
	summary2, err := cache.GetOrSet(ctx, "theme:aurora", loader)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected loader to still be called once, got %d", callCount)
	}
	if summary2.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %s", summary2.Version)
	}
}

func TestTypedCache_GetOrSetError(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[themeSummary](memCache, time.Hour)
	ctx := context.Background()

	expectedErr := errors.New("scan error")
	loader := func() (*themeSummary, error) {
		return nil, expectedErr
	}

	_, err := cache.GetOrSet(ctx, "theme:aurora", loader)
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}

	// Key should not be cached after error
	if cache.Has(ctx, "theme:aurora") {
		t.Error("expected key to not be cached after error")
	}
}

func TestTypedCache_SliceType(t *testing.T) {
	memCache := NewSimpleMemoryCache(time.Hour)
	defer func() { _ = memCache.Close() }()

	cache := NewTypedCache[[]string](memCache, time.Hour)
	ctx := context.Background()

	versions := []string{"1.0.0", "1.1.0", "1.2.0"}
	err := cache.Set(ctx, "theme:aurora:versions", &versions)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := cache.Get(ctx, "theme:aurora:versions")
	if !found {
		t.Fatal("expected to find version list")
	}
	if len(*got) != 3 || (*got)[2] != "1.2.0" {
		t.Errorf("got %v, want %v", *got, versions)
	}
}
