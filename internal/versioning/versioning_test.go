// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
		valid bool
	}{
		{"simple", "1.2.3", Version{1, 2, 3}, true},
		{"zeros", "0.0.0", Version{0, 0, 0}, true},
		{"large groups", "10.20.30", Version{10, 20, 30}, true},
		{"empty", "", Version{}, false},
		{"v prefix", "v1.2.3", Version{}, false},
		{"two groups", "1.2", Version{}, false},
		{"four groups", "1.2.3.4", Version{}, false},
		{"prerelease", "1.2.3-beta.1", Version{}, false},
		{"build metadata", "1.2.3+build.5", Version{}, false},
		{"leading zero major", "01.2.3", Version{}, false},
		{"leading zero minor", "1.02.3", Version{}, false},
		{"leading space", " 1.2.3", Version{}, false},
		{"trailing space", "1.2.3 ", Version{}, false},
		{"wildcard", "1.2.x", Version{}, false},
		{"word", "latest", Version{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionString(t *testing.T) {
	v, ok := Parse("4.0.17")
	require.True(t, ok)
	assert.Equal(t, "4.0.17", v.String())
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("1.0.0"))
	assert.False(t, IsValid("1.0"))
	assert.False(t, IsValid("not-a-version"))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.2.3", "1.2.3", 0},
		{"patch older", "1.2.3", "1.2.4", -1},
		{"patch newer", "1.2.4", "1.2.3", 1},
		{"minor beats patch", "1.9.9", "1.10.0", -1},
		{"major beats minor", "1.99.99", "2.0.0", -1},
		{"numeric not lexical", "1.9.0", "1.10.0", -1},
		{"invalid beats valid", "garbage", "999.999.999", 1},
		{"valid loses to invalid", "0.0.1", "garbage", -1},
		{"both invalid equal", "abc", "def", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestSortAscending(t *testing.T) {
	input := []string{"1.10.0", "1.2.0", "bogus", "1.9.0", "0.1.0", "2.0.0"}

	sorted := SortAscending(input)

	assert.Equal(t, []string{"0.1.0", "1.2.0", "1.9.0", "1.10.0", "2.0.0", "bogus"}, sorted)
	// Input order must survive.
	assert.Equal(t, []string{"1.10.0", "1.2.0", "bogus", "1.9.0", "0.1.0", "2.0.0"}, input)
}

func TestSortAscendingStable(t *testing.T) {
	// Duplicate and invalid entries keep their original relative order.
	sorted := SortAscending([]string{"zzz", "1.0.0", "aaa", "1.0.0"})
	assert.Equal(t, []string{"1.0.0", "1.0.0", "zzz", "aaa"}, sorted)
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer("1.0.0", "1.0.1"))
	assert.False(t, IsNewer("1.0.1", "1.0.0"))
	assert.False(t, IsNewer("1.0.0", "1.0.0"))
	// Invalid candidates order after every valid version, so they report
	// as newer; callers filter with IsValid before trusting this.
	assert.True(t, IsNewer("1.0.0", "garbage"))
	assert.False(t, IsNewer("garbage", "1.0.0"))
}

func TestLatest(t *testing.T) {
	latest, ok := Latest([]string{"1.0.0", "2.1.0", "1.9.9"})
	require.True(t, ok)
	assert.Equal(t, "2.1.0", latest)

	_, ok = Latest(nil)
	assert.False(t, ok)

	// Malformed entries sort last and win; documented so callers know to
	// filter with IsValid when they need a buildable version.
	latest, ok = Latest([]string{"1.0.0", "broken"})
	require.True(t, ok)
	assert.Equal(t, "broken", latest)
}
