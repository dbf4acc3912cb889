// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package versioning parses and orders theme release versions.
//
// A release version is a plain X.Y.Z string: three dot-separated numeric
// groups with no "v" prefix, no pre-release suffix and no build metadata.
// Anything else is treated as invalid, and invalid strings order after
// every valid one so that malformed update folders never shadow real
// releases.
package versioning

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Version is a parsed X.Y.Z release version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// String returns the canonical X.Y.Z form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse parses a release version string. The second return value reports
// whether the string is a valid X.Y.Z version. There is no error: callers
// branch on validity, and malformed input is an expected state (update
// folders are named by hand).
func Parse(s string) (Version, bool) {
	sv, err := semver.StrictNewVersion(s)
	if err != nil {
		return Version{}, false
	}
	// StrictNewVersion already rejects the v prefix, missing groups and
	// leading zeros, but still accepts pre-release and build suffixes.
	if sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, false
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, true
}

// IsValid reports whether s is a valid X.Y.Z release version.
func IsValid(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Compare orders two version strings. It returns -1 if a is older than b,
// 0 if they are equal, and 1 if a is newer than b.
//
// An invalid string compares newer than any valid version, and two invalid
// strings compare equal. This keeps malformed entries grouped at the end of
// a sorted list where they are easy to spot.
func Compare(a, b string) int {
	av, aok := Parse(a)
	bv, bok := Parse(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return compare(av, bv)
}

func compare(a, b Version) int {
	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	return compareUint(a.Patch, b.Patch)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortAscending returns a copy of versions sorted oldest to newest.
// The input slice is not modified. The sort is stable, so equal versions
// (including any invalid strings, which all sort last) keep their relative
// order.
func SortAscending(versions []string) []string {
	sorted := make([]string, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// IsNewer reports whether candidate is a strictly newer version than current.
func IsNewer(current, candidate string) bool {
	return Compare(current, candidate) < 0
}

// Latest returns the newest entry of versions and true, or "" and false for
// an empty list. Because invalid strings sort after valid ones, a list that
// contains malformed entries yields one of those entries here; callers that
// need a buildable version must filter with IsValid first.
func Latest(versions []string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	sorted := SortAscending(versions)
	return sorted[len(sorted)-1], true
}
