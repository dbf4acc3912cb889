// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package fsutil

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "simple filename",
			input: "theme.json",
			want:  "theme.json",
		},
		{
			name:  "filename with spaces",
			input: "my theme.zip",
			want:  "my theme.zip",
		},
		{
			name:  "path traversal attempt",
			input: "../../../etc/passwd",
			want:  "passwd",
		},
		{
			name:  "path with directory",
			input: "themes/aurora/screenshot.png",
			want:  "screenshot.png",
		},
		{
			name:  "absolute path",
			input: "/var/lib/osb/file.txt",
			want:  "file.txt",
		},
		{
			name:    "single dot",
			input:   ".",
			wantErr: true,
		},
		{
			name:    "double dot",
			input:   "..",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:  "hidden file",
			input: ".env",
			want:  ".env",
		},
		{
			name:  "double extension",
			input: "theme.tar.gz",
			want:  "theme.tar.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeFilename() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SanitizeFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinBase(t *testing.T) {
	themesDir := filepath.Join(t.TempDir(), "themes")

	tests := []struct {
		name       string
		basePath   string
		targetPath string
		wantErr    bool
	}{
		{
			name:       "same directory",
			basePath:   themesDir,
			targetPath: themesDir,
			wantErr:    false,
		},
		{
			name:       "subdirectory",
			basePath:   themesDir,
			targetPath: filepath.Join(themesDir, "aurora"),
			wantErr:    false,
		},
		{
			name:       "deep subdirectory",
			basePath:   themesDir,
			targetPath: filepath.Join(themesDir, "aurora", "updates", "1.0.1"),
			wantErr:    false,
		},
		{
			name:       "traversal to parent",
			basePath:   themesDir,
			targetPath: filepath.Join(themesDir, ".."),
			wantErr:    true,
		},
		{
			name:       "traversal with subdirectory",
			basePath:   themesDir,
			targetPath: filepath.Join(themesDir, "aurora", "..", ".."),
			wantErr:    true,
		},
		{
			name:       "traversal to sibling",
			basePath:   themesDir,
			targetPath: filepath.Join(themesDir, "..", "projects"),
			wantErr:    true,
		},
		{
			name:       "absolute path outside base",
			basePath:   themesDir,
			targetPath: "/etc/passwd",
			wantErr:    true,
		},
		{
			name:       "similar prefix but different directory",
			basePath:   themesDir,
			targetPath: themesDir + "-malicious",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinBase(tt.basePath, tt.targetPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinBase() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name       string
		basePath   string
		components []string
		wantErr    bool
	}{
		{
			name:       "simple join",
			basePath:   tmpDir,
			components: []string{"aurora", "theme.json"},
			wantErr:    false,
		},
		{
			name:       "traversal in component",
			basePath:   tmpDir,
			components: []string{"..", "secret.txt"},
			wantErr:    true,
		},
		{
			name:       "hidden traversal",
			basePath:   tmpDir,
			components: []string{"aurora", "..", "..", "etc", "passwd"},
			wantErr:    true,
		},
		{
			// Note: filepath.Join("/base", "/etc/passwd") returns "/base/etc/passwd"
			// on Unix - it does NOT treat the second path as absolute like Python does.
			// So this path IS within the base and is safe.
			name:       "absolute path component (safe in Go)",
			basePath:   tmpDir,
			components: []string{"/etc/passwd"},
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SafeJoinPath(tt.basePath, tt.components...)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafeJoinPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{
			name: "simple path",
			path: "assets/css/main.css",
			want: false,
		},
		{
			name: "leading double dot",
			path: "../etc/passwd",
			want: true,
		},
		{
			// "assets/../widgets/footer.json" cleans to "widgets/footer.json"
			// which has no ".." - the traversal was resolved within the path.
			name: "middle double dot (resolved)",
			path: "assets/../widgets/footer.json",
			want: false,
		},
		{
			name: "multiple traversals",
			path: "../../../../../../etc/passwd",
			want: true,
		},
		{
			name: "single dot is safe",
			path: "./assets/logo.svg",
			want: false,
		},
		{
			name: "double dot in filename is safe",
			path: "file..name.txt",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsPathTraversal(tt.path); got != tt.want {
				t.Errorf("ContainsPathTraversal(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
