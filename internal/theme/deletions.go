// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DeletionKind tags what a resolved deletion marker removes.
type DeletionKind int

const (
	// FileDelete removes a single file from the snapshot.
	FileDelete DeletionKind = iota
	// DirDelete removes a directory and everything under it.
	DirDelete
)

func (k DeletionKind) String() string {
	if k == DirDelete {
		return "dir"
	}
	return "file"
}

// Deletion is one resolved marker from an update's deleted/ tree: the
// kind of removal and the target path relative to the snapshot root,
// slash-separated.
type Deletion struct {
	Kind DeletionKind
	Rel  string
}

// ResolveDeletions walks an update's deleted/ tree once and returns the
// explicit list of removals it encodes. A file marker deletes that file; a
// directory marker deletes the whole directory when empty, and is only a
// path container when it has children. A missing deleted/ tree resolves to
// no deletions.
func ResolveDeletions(deletedDir string) ([]Deletion, error) {
	if _, err := os.Stat(deletedDir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var deletions []Deletion
	err := filepath.WalkDir(deletedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == deletedDir {
			return nil
		}

		rel, err := filepath.Rel(deletedDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !d.IsDir() {
			deletions = append(deletions, Deletion{Kind: FileDelete, Rel: rel})
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			deletions = append(deletions, Deletion{Kind: DirDelete, Rel: rel})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolving deletion markers in %s: %w", deletedDir, err)
	}

	return deletions, nil
}

// applyDeletions removes each resolved path from the snapshot tree,
// tolerating targets that are already gone.
func applyDeletions(root string, deletions []Deletion) error {
	for _, del := range deletions {
		target := filepath.Join(root, filepath.FromSlash(del.Rel))

		var err error
		switch del.Kind {
		case DirDelete:
			err = os.RemoveAll(target)
		default:
			err = os.Remove(target)
			if errors.Is(err, os.ErrNotExist) {
				err = nil
			}
		}
		if err != nil {
			return fmt.Errorf("deleting %s %s: %w", del.Kind, del.Rel, err)
		}
	}
	return nil
}
