// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package fsutil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultCopyWorkers bounds concurrent file copies when CopyOptions.Workers
// is zero.
const DefaultCopyWorkers = 4

// CopyOptions controls how CopyDir treats the source and destination trees.
type CopyOptions struct {
	// SkipExisting leaves files that already exist in the destination
	// untouched instead of overwriting them.
	SkipExisting bool

	// Exclude skips a source entry and, for directories, everything under
	// it. The path is relative to the copy root and slash-separated.
	Exclude func(rel string) bool

	// Workers bounds the number of concurrent file copies.
	// Zero means DefaultCopyWorkers.
	Workers int
}

// CopyDir recursively copies the tree rooted at src into dst, creating dst
// if needed. Directories are created in walk order; file contents are copied
// concurrently. Symlinks and other non-regular files are skipped. Returns
// the number of files written.
func CopyDir(ctx context.Context, src, dst string, opts CopyOptions) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("source %s is not a directory", src)
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultCopyWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var copied atomic.Int64

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		relSlash := filepath.ToSlash(rel)
		if opts.Exclude != nil && opts.Exclude(relSlash) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)

		if d.IsDir() {
			dirInfo, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, dirInfo.Mode().Perm())
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if opts.SkipExisting {
			if _, err := os.Stat(target); err == nil {
				return nil
			} else if !os.IsNotExist(err) {
				return err
			}
		}

		g.Go(func() error {
			if err := CopyFile(ctx, path, target); err != nil {
				return fmt.Errorf("copying %s: %w", relSlash, err)
			}
			copied.Add(1)
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return int(copied.Load()), err
	}
	if walkErr != nil {
		return int(copied.Load()), walkErr
	}
	return int(copied.Load()), nil
}

// CopyFile copies a single regular file, creating parent directories as
// needed. The destination inherits the source file mode.
func CopyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
