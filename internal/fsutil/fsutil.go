// Package fsutil provides the filesystem primitives the bundle stages share.
package fsutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// EnsureDir creates a directory if it does not exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("fsutil.EnsureDir: failed to create directory %s: %w", path, err)
	}
	return nil
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("fsutil.WriteFile: %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists. Symlinks are followed.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CopyFile copies a single file from src to dst, preserving its mode.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fsutil.CopyFile: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("fsutil.CopyFile: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("fsutil.CopyFile: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("fsutil.CopyFile: copy %s: %w", src, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("fsutil.CopyFile: close %s: %w", dst, err)
	}
	return nil
}

// SkipFunc reports whether the entry at rel (slash-separated, relative to the
// copy root) should be left out. It is consulted for files and directories.
type SkipFunc func(rel string, isDir bool) bool

// CopyTree copies src into dst. Symlinks are dereferenced: the copy holds
// regular files and directories only. Directory creation happens while walking;
// file copies are fanned out with at most limit workers and the first failure
// cancels the rest.
func CopyTree(ctx context.Context, src, dst string, skip SkipFunc, limit int) error {
	var pairs [][2]string
	if err := collect(src, dst, "", skip, &pairs, map[string]bool{}); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return CopyFile(p[0], p[1])
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fsutil.CopyTree: %w", err)
	}
	return nil
}

func collect(src, dst, rel string, skip SkipFunc, pairs *[][2]string, seen map[string]bool) error {
	// Stat follows symlinks, so linked directories are descended into.
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("fsutil.CopyTree: %w", err)
	}
	if !info.IsDir() {
		*pairs = append(*pairs, [2]string{src, dst})
		return nil
	}

	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("fsutil.CopyTree: %w", err)
	}
	if seen[resolved] {
		return fmt.Errorf("fsutil.CopyTree: symlink cycle at %s", src)
	}
	seen[resolved] = true
	defer delete(seen, resolved)

	if err := os.MkdirAll(dst, 0o750); err != nil {
		return fmt.Errorf("fsutil.CopyTree: %w", err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("fsutil.CopyTree: %w", err)
	}
	for _, entry := range entries {
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}
		childSrc := filepath.Join(src, entry.Name())
		if skip != nil {
			ci, err := os.Stat(childSrc)
			if err != nil {
				return fmt.Errorf("fsutil.CopyTree: %w", err)
			}
			if skip(childRel, ci.IsDir()) {
				continue
			}
		}
		if err := collect(childSrc, filepath.Join(dst, entry.Name()), childRel, skip, pairs, seen); err != nil {
			return err
		}
	}
	return nil
}
