// Package catalog enumerates the regular files beneath a directory tree.
//
// Paths are returned slash-separated and relative to the root so that callers
// can match them against doublestar patterns and derive route paths without
// caring about the host separator.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

// List returns every regular file under root. Subdirectories are descended
// before the files of the current level are appended, then the result is
// ordered by path length with a lexicographic tie-break.
func List(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.InputError(fmt.Sprintf("directory not found: %s", root)).
				WithContext("path", root).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat catalog root").Build()
	}
	if !info.IsDir() {
		return nil, ferrors.InputError(fmt.Sprintf("not a directory: %s", root)).
			WithContext("path", root).Build()
	}

	var files []string
	if err := walk(root, "", &files); err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		if len(files[i]) != len(files[j]) {
			return len(files[i]) < len(files[j])
		}
		return files[i] < files[j]
	})
	return files, nil
}

func walk(root, rel string, out *[]string) error {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read directory").
			WithContext("path", rel).Build()
	}
	var own []string
	for _, e := range entries {
		child := path.Join(rel, e.Name())
		if e.IsDir() {
			if err := walk(root, child, out); err != nil {
				return err
			}
			continue
		}
		if e.Type().IsRegular() {
			own = append(own, child)
		}
	}
	*out = append(*out, own...)
	return nil
}

// Filter keeps the files matching at least one include pattern and none of the
// exclude patterns. An empty include list keeps everything.
func Filter(files, include, exclude []string) []string {
	var kept []string
	for _, f := range files {
		if len(include) > 0 && !matchAny(include, f) {
			continue
		}
		if matchAny(exclude, f) {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// Match reports whether name matches any of patterns.
func Match(patterns []string, name string) bool {
	return matchAny(patterns, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		// Patterns are validated at config load; a malformed one never matches.
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
