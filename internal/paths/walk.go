package paths

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// ignoredDirs are directory names skipped at any depth during traversal:
// version-control metadata, dependency caches, build output and tool caches.
var ignoredDirs = map[string]struct{}{
	".git":             {},
	".hg":              {},
	".svn":             {},
	"node_modules":     {},
	"bower_components": {},
	".pnpm-store":      {},
	".yarn":            {},
	"dist":             {},
	"build":            {},
	"out":              {},
	"target":           {},
	"coverage":         {},
	".next":            {},
	".nuxt":            {},
	".turbo":           {},
	".cache":           {},
	".parcel-cache":    {},
	"__pycache__":      {},
	".pytest_cache":    {},
	".mypy_cache":      {},
	".venv":            {},
	".tox":             {},
	".gradle":          {},
	".idea":            {},
}

// IsIgnoredDir reports whether a directory with this name is skipped.
func IsIgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}

// HasIgnoredSegment reports whether any directory segment of a
// slash-separated relative path is ignored.
func HasIgnoredSegment(rel string) bool {
	segments := strings.Split(rel, "/")
	for _, segment := range segments[:len(segments)-1] {
		if IsIgnoredDir(segment) {
			return true
		}
	}
	return false
}

// WalkFunc is called for every regular file found by Walk. rel is
// root-relative and slash-separated.
type WalkFunc func(abs, rel string) error

// Walk visits the regular files below start in lexical order. Symbolic links
// are never followed or reported, ignored directories are pruned and each
// absolute path is visited once. Returning filepath.SkipAll from fn stops the
// walk without error.
func (s *Sandbox) Walk(ctx context.Context, start string, fn WalkFunc) error {
	return s.WalkDepth(ctx, start, 0, fn)
}

// WalkDepth is Walk limited to files at most maxDepth segments below start.
// A maxDepth of zero or less means unlimited.
func (s *Sandbox) WalkDepth(ctx context.Context, start string, maxDepth int, fn WalkFunc) error {
	visited := make(map[string]struct{})
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == start {
				return err
			}
			// Unreadable entries are skipped rather than failing the walk.
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if _, seen := visited[path]; seen {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		visited[path] = struct{}{}

		if d.IsDir() {
			if path == start {
				return nil
			}
			if IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			if maxDepth > 0 && depth(start, path) >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !s.Contains(path) {
			return nil
		}
		return fn(path, s.Rel(path))
	})
}

func depth(start, path string) int {
	rel, err := filepath.Rel(start, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
