package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "reviewkit/internal/errors"
	"reviewkit/internal/paths"
)

// GlobRequest asks for files matching a pattern.
type GlobRequest struct {
	Pattern string
	// Cwd is the directory the pattern is relative to. Empty means the root.
	Cwd        string
	MaxResults int
}

// GlobResult lists matching root-relative file paths.
type GlobResult struct {
	Matches   []string `json:"matches"`
	Truncated bool     `json:"truncated"`
}

// Glob returns the regular files matching req.Pattern, sorted
// case-insensitively. Symlinks and ignored directories are never reported.
func (r *Registry) Glob(ctx context.Context, req GlobRequest) (GlobResult, error) {
	if strings.TrimSpace(req.Pattern) == "" {
		return GlobResult{}, invalidArgs("missing or invalid 'pattern' parameter")
	}
	if err := paths.ValidatePathString(req.Pattern, paths.MaxPathLength); err != nil {
		return GlobResult{}, invalidArgs("invalid 'pattern' parameter: %v", err)
	}
	maxResults, err := capResults("maxResults", req.MaxResults, DefaultGlobResults, r.limits.MaxGlobResults)
	if err != nil {
		return GlobResult{}, err
	}
	pattern, err := compileGlob(filepath.ToSlash(req.Pattern))
	if err != nil {
		return GlobResult{}, err
	}
	cwd, err := r.directory(req.Cwd)
	if err != nil {
		return GlobResult{}, err
	}
	base, err := r.globBase(cwd, pattern.base)
	if err != nil {
		if apperrors.Is(err, apperrors.CodePathEscape) {
			return GlobResult{}, apperrors.Newf(apperrors.CodePathEscape, "pattern %s escapes the repository root", req.Pattern)
		}
		return GlobResult{}, err
	}

	found := make(map[string]struct{})
	if base != "" {
		err := r.sandbox.WalkDepth(ctx, base, pattern.maxDepth, func(abs, rel string) error {
			if paths.HasIgnoredSegment(rel) {
				return nil
			}
			name, err := filepath.Rel(base, abs)
			if err != nil {
				return nil
			}
			if pattern.match(filepath.ToSlash(name)) {
				found[rel] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return GlobResult{}, err
		}
	}

	matches := make([]string, 0, len(found))
	for rel := range found {
		matches = append(matches, rel)
	}
	sortPaths(matches)
	result := GlobResult{Matches: matches}
	if len(matches) >= maxResults {
		result.Matches = matches[:maxResults]
		result.Truncated = true
	}

	r.logger.Debug().Str("tool", "glob").Str("pattern", req.Pattern).Int("matches", len(result.Matches)).Bool("truncated", result.Truncated).Msg("glob complete")
	return result, nil
}

// globBase resolves the literal directory a pattern starts from. It returns
// "" when that directory does not exist. Brace alternatives that leave the
// root are matched only against files under base, so they find nothing.
func (r *Registry) globBase(cwd, base string) (string, error) {
	dir := filepath.FromSlash(base)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cwd, dir)
	}
	abs, err := r.sandbox.Resolve(dir)
	if err != nil {
		return "", err
	}
	if err := r.sandbox.CheckNoSymlinks(abs); err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return "", nil
		}
		return "", err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", nil
	}
	return abs, nil
}

// directory resolves an optional directory argument. It must be a real
// directory reached without symlinks.
func (r *Registry) directory(candidate string) (string, error) {
	if strings.TrimSpace(candidate) == "" {
		return r.sandbox.Root(), nil
	}
	abs, err := r.sandbox.Resolve(candidate)
	if err != nil {
		return "", err
	}
	if err := r.sandbox.CheckNoSymlinks(abs); err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", apperrors.FromFS(r.sandbox.Rel(abs), err)
	}
	if !info.IsDir() {
		return "", apperrors.Newf(apperrors.CodeNotADirectory, "%s is not a directory", r.sandbox.Rel(abs))
	}
	return abs, nil
}

// sortPaths orders paths case-insensitively, breaking ties bytewise.
func sortPaths(items []string) {
	sort.Slice(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i]), strings.ToLower(items[j])
		if a != b {
			return a < b
		}
		return items[i] < items[j]
	})
}
