// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package paths confines caller-supplied paths to a sandbox root.
package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "reviewkit/internal/errors"
)

// MaxPathLength bounds any caller-supplied path or pattern.
const MaxPathLength = 4096

// ValidatePathString validates raw path input before resolution.
func ValidatePathString(path string, maxLen int) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.IndexByte(path, 0) != -1 {
		return fmt.Errorf("path contains null byte")
	}
	if !utf8.ValidString(path) {
		return fmt.Errorf("path is not valid UTF-8")
	}
	for _, r := range path {
		if unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Me, r) {
			return fmt.Errorf("path contains unsupported unicode combining mark")
		}
	}
	if maxLen > 0 {
		if len(path) > maxLen {
			return fmt.Errorf("path exceeds maximum length of %d characters", maxLen)
		}
		if len(filepath.Clean(path)) > maxLen {
			return fmt.Errorf("path exceeds maximum length of %d characters", maxLen)
		}
	}
	return nil
}

// HasPathPrefix returns true when path is within base.
func HasPathPrefix(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) || filepath.IsAbs(rel)
}

// Sandbox resolves paths against a fixed root directory. It holds no mutable
// state and is safe for concurrent use.
type Sandbox struct {
	root string
}

// NewSandbox returns a sandbox rooted at root. The root is made absolute and
// its own symlinks are evaluated once, so later checks compare real paths.
func NewSandbox(root string) (*Sandbox, error) {
	if strings.TrimSpace(root) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArguments, "sandbox root cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid sandbox root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sandbox root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, apperrors.Newf(apperrors.CodeNotADirectory, "sandbox root %s is not a directory", root)
	}
	return &Sandbox{root: resolved}, nil
}

// Root returns the absolute sandbox root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a relative or absolute candidate to an absolute path inside
// the root. Paths that leave the root fail with a path_escape error.
func (s *Sandbox) Resolve(candidate string) (string, error) {
	if err := ValidatePathString(candidate, MaxPathLength); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidArguments, "invalid path", err)
	}
	abs := candidate
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.root, abs)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || escapes(rel) {
		return "", apperrors.Newf(apperrors.CodePathEscape, "path %s escapes the repository root", candidate)
	}
	return abs, nil
}

// Rel maps an absolute path inside the root back to a slash-separated
// root-relative path. The root itself is ".".
func (s *Sandbox) Rel(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Contains reports whether abs lies inside the root.
func (s *Sandbox) Contains(abs string) bool {
	return HasPathPrefix(abs, s.root)
}

// CheckNoSymlinks walks every segment between the root and abs and rejects
// the path if any of them is a symbolic link.
func (s *Sandbox) CheckNoSymlinks(abs string) error {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || escapes(rel) {
		return apperrors.Newf(apperrors.CodePathEscape, "path %s escapes the repository root", s.Rel(abs))
	}
	if rel == "." {
		return nil
	}
	current := s.root
	for _, segment := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, segment)
		info, err := os.Lstat(current)
		if err != nil {
			return apperrors.FromFS(s.Rel(current), err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return apperrors.Newf(apperrors.CodeSymlinkRejected, "%s is a symbolic link", s.Rel(current))
		}
	}
	return nil
}
