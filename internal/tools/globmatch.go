package tools

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// globPattern is a validated glob split into the literal directory it
// starts from and the part matched below that directory.
type globPattern struct {
	base string
	rest string
	// maxDepth bounds how far below base a match can sit. Zero when "**"
	// makes it unbounded.
	maxDepth int
	// dots allows wildcards to match dot-names, set when the pattern itself
	// spells out a dot segment.
	dots bool
}

func compileGlob(pattern string) (globPattern, error) {
	if pattern != "/" {
		pattern = strings.TrimRight(pattern, "/")
	}
	if !doublestar.ValidatePattern(pattern) {
		return globPattern{}, invalidArgs("invalid 'pattern' parameter: %q is not a valid glob", pattern)
	}
	base, rest := doublestar.SplitPattern(pattern)
	if rest == "" {
		return globPattern{}, invalidArgs("invalid 'pattern' parameter: %q matches nothing", pattern)
	}
	g := globPattern{base: base, rest: rest, dots: hasDotSegment(rest)}
	if !strings.Contains(rest, "**") {
		// Brace alternatives pick a subset of the slashes, so the total
		// count bounds every expansion.
		g.maxDepth = strings.Count(rest, "/") + 1
	}
	return g, nil
}

func hasDotSegment(pattern string) bool {
	return strings.HasPrefix(pattern, ".") ||
		strings.Contains(pattern, "/.") ||
		strings.Contains(pattern, "{.") ||
		strings.Contains(pattern, ",.")
}

// match reports whether name, slash-separated and relative to the base,
// matches. Wildcards never reach a dot-name unless the pattern names one.
func (g globPattern) match(name string) bool {
	if !g.dots && (strings.HasPrefix(name, ".") || strings.Contains(name, "/.")) {
		return false
	}
	ok, err := doublestar.Match(g.rest, name)
	return err == nil && ok
}
