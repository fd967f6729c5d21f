package tools

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	apperrors "reviewkit/internal/errors"
)

// grepFlags is the set of accepted regex flag characters.
const grepFlags = "gimsu"

// inlineDotAllRe finds an inline flag group that turns on dot-all.
var inlineDotAllRe = regexp.MustCompile(`\(\?[imU]*s`)

// GrepRequest asks for regex matches in one or more files or directories.
type GrepRequest struct {
	Pattern string
	Flags   string
	// Paths are files or directories to search. Empty means the root.
	Paths      []string
	MaxResults int
	Encoding   string
}

// GrepMatch is a single regex match. Line and Column are 1-based; offsets are
// zero-based from the start of the file.
type GrepMatch struct {
	Path           string `json:"path"`
	Line           int    `json:"line"`
	Column         int    `json:"column"`
	MatchedText    string `json:"matchedText"`
	ContextSnippet string `json:"contextSnippet"`
	// CharOffset counts code points of the decoded text.
	CharOffset int64 `json:"charOffset"`
	// ByteOffset counts bytes in the file's on-disk encoding.
	ByteOffset int64 `json:"byteOffset"`
}

// GrepResult lists matches in path order, then file order.
type GrepResult struct {
	Matches   []GrepMatch `json:"matches"`
	Truncated bool        `json:"truncated"`
}

type grepStrategy int

const (
	strategyStreaming grepStrategy = iota
	strategyFullBuffer
)

func (s grepStrategy) String() string {
	switch s {
	case strategyStreaming:
		return "streaming"
	case strategyFullBuffer:
		return "full-buffer"
	default:
		return "unknown"
	}
}

// compileGrep validates flags and builds the regexp. Every match in a line
// or buffer is always reported, so "g" is implied whether given or not.
func compileGrep(pattern, flags string) (*regexp.Regexp, grepStrategy, error) {
	if pattern == "" {
		return nil, 0, invalidArgs("missing or invalid 'pattern' parameter")
	}
	var inline strings.Builder
	seen := make(map[rune]bool, len(flags))
	for _, f := range flags {
		if !strings.ContainsRune(grepFlags, f) || seen[f] {
			return nil, 0, apperrors.Newf(apperrors.CodeInvalidRegexFlags, "invalid regex flags %q: allowed flags are %q", flags, grepFlags)
		}
		seen[f] = true
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		}
	}
	source := pattern
	if inline.Len() > 0 {
		source = "(?" + inline.String() + ")" + pattern
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, 0, invalidArgs("invalid 'pattern' parameter: %v", err)
	}
	return re, chooseStrategy(pattern, seen['s']), nil
}

// chooseStrategy picks full-buffer scanning for patterns that may match
// across a line boundary.
func chooseStrategy(pattern string, dotAll bool) grepStrategy {
	switch {
	case dotAll,
		strings.Contains(pattern, `\n`),
		strings.Contains(pattern, `\r`),
		strings.ContainsAny(pattern, "\n\r"),
		inlineDotAllRe.MatchString(pattern):
		return strategyFullBuffer
	default:
		return strategyStreaming
	}
}

// grepCollector accumulates matches up to a limit.
type grepCollector struct {
	limit     int
	matches   []GrepMatch
	truncated bool
}

// add records m and reports whether scanning should continue. Reaching the
// limit stops collection and marks the result truncated.
func (c *grepCollector) add(m GrepMatch) bool {
	c.matches = append(c.matches, m)
	if len(c.matches) >= c.limit {
		c.truncated = true
		return false
	}
	return true
}

type grepFile struct {
	abs string
	rel string
}

// Grep runs a regular expression over files inside the root.
func (r *Registry) Grep(ctx context.Context, req GrepRequest) (GrepResult, error) {
	re, strategy, err := compileGrep(req.Pattern, req.Flags)
	if err != nil {
		return GrepResult{}, err
	}
	enc, err := lookupEncoding(req.Encoding)
	if err != nil {
		return GrepResult{}, err
	}
	maxResults, err := capResults("maxResults", req.MaxResults, DefaultGrepResults, r.limits.MaxGrepResults)
	if err != nil {
		return GrepResult{}, err
	}
	files, err := r.grepFiles(ctx, req.Paths)
	if err != nil {
		return GrepResult{}, err
	}

	out := &grepCollector{limit: maxResults}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return GrepResult{}, err
		}
		more, err := r.grepFile(re, strategy, enc, file, out)
		if err != nil {
			return GrepResult{}, err
		}
		if !more {
			break
		}
	}

	r.logger.Debug().
		Str("tool", "grep").
		Str("strategy", strategy.String()).
		Int("files", len(files)).
		Int("matches", len(out.matches)).
		Bool("truncated", out.truncated).
		Msg("grep complete")

	matches := out.matches
	if matches == nil {
		matches = []GrepMatch{}
	}
	return GrepResult{Matches: matches, Truncated: out.truncated}, nil
}

// grepFiles expands the requested paths into a sorted, deduplicated list of
// regular files.
func (r *Registry) grepFiles(ctx context.Context, candidates []string) ([]grepFile, error) {
	if len(candidates) == 0 {
		candidates = []string{"."}
	}
	seen := make(map[string]string)
	for _, candidate := range candidates {
		abs, err := r.sandbox.Resolve(candidate)
		if err != nil {
			return nil, err
		}
		if err := r.sandbox.CheckNoSymlinks(abs); err != nil {
			return nil, err
		}
		info, err := os.Lstat(abs)
		if err != nil {
			return nil, apperrors.FromFS(r.sandbox.Rel(abs), err)
		}
		switch {
		case info.IsDir():
			err := r.sandbox.Walk(ctx, abs, func(abs, rel string) error {
				seen[rel] = abs
				return nil
			})
			if err != nil {
				return nil, err
			}
		case info.Mode().IsRegular():
			seen[r.sandbox.Rel(abs)] = abs
		default:
			return nil, apperrors.Newf(apperrors.CodeNotAFile, "%s is not a regular file", r.sandbox.Rel(abs))
		}
	}

	rels := make([]string, 0, len(seen))
	for rel := range seen {
		rels = append(rels, rel)
	}
	sortPaths(rels)
	files := make([]grepFile, len(rels))
	for i, rel := range rels {
		files[i] = grepFile{abs: seen[rel], rel: rel}
	}
	return files, nil
}

// grepFile scans one file and reports whether scanning should continue.
func (r *Registry) grepFile(re *regexp.Regexp, strategy grepStrategy, enc textEncoding, file grepFile, out *grepCollector) (bool, error) {
	f, err := openNoFollow(file.abs, file.rel)
	if err != nil {
		// The tree may change between listing and scanning.
		if apperrors.Is(err, apperrors.CodeNotFound) || apperrors.Is(err, apperrors.CodeSymlinkRejected) {
			return true, nil
		}
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, apperrors.FromFS(file.rel, err)
	}
	if !info.Mode().IsRegular() {
		return true, nil
	}

	switch strategy {
	case strategyFullBuffer:
		if info.Size() > r.limits.MaxFileSizeBytes {
			r.logger.Debug().Str("tool", "grep").Str("path", file.rel).Int64("size", info.Size()).Msg("skipping file above full-buffer size limit")
			return true, nil
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return false, apperrors.FromFS(file.rel, err)
		}
		text, err := enc.decode(data)
		if err != nil {
			return false, apperrors.Wrap(apperrors.CodeInvalidEncoding, "failed to decode "+file.rel+" as "+enc.name, err)
		}
		return scanBuffer(re, enc, file.rel, text, out), nil
	case strategyStreaming:
		more, err := scanStream(re, enc, file.rel, f, out)
		if err != nil {
			return false, apperrors.FromFS(file.rel, err)
		}
		return more, nil
	default:
		return false, apperrors.Newf(apperrors.CodeToolExecution, "unknown grep strategy %v", strategy)
	}
}

// scanStream matches re against each line of src independently.
func scanStream(re *regexp.Regexp, enc textEncoding, rel string, src io.Reader, out *grepCollector) (bool, error) {
	br := bufio.NewReader(enc.reader(src))
	cursor := newLineCursor(enc)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			ls := cursor.advance(raw)
			body, _ := splitLineEnding(raw)
			for _, loc := range re.FindAllStringIndex(body, -1) {
				if !out.add(matchAt(enc, rel, ls, raw, loc[0], loc[1], body[loc[0]:loc[1]])) {
					return false, nil
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	}
}

// scanBuffer matches re against the whole text and maps each match back to
// its line through the line index.
func scanBuffer(re *regexp.Regexp, enc textEncoding, rel, text string, out *grepCollector) bool {
	idx := buildLineIndex(text, enc)
	for _, loc := range re.FindAllStringIndex(idx.view, -1) {
		ls, start := idx.locate(loc[0])
		end := start + loc[1] - loc[0]
		if !out.add(matchAt(enc, rel, ls, idx.raw(ls), start, end, idx.view[loc[0]:loc[1]])) {
			return false
		}
	}
	return true
}
