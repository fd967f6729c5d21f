// Package diff parses git-style unified diffs into a line-addressable model.
package diff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	fileHeaderPrefix = "diff --git "
	noNewlinePrefix  = `\ `
)

var (
	hunkHeaderRe  = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(?: (.*))?$`)
	similarityRe  = regexp.MustCompile(`^similarity index (\d+)%$`)
	binaryFilesRe = regexp.MustCompile(`^Binary files .* differ$`)
)

// Parse parses a unified diff. It never fails: malformed file headers and
// stray lines are skipped and parsing resumes at the next recognisable header.
func Parse(text string) ParsedDiff {
	return ParseWithLogger(text, zerolog.Nop())
}

// ParseWithLogger is Parse with debug logging of skipped input.
func ParseWithLogger(text string, logger zerolog.Logger) ParsedDiff {
	p := &parser{logger: logger, file: -1, hunk: -1}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for n, line := range strings.Split(text, "\n") {
		p.line(n+1, line)
	}
	if p.files == nil {
		return ParsedDiff{}
	}
	return p.files
}

type parser struct {
	logger zerolog.Logger
	files  ParsedDiff

	file int // index into files, -1 when no file is open
	hunk int // index into the open file's hunks, -1 when no hunk is open

	oldLine, newLine           int
	oldRemaining, newRemaining int
}

func (p *parser) current() *File {
	return &p.files[p.file]
}

func (p *parser) currentHunk() *Hunk {
	return &p.current().Hunks[p.hunk]
}

func (p *parser) line(n int, line string) {
	if strings.HasPrefix(line, fileHeaderPrefix) {
		p.startFile(n, line[len(fileHeaderPrefix):])
		return
	}
	if p.file < 0 {
		return
	}
	if p.hunk >= 0 && p.expectsHunkLine(line) {
		p.hunkLine(line)
		return
	}

	f := p.current()
	switch {
	case strings.HasPrefix(line, "@@ "):
		p.startHunk(n, line)
	case strings.HasPrefix(line, noNewlinePrefix):
		p.markNoNewline()
	case strings.HasPrefix(line, "index "):
		f.Index = strings.TrimPrefix(line, "index ")
	case strings.HasPrefix(line, "new file mode "):
		f.IsNewFile = true
	case strings.HasPrefix(line, "deleted file mode "):
		f.IsDeletedFile = true
	case strings.HasPrefix(line, "old mode "):
		p.modeChange().OldMode = strings.TrimPrefix(line, "old mode ")
	case strings.HasPrefix(line, "new mode "):
		p.modeChange().NewMode = strings.TrimPrefix(line, "new mode ")
	case strings.HasPrefix(line, "rename from "):
		raw := strings.TrimPrefix(line, "rename from ")
		r := p.rename()
		r.RawFrom, r.From = raw, NormalizePath(raw)
		f.OldPath = r.From
	case strings.HasPrefix(line, "rename to "):
		raw := strings.TrimPrefix(line, "rename to ")
		r := p.rename()
		r.RawTo, r.To = raw, NormalizePath(raw)
		f.NewPath = r.To
	case strings.HasPrefix(line, "copy from "):
		f.OldPath = NormalizePath(strings.TrimPrefix(line, "copy from "))
	case strings.HasPrefix(line, "copy to "):
		f.NewPath = NormalizePath(strings.TrimPrefix(line, "copy to "))
	case strings.HasPrefix(line, "similarity index "):
		if m := similarityRe.FindStringSubmatch(line); m != nil {
			f.Similarity, _ = strconv.Atoi(m[1])
		}
	case strings.HasPrefix(line, "--- "):
		raw := headerPathValue(line[4:])
		f.RawOldPath, f.OldPath = raw, NormalizePath(raw)
		if f.OldPath == DevNull {
			f.IsNewFile = true
		}
		p.hunk = -1
	case strings.HasPrefix(line, "+++ "):
		raw := headerPathValue(line[4:])
		f.RawNewPath, f.NewPath = raw, NormalizePath(raw)
		if f.NewPath == DevNull {
			f.IsDeletedFile = true
		}
		p.hunk = -1
	case binaryFilesRe.MatchString(line), line == "GIT binary patch":
		f.IsBinary = true
		f.Hunks = nil
		p.hunk = -1
	default:
		if p.hunk >= 0 && line != "" {
			p.hunkLine(line)
		}
	}
}

func (p *parser) startFile(n int, remainder string) {
	p.hunk = -1
	rawOld, rawNew, ok := SplitHeaderPaths(remainder)
	if !ok {
		p.file = -1
		p.logger.Debug().Int("line", n).Str("header", remainder).Msg("skipping malformed diff header")
		return
	}
	p.files = append(p.files, File{
		OldPath:    NormalizePath(rawOld),
		NewPath:    NormalizePath(rawNew),
		RawOldPath: rawOld,
		RawNewPath: rawNew,
	})
	p.file = len(p.files) - 1
	f := p.current()
	if f.OldPath == DevNull {
		f.IsNewFile = true
	}
	if f.NewPath == DevNull {
		f.IsDeletedFile = true
	}
}

func (p *parser) startHunk(n int, line string) {
	f := p.current()
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil || f.IsBinary {
		p.hunk = -1
		p.logger.Debug().Int("line", n).Str("header", line).Msg("skipping hunk header")
		return
	}
	oldStart, err1 := strconv.Atoi(m[1])
	oldLines, err2 := hunkLength(m[2])
	newStart, err3 := strconv.Atoi(m[3])
	newLines, err4 := hunkLength(m[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		p.hunk = -1
		p.logger.Debug().Int("line", n).Str("header", line).Msg("skipping hunk header with invalid ranges")
		return
	}

	f.Hunks = append(f.Hunks, Hunk{
		Header:   line,
		OldStart: oldStart,
		OldLines: oldLines,
		NewStart: newStart,
		NewLines: newLines,
		Heading:  m[5],
		Lines:    []Line{},
	})
	p.hunk = len(f.Hunks) - 1
	p.oldLine, p.newLine = oldStart, newStart
	p.oldRemaining, p.newRemaining = oldLines, newLines
}

// expectsHunkLine reports whether line belongs to the open hunk according to
// the counts in its header. This keeps a removed "-- x" line from being read
// as a "--- " file header.
func (p *parser) expectsHunkLine(line string) bool {
	if line == "" {
		return p.oldRemaining > 0 && p.newRemaining > 0
	}
	switch line[0] {
	case ' ':
		return p.oldRemaining > 0 && p.newRemaining > 0
	case '-':
		return p.oldRemaining > 0
	case '+':
		return p.newRemaining > 0
	default:
		return false
	}
}

func (p *parser) hunkLine(line string) {
	h := p.currentHunk()
	kind, ok := classify(line)
	if !ok {
		return
	}
	content := ""
	if line != "" {
		content = line[1:]
	}
	l := Line{Kind: kind, Content: content}
	switch kind {
	case LineContext:
		l.OldLineNumber, l.NewLineNumber = p.oldLine, p.newLine
		p.oldLine++
		p.newLine++
		p.oldRemaining--
		p.newRemaining--
	case LineAdd:
		l.NewLineNumber = p.newLine
		p.newLine++
		p.newRemaining--
	case LineRemove:
		l.OldLineNumber = p.oldLine
		p.oldLine++
		p.oldRemaining--
	}
	h.Lines = append(h.Lines, l)
}

// classify maps a hunk body line to its kind. An empty line is an empty
// context line whose leading space was stripped in transit.
func classify(line string) (LineKind, bool) {
	if line == "" {
		return LineContext, true
	}
	switch line[0] {
	case ' ':
		return LineContext, true
	case '+':
		return LineAdd, true
	case '-':
		return LineRemove, true
	default:
		return 0, false
	}
}

func (p *parser) markNoNewline() {
	if p.hunk < 0 {
		return
	}
	h := p.currentHunk()
	if len(h.Lines) == 0 {
		return
	}
	h.Lines[len(h.Lines)-1].NoNewlineAtEndOfFile = true
}

func (p *parser) modeChange() *ModeChange {
	f := p.current()
	if f.ModeChange == nil {
		f.ModeChange = &ModeChange{}
	}
	return f.ModeChange
}

func (p *parser) rename() *Rename {
	f := p.current()
	if f.Rename == nil {
		f.Rename = &Rename{}
	}
	return f.Rename
}

func hunkLength(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}

// headerPathValue extracts the path from a "--- " or "+++ " value, dropping
// anything after a tab unless the path is quoted.
func headerPathValue(v string) string {
	if strings.HasPrefix(v, `"`) {
		return v
	}
	if i := strings.IndexByte(v, '\t'); i >= 0 {
		return v[:i]
	}
	return v
}
