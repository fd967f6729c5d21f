package tools

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// snippetBudget is the maximum number of characters in a context snippet.
const snippetBudget = 160

const ellipsis = "…"

// lineStart records where a line begins in the scanned content.
type lineStart struct {
	number int   // 1-based
	index  int   // byte index into the decoded text
	char   int64 // code points before the line
	byte   int64 // on-disk bytes before the line
}

// lineCursor tracks the start of the current line while lines are consumed
// in order. Both grep strategies derive offsets from it.
type lineCursor struct {
	enc  textEncoding
	next lineStart
}

func newLineCursor(enc textEncoding) *lineCursor {
	return &lineCursor{enc: enc, next: lineStart{number: 1}}
}

// advance returns the start of raw, a line including its terminator, and
// moves the cursor past it.
func (c *lineCursor) advance(raw string) lineStart {
	start := c.next
	c.next = lineStart{
		number: start.number + 1,
		index:  start.index + len(raw),
		char:   start.char + int64(utf8.RuneCountInString(raw)),
		byte:   start.byte + int64(c.enc.encodedLen(raw)),
	}
	return start
}

// splitLineEnding separates a line from its "\n" or "\r\n" terminator.
func splitLineEnding(raw string) (body, ending string) {
	if strings.HasSuffix(raw, "\r\n") {
		return raw[:len(raw)-2], "\r\n"
	}
	if strings.HasSuffix(raw, "\n") {
		return raw[:len(raw)-1], "\n"
	}
	return raw, ""
}

// lineIndex is the table of line starts for a whole decoded buffer. Matching
// runs against view, the text with each "\r\n" folded to "\n", so a
// full-buffer scan sees the same line bodies as a streaming one.
type lineIndex struct {
	text   string
	view   string
	starts []lineStart
	views  []int // byte index of each line in view
}

func buildLineIndex(text string, enc textEncoding) *lineIndex {
	idx := &lineIndex{text: text}
	cursor := newLineCursor(enc)
	var view strings.Builder
	view.Grow(len(text))
	rest := text
	for {
		i := strings.IndexByte(rest, '\n')
		raw := rest
		if i >= 0 {
			raw = rest[:i+1]
		}
		idx.starts = append(idx.starts, cursor.advance(raw))
		idx.views = append(idx.views, view.Len())
		body, ending := splitLineEnding(raw)
		view.WriteString(body)
		if ending != "" {
			view.WriteByte('\n')
		}
		if i < 0 {
			break
		}
		rest = rest[i+1:]
	}
	idx.view = view.String()
	return idx
}

// locate maps byte index i of the view to its line and the byte offset of i
// within that line.
func (idx *lineIndex) locate(i int) (lineStart, int) {
	n := sort.Search(len(idx.views), func(k int) bool {
		return idx.views[k] > i
	})
	if n > 0 {
		n--
	}
	return idx.starts[n], i - idx.views[n]
}

// raw returns line ls including its terminator.
func (idx *lineIndex) raw(ls lineStart) string {
	rest := idx.text[ls.index:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i+1]
	}
	return rest
}

// matchAt builds a match starting at byte start of raw, the line beginning
// at ls. end may run past the line for matches that span lines, in which
// case text holds the full matched text.
func matchAt(enc textEncoding, rel string, ls lineStart, raw string, start, end int, text string) GrepMatch {
	prefix := raw[:start]
	column := utf8.RuneCountInString(prefix)
	body, _ := splitLineEnding(raw)
	return GrepMatch{
		Path:           rel,
		Line:           ls.number,
		Column:         column + 1,
		MatchedText:    text,
		ContextSnippet: snippet(body, min(start, len(body)), min(end, len(body))),
		CharOffset:     ls.char + int64(column),
		ByteOffset:     ls.byte + int64(enc.encodedLen(prefix)),
	}
}

// snippet trims line to the snippet budget, keeping the match centred and
// marking trimmed ends with an ellipsis.
func snippet(line string, start, end int) string {
	total := utf8.RuneCountInString(line)
	if total <= snippetBudget {
		return line
	}
	matchStart := utf8.RuneCountInString(line[:start])
	matchLen := utf8.RuneCountInString(line[start:end])
	from := matchStart + matchLen/2 - snippetBudget/2
	if matchLen >= snippetBudget {
		from = matchStart
	}
	from = max(0, min(from, total-snippetBudget))
	to := from + snippetBudget

	runes := []rune(line)
	out := string(runes[from:to])
	if from > 0 {
		out = ellipsis + out
	}
	if to < total {
		out += ellipsis
	}
	return out
}
