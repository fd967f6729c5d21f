package diff

import "strings"

// DevNull is the placeholder git uses for the missing side of an added or
// deleted file.
const DevNull = "/dev/null"

// escapeLexer decodes git's C-style quoted path escapes one token at a time.
type escapeLexer struct {
	src string
	pos int
	out []byte
}

func (l *escapeLexer) peek(offset int) (byte, bool) {
	i := l.pos + offset
	if i >= len(l.src) {
		return 0, false
	}
	return l.src[i], true
}

func (l *escapeLexer) run() string {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c != '\\' {
			l.out = append(l.out, c)
			l.pos++
			continue
		}
		l.escape()
	}
	return string(l.out)
}

// escape consumes a backslash sequence starting at l.pos.
func (l *escapeLexer) escape() {
	next, ok := l.peek(1)
	if !ok {
		l.out = append(l.out, '\\')
		l.pos++
		return
	}
	switch next {
	case '"', '\'', ' ', '\\':
		l.out = append(l.out, next)
		l.pos += 2
	case 't':
		l.out = append(l.out, '\t')
		l.pos += 2
	case 'n':
		l.out = append(l.out, '\n')
		l.pos += 2
	case 'r':
		l.out = append(l.out, '\r')
		l.pos += 2
	default:
		if isOctal(next) {
			l.octal()
			return
		}
		l.out = append(l.out, '\\', next)
		l.pos += 2
	}
}

// octal decodes \N, \NN or \NNN into a single byte.
func (l *escapeLexer) octal() {
	value := 0
	width := 0
	for width < 3 {
		d, ok := l.peek(1 + width)
		if !ok || !isOctal(d) {
			break
		}
		value = value*8 + int(d-'0')
		width++
	}
	l.out = append(l.out, byte(value))
	l.pos += 1 + width
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// Unescape decodes backslash escapes as written by git in quoted paths.
// Unknown escapes are kept verbatim.
func Unescape(raw string) string {
	if strings.IndexByte(raw, '\\') < 0 {
		return raw
	}
	l := &escapeLexer{src: raw, out: make([]byte, 0, len(raw))}
	return l.run()
}

// StripQuotes removes one matching pair of surrounding double or single quotes.
func StripQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}

// NormalizePath turns a raw header path into a usable one: quotes removed,
// escapes decoded and the a/ or b/ prefix stripped.
func NormalizePath(rawPath string) string {
	p := Unescape(StripQuotes(rawPath))
	if p == DevNull {
		return p
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// SplitHeaderPaths splits the remainder of a "diff --git " line into the raw
// old and new path tokens. Quoted regions and backslash escapes never split a
// token. It fails unless there are exactly two tokens with a/ and b/ (or
// /dev/null) prefixes.
func SplitHeaderPaths(remainder string) (rawOld, rawNew string, ok bool) {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(remainder); i++ {
		c := remainder[i]
		switch {
		case c == '\\':
			current.WriteByte(c)
			if i+1 < len(remainder) {
				i++
				current.WriteByte(remainder[i])
			}
		case c == '"':
			inQuotes = !inQuotes
			current.WriteByte(c)
		case c == ' ' && !inQuotes:
			flush()
		default:
			current.WriteByte(c)
		}
	}
	flush()

	if len(tokens) != 2 {
		return "", "", false
	}
	if !hasSidePrefix(tokens[0], "a/") || !hasSidePrefix(tokens[1], "b/") {
		return "", "", false
	}
	return tokens[0], tokens[1], true
}

func hasSidePrefix(token, prefix string) bool {
	p := StripQuotes(token)
	return p == DevNull || strings.HasPrefix(p, prefix)
}
