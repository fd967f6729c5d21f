package tools

import (
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	apperrors "reviewkit/internal/errors"
)

// DefaultEncoding is used when a tool call names no encoding.
const DefaultEncoding = "utf8"

// textEncoding decodes file content to UTF-8 and measures decoded text in
// its on-disk byte length.
type textEncoding struct {
	name string
	// decoder is nil for UTF-8, which is passed through unchanged.
	decoder func() transform.Transformer
	// width returns the on-disk size of a decoded rune. nil means the
	// decoded text is the on-disk text.
	width func(r rune) int
}

var encodings = map[string]textEncoding{
	"utf8": {name: "utf8"},
	"ascii": {
		name: "ascii",
		decoder: func() transform.Transformer {
			return transform.Chain(charmap.ISO8859_1.NewDecoder(), runes.Map(func(r rune) rune {
				if r > 0x7f {
					return utf8.RuneError
				}
				return r
			}))
		},
		width: singleByte,
	},
	"latin1": {
		name: "latin1",
		decoder: func() transform.Transformer {
			return charmap.ISO8859_1.NewDecoder()
		},
		width: singleByte,
	},
	"utf16le": {
		name: "utf16le",
		decoder: func() transform.Transformer {
			return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		},
		width: func(r rune) int {
			if r >= 0x10000 {
				return 4
			}
			return 2
		},
	},
}

var encodingAliases = map[string]string{
	"utf-8":    "utf8",
	"binary":   "latin1",
	"ucs2":     "utf16le",
	"ucs-2":    "utf16le",
	"utf-16le": "utf16le",
}

func singleByte(rune) int { return 1 }

// lookupEncoding validates an encoding name. An empty name selects UTF-8.
func lookupEncoding(name string) (textEncoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultEncoding
	}
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	enc, ok := encodings[key]
	if !ok {
		return textEncoding{}, apperrors.Newf(apperrors.CodeInvalidEncoding, "unsupported encoding %q (supported: %s)", name, strings.Join(SupportedEncodings(), ", "))
	}
	return enc, nil
}

// SupportedEncodings lists the accepted encoding names, aliases included.
func SupportedEncodings() []string {
	names := make([]string, 0, len(encodings)+len(encodingAliases))
	for name := range encodings {
		names = append(names, name)
	}
	for alias := range encodingAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

// reader wraps r so that it yields UTF-8.
func (e textEncoding) reader(r io.Reader) io.Reader {
	if e.decoder == nil {
		return r
	}
	return transform.NewReader(r, e.decoder())
}

// decode converts on-disk bytes to a string.
func (e textEncoding) decode(data []byte) (string, error) {
	if e.decoder == nil {
		return string(data), nil
	}
	out, _, err := transform.Bytes(e.decoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodedLen returns the on-disk byte length of decoded text s.
func (e textEncoding) encodedLen(s string) int {
	if e.width == nil {
		return len(s)
	}
	n := 0
	for _, r := range s {
		n += e.width(r)
	}
	return n
}
