package diff

import "fmt"

// LineKind tags a hunk line. It is a closed set: every switch over a
// LineKind handles all three values.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdd
	LineRemove
)

func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineAdd:
		return "add"
	case LineRemove:
		return "remove"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name so JSON output reads "add", not 1.
func (k LineKind) MarshalText() ([]byte, error) {
	switch k {
	case LineContext, LineAdd, LineRemove:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown line kind %d", int(k))
	}
}

// UnmarshalText decodes a kind name.
func (k *LineKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "context":
		*k = LineContext
	case "add":
		*k = LineAdd
	case "remove":
		*k = LineRemove
	default:
		return fmt.Errorf("unknown line kind %q", text)
	}
	return nil
}

// Line is a single line inside a hunk. Line numbers are zero when the kind
// has no number on that side.
type Line struct {
	Kind                 LineKind `json:"kind"`
	Content              string   `json:"content"`
	OldLineNumber        int      `json:"oldLineNumber,omitempty"`
	NewLineNumber        int      `json:"newLineNumber,omitempty"`
	NoNewlineAtEndOfFile bool     `json:"noNewlineAtEndOfFile,omitempty"`
}

// HasOldLineNumber reports whether the line exists on the old side.
func (l Line) HasOldLineNumber() bool {
	switch l.Kind {
	case LineContext, LineRemove:
		return true
	case LineAdd:
		return false
	default:
		panic(fmt.Sprintf("diff: unhandled line kind %v", l.Kind))
	}
}

// HasNewLineNumber reports whether the line exists on the new side.
func (l Line) HasNewLineNumber() bool {
	switch l.Kind {
	case LineContext, LineAdd:
		return true
	case LineRemove:
		return false
	default:
		panic(fmt.Sprintf("diff: unhandled line kind %v", l.Kind))
	}
}

// Hunk is one "@@ -a,b +c,d @@" block.
type Hunk struct {
	Header   string `json:"header"`
	OldStart int    `json:"oldStart"`
	OldLines int    `json:"oldLines"`
	NewStart int    `json:"newStart"`
	NewLines int    `json:"newLines"`
	Heading  string `json:"heading,omitempty"`
	Lines    []Line `json:"lines"`
}

// Rename records a "rename from"/"rename to" pair.
type Rename struct {
	From    string `json:"from"`
	To      string `json:"to"`
	RawFrom string `json:"rawFrom"`
	RawTo   string `json:"rawTo"`
}

// ModeChange records an "old mode"/"new mode" pair.
type ModeChange struct {
	OldMode string `json:"oldMode"`
	NewMode string `json:"newMode"`
}

// File is one file section of a patch.
type File struct {
	OldPath       string      `json:"oldPath"`
	NewPath       string      `json:"newPath"`
	RawOldPath    string      `json:"rawOldPath"`
	RawNewPath    string      `json:"rawNewPath"`
	Hunks         []Hunk      `json:"hunks"`
	IsBinary      bool        `json:"isBinary"`
	IsNewFile     bool        `json:"isNewFile"`
	IsDeletedFile bool        `json:"isDeletedFile"`
	Rename        *Rename     `json:"rename,omitempty"`
	ModeChange    *ModeChange `json:"modeChange,omitempty"`
	Index         string      `json:"index,omitempty"`
	Similarity    int         `json:"similarity,omitempty"`
}

// Path returns the path a reviewer would refer to: the new path, or the old
// one for deleted files.
func (f File) Path() string {
	if f.IsDeletedFile || f.NewPath == DevNull {
		return f.OldPath
	}
	return f.NewPath
}

// ParsedDiff is the ordered list of files in a patch.
type ParsedDiff []File

// Stats summarises a parsed diff.
type Stats struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Stats counts files and added/removed lines.
func (d ParsedDiff) Stats() Stats {
	s := Stats{Files: len(d)}
	for _, f := range d {
		for _, h := range f.Hunks {
			for _, l := range h.Lines {
				switch l.Kind {
				case LineAdd:
					s.Additions++
				case LineRemove:
					s.Deletions++
				case LineContext:
				}
			}
		}
	}
	return s
}
