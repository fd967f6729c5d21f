package diff

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func patch(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ParsedDiff
	}{
		{
			name:  "empty diff",
			input: "",
			want:  ParsedDiff{},
		},
		{
			name: "simple file modification",
			input: patch(
				"diff --git a/hello.go b/hello.go",
				"index 1234567..abcdef0 100644",
				"--- a/hello.go",
				"+++ b/hello.go",
				"@@ -1,4 +1,5 @@",
				" package main",
				" ",
				" func main() {",
				"-\tfmt.Println(\"hello\")",
				"+\tfmt.Println(\"hello, world\")",
				"+\tfmt.Println(\"goodbye\")",
				" }",
			),
			want: ParsedDiff{{
				OldPath:    "hello.go",
				NewPath:    "hello.go",
				RawOldPath: "a/hello.go",
				RawNewPath: "b/hello.go",
				Index:      "1234567..abcdef0 100644",
				Hunks: []Hunk{{
					Header:   "@@ -1,4 +1,5 @@",
					OldStart: 1, OldLines: 4, NewStart: 1, NewLines: 5,
					Lines: []Line{
						{Kind: LineContext, Content: "package main", OldLineNumber: 1, NewLineNumber: 1},
						{Kind: LineContext, Content: "", OldLineNumber: 2, NewLineNumber: 2},
						{Kind: LineContext, Content: "func main() {", OldLineNumber: 3, NewLineNumber: 3},
						{Kind: LineRemove, Content: "\tfmt.Println(\"hello\")", OldLineNumber: 4},
						{Kind: LineAdd, Content: "\tfmt.Println(\"hello, world\")", NewLineNumber: 4},
						{Kind: LineAdd, Content: "\tfmt.Println(\"goodbye\")", NewLineNumber: 5},
						{Kind: LineContext, Content: "}", OldLineNumber: 5, NewLineNumber: 6},
					},
				}},
			}},
		},
		{
			name: "new file",
			input: patch(
				"diff --git a/new.txt b/new.txt",
				"new file mode 100644",
				"index 0000000..1234567",
				"--- /dev/null",
				"+++ b/new.txt",
				"@@ -0,0 +1,2 @@",
				"+line one",
				"+line two",
			),
			want: ParsedDiff{{
				OldPath:    DevNull,
				NewPath:    "new.txt",
				RawOldPath: DevNull,
				RawNewPath: "b/new.txt",
				Index:      "0000000..1234567",
				IsNewFile:  true,
				Hunks: []Hunk{{
					Header:   "@@ -0,0 +1,2 @@",
					OldStart: 0, OldLines: 0, NewStart: 1, NewLines: 2,
					Lines: []Line{
						{Kind: LineAdd, Content: "line one", NewLineNumber: 1},
						{Kind: LineAdd, Content: "line two", NewLineNumber: 2},
					},
				}},
			}},
		},
		{
			name: "pure rename",
			input: patch(
				"diff --git a/old/name.go b/new/name.go",
				"similarity index 100%",
				"rename from old/name.go",
				"rename to new/name.go",
			),
			want: ParsedDiff{{
				OldPath:    "old/name.go",
				NewPath:    "new/name.go",
				RawOldPath: "a/old/name.go",
				RawNewPath: "b/new/name.go",
				Similarity: 100,
				Rename: &Rename{
					From: "old/name.go", To: "new/name.go",
					RawFrom: "old/name.go", RawTo: "new/name.go",
				},
			}},
		},
		{
			name: "mode change",
			input: patch(
				"diff --git a/run.sh b/run.sh",
				"old mode 100644",
				"new mode 100755",
			),
			want: ParsedDiff{{
				OldPath:    "run.sh",
				NewPath:    "run.sh",
				RawOldPath: "a/run.sh",
				RawNewPath: "b/run.sh",
				ModeChange: &ModeChange{OldMode: "100644", NewMode: "100755"},
			}},
		},
		{
			name: "binary file",
			input: patch(
				"diff --git a/logo.png b/logo.png",
				"index 1111111..2222222 100644",
				"Binary files a/logo.png and b/logo.png differ",
			),
			want: ParsedDiff{{
				OldPath:    "logo.png",
				NewPath:    "logo.png",
				RawOldPath: "a/logo.png",
				RawNewPath: "b/logo.png",
				Index:      "1111111..2222222 100644",
				IsBinary:   true,
			}},
		},
		{
			name: "hunk without lengths and with heading",
			input: patch(
				"diff --git a/a.go b/a.go",
				"--- a/a.go",
				"+++ b/a.go",
				"@@ -7 +7 @@ func run() error {",
				"-\treturn nil",
				"+\treturn err",
			),
			want: ParsedDiff{{
				OldPath:    "a.go",
				NewPath:    "a.go",
				RawOldPath: "a/a.go",
				RawNewPath: "b/a.go",
				Hunks: []Hunk{{
					Header:   "@@ -7 +7 @@ func run() error {",
					OldStart: 7, OldLines: 1, NewStart: 7, NewLines: 1,
					Heading: "func run() error {",
					Lines: []Line{
						{Kind: LineRemove, Content: "\treturn nil", OldLineNumber: 7},
						{Kind: LineAdd, Content: "\treturn err", NewLineNumber: 7},
					},
				}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseReplacementWithNoNewlineMarker(t *testing.T) {
	input := patch(
		"diff --git a/src/app.ts b/src/app.ts",
		"--- a/src/app.ts",
		"+++ b/src/app.ts",
		"@@ -1,3 +1,4 @@",
		" const a = 1;",
		"-const b = 2;",
		"-const c = 3;",
		"+const b = 20;",
		"+const c = 30;",
		"+const d = 40;",
		`\ No newline at end of file`,
	)
	files := Parse(input)
	if len(files) != 1 || len(files[0].Hunks) != 1 {
		t.Fatalf("expected one file with one hunk, got %+v", files)
	}
	lines := files[0].Hunks[0].Lines
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if l.Kind == LineRemove && (l.OldLineNumber == 0 || l.NewLineNumber != 0 || l.HasNewLineNumber()) {
			t.Fatalf("remove line must carry only an old line number: %+v", l)
		}
	}
	last := lines[len(lines)-1]
	if last.Kind != LineAdd || !last.NoNewlineAtEndOfFile {
		t.Fatalf("expected last added line flagged noNewlineAtEndOfFile, got %+v", last)
	}
	for _, l := range lines[:len(lines)-1] {
		if l.NoNewlineAtEndOfFile {
			t.Fatalf("only the last line should be flagged: %+v", l)
		}
	}
}

func TestParseDeletedFile(t *testing.T) {
	input := patch(
		"diff --git a/old.txt b/old.txt",
		"deleted file mode 100644",
		"index 1234567..0000000",
		"--- a/old.txt",
		"+++ /dev/null",
		"@@ -1,2 +0,0 @@",
		"-goodbye",
		"-world",
	)
	files := Parse(input)
	if len(files) != 1 {
		t.Fatalf("expected one file, got %d", len(files))
	}
	f := files[0]
	if !f.IsDeletedFile || f.IsNewFile {
		t.Fatalf("expected deleted file, got %+v", f)
	}
	if f.NewPath != DevNull || f.Path() != "old.txt" {
		t.Fatalf("unexpected paths: new=%q path=%q", f.NewPath, f.Path())
	}
	for _, l := range f.Hunks[0].Lines {
		if l.NewLineNumber != 0 || l.HasNewLineNumber() {
			t.Fatalf("deleted file line has a new-side number: %+v", l)
		}
	}
}

func TestParseLineCountersAdvance(t *testing.T) {
	input := patch(
		"diff --git a/f b/f",
		"--- a/f",
		"+++ b/f",
		"@@ -10,4 +20,4 @@",
		" a",
		"-b",
		"+c",
		" d",
		"-e",
		"+f",
	)
	want := []Line{
		{Kind: LineContext, Content: "a", OldLineNumber: 10, NewLineNumber: 20},
		{Kind: LineRemove, Content: "b", OldLineNumber: 11},
		{Kind: LineAdd, Content: "c", NewLineNumber: 21},
		{Kind: LineContext, Content: "d", OldLineNumber: 12, NewLineNumber: 22},
		{Kind: LineRemove, Content: "e", OldLineNumber: 13},
		{Kind: LineAdd, Content: "f", NewLineNumber: 23},
	}
	got := Parse(input)[0].Hunks[0].Lines
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMultipleFilesAndHunks(t *testing.T) {
	input := patch(
		"diff --git a/one.go b/one.go",
		"--- a/one.go",
		"+++ b/one.go",
		"@@ -1,2 +1,2 @@",
		"-x",
		"+y",
		" z",
		"@@ -10 +10,2 @@",
		" keep",
		"+more",
		"diff --git a/two.go b/two.go",
		"--- a/two.go",
		"+++ b/two.go",
		"@@ -3 +3 @@",
		"-old",
		"+new",
	)
	files := Parse(input)
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].NewPath != "one.go" || files[1].NewPath != "two.go" {
		t.Fatalf("unexpected order: %q, %q", files[0].NewPath, files[1].NewPath)
	}
	if len(files[0].Hunks) != 2 {
		t.Fatalf("expected 2 hunks in first file, got %d", len(files[0].Hunks))
	}
	second := files[0].Hunks[1]
	if second.OldLines != 1 || second.NewLines != 2 || len(second.Lines) != 2 {
		t.Fatalf("unexpected second hunk: %+v", second)
	}
	if got := files.Stats(); got != (Stats{Files: 2, Additions: 3, Deletions: 2}) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestParseSkipsMalformedHeader(t *testing.T) {
	input := patch(
		"diff --git invalid header",
		"--- a/ghost.go",
		"+++ b/ghost.go",
		"@@ -1 +1 @@",
		"-a",
		"+b",
		"diff --git a/real.go b/real.go",
		"--- a/real.go",
		"+++ b/real.go",
		"@@ -1 +1 @@",
		"-c",
		"+d",
	)
	var buf bytes.Buffer
	files := ParseWithLogger(input, zerolog.New(&buf).Level(zerolog.DebugLevel))
	if len(files) != 1 || files[0].NewPath != "real.go" {
		t.Fatalf("expected only real.go, got %+v", files)
	}
	if !strings.Contains(buf.String(), "malformed diff header") {
		t.Fatalf("expected debug log for malformed header, got %q", buf.String())
	}
}

func TestParseIgnoresLinesOutsideFiles(t *testing.T) {
	input := patch(
		"From 1234 Mon Sep 17 00:00:00 2001",
		"Subject: [PATCH] change",
		"@@ -1 +1 @@",
		"+orphan",
		"diff --git a/x b/x",
		"+stray before hunk",
		"@@ -1 +1 @@",
		"-a",
		"+b",
	)
	files := Parse(input)
	if len(files) != 1 || len(files[0].Hunks) != 1 || len(files[0].Hunks[0].Lines) != 2 {
		t.Fatalf("unexpected parse: %+v", files)
	}
}

func TestParseRemovedLineLookingLikeHeader(t *testing.T) {
	input := patch(
		"diff --git a/schema.sql b/schema.sql",
		"--- a/schema.sql",
		"+++ b/schema.sql",
		"@@ -1,2 +1,2 @@",
		"--- old comment",
		"+++ new comment",
		" select 1;",
	)
	f := Parse(input)[0]
	if f.OldPath != "schema.sql" || f.NewPath != "schema.sql" {
		t.Fatalf("paths overwritten by hunk lines: %q %q", f.OldPath, f.NewPath)
	}
	lines := f.Hunks[0].Lines
	if len(lines) != 3 || lines[0].Content != "-- old comment" || lines[1].Content != "++ new comment" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestParseCRLFAndEscapedPaths(t *testing.T) {
	input := strings.Join([]string{
		`diff --git "a/dir\040name/caf\303\251.txt" "b/dir\040name/caf\303\251.txt"`,
		`--- "a/dir\040name/caf\303\251.txt"`,
		`+++ "b/dir\040name/caf\303\251.txt"`,
		"@@ -1 +1 @@",
		"-a",
		"+b",
	}, "\r\n") + "\r\n"
	f := Parse(input)[0]
	if f.NewPath != "dir name/café.txt" {
		t.Fatalf("unexpected normalized path %q", f.NewPath)
	}
	if f.RawNewPath != `"b/dir\040name/caf\303\251.txt"` {
		t.Fatalf("raw path not preserved: %q", f.RawNewPath)
	}
	if got := f.Hunks[0].Lines[1].Content; got != "b" {
		t.Fatalf("carriage return leaked into content: %q", got)
	}
}

func TestParseHeaderPathWithTab(t *testing.T) {
	input := patch(
		"diff --git a/my file.txt b/my file.txt",
		"--- a/my file.txt\t",
		"+++ b/my file.txt\t",
	)
	files := Parse(input)
	// The diff --git line has four space-separated tokens and is skipped.
	if len(files) != 0 {
		t.Fatalf("expected ambiguous header to be skipped, got %+v", files)
	}

	input = patch(
		`diff --git a/my\ file.txt b/my\ file.txt`,
		"--- a/my file.txt\t2024-01-01 00:00:00",
		"+++ b/my file.txt\t2024-01-01 00:00:00",
	)
	f := Parse(input)[0]
	if f.OldPath != "my file.txt" || f.NewPath != "my file.txt" {
		t.Fatalf("unexpected paths %q %q", f.OldPath, f.NewPath)
	}
}

func TestLineKindJSON(t *testing.T) {
	data, err := json.Marshal(Line{Kind: LineRemove, Content: "x", OldLineNumber: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"kind":"remove","content":"x","oldLineNumber":3}` {
		t.Fatalf("unexpected JSON %s", data)
	}
	var l Line
	if err := json.Unmarshal(data, &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.Kind != LineRemove {
		t.Fatalf("kind = %v", l.Kind)
	}
}
