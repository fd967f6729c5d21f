package diff

import "testing"

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "src/app.go", want: "src/app.go"},
		{name: "escaped quote", raw: `say\"hi\".txt`, want: `say"hi".txt`},
		{name: "escaped single quote", raw: `it\'s.txt`, want: "it's.txt"},
		{name: "trailing escaped space", raw: `foo\ `, want: "foo "},
		{name: "tab newline cr", raw: `a\tb\nc\rd`, want: "a\tb\nc\rd"},
		{name: "backslash", raw: `a\\b`, want: `a\b`},
		{name: "octal space", raw: `dir\040name`, want: "dir name"},
		{name: "octal utf8 bytes", raw: `caf\303\251.txt`, want: "café.txt"},
		{name: "short octal", raw: `a\7b`, want: "a\x07b"},
		{name: "octal stops after three digits", raw: `\1011`, want: "A1"},
		{name: "unknown escape kept", raw: `a\qb`, want: `a\qb`},
		{name: "lone trailing backslash", raw: `a\`, want: `a\`},
		{name: "escaped backslash before octal digits", raw: `\\040`, want: `\040`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unescape(tt.raw); got != tt.want {
				t.Fatalf("Unescape(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"a/x y"`, "a/x y"},
		{`'a/x'`, "a/x"},
		{`"a/x'`, `"a/x'`},
		{`"`, `"`},
		{`a/"x"`, `a/"x"`},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := StripQuotes(tt.in); got != tt.want {
			t.Errorf("StripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"a/src/app.ts", "src/app.ts"},
		{"b/src/app.ts", "src/app.ts"},
		{"/dev/null", "/dev/null"},
		{`"/dev/null"`, "/dev/null"},
		{`a/dir\040name/file.txt`, "dir name/file.txt"},
		{`"b/with space.md"`, "with space.md"},
		{`a/docs/file\ with\ spaces.md`, "docs/file with spaces.md"},
		{"c/other.go", "c/other.go"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.raw); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePathMatchesUnescapeWithoutPrefix(t *testing.T) {
	for _, p := range []string{
		"src/main.go",
		`"quoted\tname"`,
		`x\303\251`,
		`'single'`,
		`trailing\ `,
		"",
	} {
		if got, want := NormalizePath(p), Unescape(StripQuotes(p)); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestSplitHeaderPaths(t *testing.T) {
	tests := []struct {
		name      string
		remainder string
		wantOld   string
		wantNew   string
		wantOK    bool
	}{
		{
			name:      "simple",
			remainder: "a/src/app.ts b/src/app.ts",
			wantOld:   "a/src/app.ts",
			wantNew:   "b/src/app.ts",
			wantOK:    true,
		},
		{
			name:      "escaped spaces stay in one token",
			remainder: `a/docs/file\ with\ spaces.md b/docs/file\ with\ spaces.md`,
			wantOld:   `a/docs/file\ with\ spaces.md`,
			wantNew:   `b/docs/file\ with\ spaces.md`,
			wantOK:    true,
		},
		{
			name:      "quoted paths with spaces",
			remainder: `"a/my file.txt" "b/my file.txt"`,
			wantOld:   `"a/my file.txt"`,
			wantNew:   `"b/my file.txt"`,
			wantOK:    true,
		},
		{
			name:      "escaped quote inside quotes",
			remainder: `"a/say\"hi\" x" "b/say\"hi\" x"`,
			wantOld:   `"a/say\"hi\" x"`,
			wantNew:   `"b/say\"hi\" x"`,
			wantOK:    true,
		},
		{
			name:      "consecutive spaces collapse",
			remainder: "a/x.go   b/x.go",
			wantOld:   "a/x.go",
			wantNew:   "b/x.go",
			wantOK:    true,
		},
		{
			name:      "dev null sides",
			remainder: "/dev/null b/new.go",
			wantOld:   "/dev/null",
			wantNew:   "b/new.go",
			wantOK:    true,
		},
		{name: "invalid header", remainder: "invalid header"},
		{name: "three tokens", remainder: "a/x b/y b/z"},
		{name: "one token", remainder: "a/x"},
		{name: "swapped prefixes", remainder: "b/x a/x"},
		{name: "empty", remainder: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOld, gotNew, ok := SplitHeaderPaths(tt.remainder)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if gotOld != tt.wantOld || gotNew != tt.wantNew {
				t.Fatalf("got (%q, %q), want (%q, %q)", gotOld, gotNew, tt.wantOld, tt.wantNew)
			}
		})
	}
}
