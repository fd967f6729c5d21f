package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	apperrors "reviewkit/internal/errors"
)

func TestReadFile(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"docs/readme.md": "# Title\n"})
	for _, candidate := range []string{
		"docs/readme.md",
		"./docs/../docs/readme.md",
		filepath.Join(registry.Root(), "docs", "readme.md"),
	} {
		result, err := registry.Read(context.Background(), ReadRequest{Path: candidate})
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", candidate, err)
		}
		if result.Path != "docs/readme.md" || result.Content != "# Title\n" {
			t.Fatalf("Read(%q) = %+v", candidate, result)
		}
	}
}

func TestReadRejectsPathEscape(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"a/b/c.txt": "x"})
	for _, candidate := range []string{
		"../outside.txt",
		"a/../../outside.txt",
		"a/b/../../../outside.txt",
		"a/b/../../../../../../../../etc/passwd",
		"/etc/passwd",
	} {
		_, err := registry.Read(context.Background(), ReadRequest{Path: candidate})
		requireCode(t, err, apperrors.CodePathEscape)
	}
}

func TestReadRejectsDirectory(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"dir/file.txt": "x"})
	_, err := registry.Read(context.Background(), ReadRequest{Path: "dir"})
	requireCode(t, err, apperrors.CodeNotAFile)
}

func TestReadMissingFile(t *testing.T) {
	registry := newTestRegistry(t, nil)
	_, err := registry.Read(context.Background(), ReadRequest{Path: "nope.txt"})
	requireCode(t, err, apperrors.CodeNotFound)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist in chain, got %v", err)
	}
	if strings.Contains(err.Error(), registry.Root()) {
		t.Fatalf("error leaks the root: %v", err)
	}
}

func TestReadRejectsSymlinks(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"real/file.txt": "secret"})
	root := registry.Root()
	symlink(t, filepath.Join(root, "real", "file.txt"), filepath.Join(root, "link.txt"))
	symlink(t, filepath.Join(root, "real"), filepath.Join(root, "linkdir"))

	for _, candidate := range []string{"link.txt", "linkdir/file.txt"} {
		_, err := registry.Read(context.Background(), ReadRequest{Path: candidate})
		requireCode(t, err, apperrors.CodeSymlinkRejected)
	}
}

func TestReadSizeLimit(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"big.txt": strings.Repeat("x", 64)})
	_, err := registry.Read(context.Background(), ReadRequest{Path: "big.txt", MaxBytes: 10})
	requireCode(t, err, apperrors.CodeSizeLimitExceeded)

	var sizeErr *apperrors.SizeLimitError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected SizeLimitError, got %v", err)
	}
	if sizeErr.Limit != 10 || sizeErr.Actual != 64 {
		t.Fatalf("unexpected size error %+v", sizeErr)
	}

	result, err := registry.Read(context.Background(), ReadRequest{Path: "big.txt", MaxBytes: 64})
	if err != nil || len(result.Content) != 64 {
		t.Fatalf("expected file at exactly the limit to be read, got %v", err)
	}
}

func TestReadConfiguredCap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", "abc")
	registry, err := NewRegistry(Options{Root: root, Limits: Limits{MaxReadBytes: 100}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	_, err = registry.Read(context.Background(), ReadRequest{Path: "f.txt", MaxBytes: 101})
	requireCode(t, err, apperrors.CodeInvalidArguments)

	if _, err := registry.Read(context.Background(), ReadRequest{Path: "f.txt"}); err != nil {
		t.Fatalf("default read size should clamp to the cap: %v", err)
	}
}

func TestReadEncodings(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{
		"latin1.txt": "caf\xe9",
		"utf16.txt":  "h\x00i\x00",
		"ascii.txt":  "ok\xff",
	})
	tests := []struct {
		path, encoding, want string
	}{
		{"latin1.txt", "latin1", "café"},
		{"latin1.txt", "binary", "café"},
		{"utf16.txt", "utf16le", "hi"},
		{"utf16.txt", "UCS2", "hi"},
		{"ascii.txt", "ascii", "ok�"},
	}
	for _, tt := range tests {
		result, err := registry.Read(context.Background(), ReadRequest{Path: tt.path, Encoding: tt.encoding})
		if err != nil {
			t.Fatalf("Read(%s, %s) failed: %v", tt.path, tt.encoding, err)
		}
		if result.Content != tt.want {
			t.Fatalf("Read(%s, %s) = %q, want %q", tt.path, tt.encoding, result.Content, tt.want)
		}
	}

	_, err := registry.Read(context.Background(), ReadRequest{Path: "latin1.txt", Encoding: "koi8"})
	requireCode(t, err, apperrors.CodeInvalidEncoding)
}

func TestReadHonoursContext(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"f.txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := registry.Read(ctx, ReadRequest{Path: "f.txt"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
