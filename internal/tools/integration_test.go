// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"

	apperrors "reviewkit/internal/errors"
)

func toolCall(t *testing.T, name string, args map[string]interface{}) openai.ToolCall {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to encode arguments: %v", err)
	}
	return openai.ToolCall{
		ID:   "call-" + name,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: string(raw),
		},
	}
}

// TestReviewWorkflowIntegration drives glob, grep and read through tool
// calls the way a model exploring a change would.
func TestReviewWorkflowIntegration(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{
		"src/app.go":            "package app\n\n// TODO: handle errors\nfunc Run() {}\n",
		"src/app_test.go":       "package app\n",
		"docs/guide.md":         "# Guide\n",
		"node_modules/x/app.go": "// TODO: vendored\n",
	})
	ctx := context.Background()

	globRes := registry.ExecuteOpenAIToolCall(ctx, toolCall(t, ToolGlob, map[string]interface{}{"pattern": "src/**/*.go"}))
	if globRes.Error != nil {
		t.Fatalf("glob failed: %v", globRes.Error)
	}
	var globbed GlobResult
	if err := json.Unmarshal([]byte(globRes.Result), &globbed); err != nil {
		t.Fatalf("glob result is not JSON: %v", err)
	}
	if len(globbed.Matches) != 2 || globbed.Matches[0] != "src/app.go" {
		t.Fatalf("unexpected glob matches: %v", globbed.Matches)
	}

	grepRes := registry.ExecuteOpenAIToolCall(ctx, toolCall(t, ToolGrep, map[string]interface{}{"pattern": "todo", "flags": "i"}))
	if grepRes.Error != nil {
		t.Fatalf("grep failed: %v", grepRes.Error)
	}
	var grepped GrepResult
	if err := json.Unmarshal([]byte(grepRes.Result), &grepped); err != nil {
		t.Fatalf("grep result is not JSON: %v", err)
	}
	if len(grepped.Matches) != 1 {
		t.Fatalf("expected one match outside ignored dirs, got %+v", grepped.Matches)
	}
	hit := grepped.Matches[0]
	if hit.Path != "src/app.go" || hit.Line != 3 {
		t.Fatalf("unexpected match: %+v", hit)
	}

	readRes := registry.ExecuteOpenAIToolCall(ctx, toolCall(t, ToolRead, map[string]interface{}{"path": hit.Path}))
	if readRes.Error != nil {
		t.Fatalf("read failed: %v", readRes.Error)
	}
	var read ReadResult
	if err := json.Unmarshal([]byte(readRes.Result), &read); err != nil {
		t.Fatalf("read result is not JSON: %v", err)
	}
	if got := read.Content[hit.CharOffset : hit.CharOffset+int64(len(hit.MatchedText))]; got != hit.MatchedText {
		t.Fatalf("offset %d points at %q, want %q", hit.CharOffset, got, hit.MatchedText)
	}
}

func TestToolCallErrorsIntegration(t *testing.T) {
	registry := newTestRegistry(t, map[string]string{"a.txt": "alpha\n", "dir/b.txt": "beta\n"})
	ctx := context.Background()

	tests := []struct {
		name string
		call openai.ToolCall
		code apperrors.Code
	}{
		{"escape", toolCall(t, ToolRead, map[string]interface{}{"path": "../etc/passwd"}), apperrors.CodePathEscape},
		{"directory", toolCall(t, ToolRead, map[string]interface{}{"path": "dir"}), apperrors.CodeNotAFile},
		{"bad flags", toolCall(t, ToolGrep, map[string]interface{}{"pattern": "a", "flags": "x"}), apperrors.CodeInvalidRegexFlags},
		{"glob cwd is file", toolCall(t, ToolGlob, map[string]interface{}{"pattern": "*", "cwd": "a.txt"}), apperrors.CodeNotADirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := registry.ExecuteOpenAIToolCall(ctx, tt.call)
			requireCode(t, res.Error, tt.code)
			if res.Result == "" || res.Result[:7] != "Error: " {
				t.Fatalf("expected an error result, got %q", res.Result)
			}
		})
	}
}
