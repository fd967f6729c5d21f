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
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "reviewkit/internal/errors"
	"reviewkit/internal/paths"
)

// Built-in tool names.
const (
	ToolRead = "read"
	ToolGlob = "glob"
	ToolGrep = "grep"
)

// DefaultAllowList enables every built-in tool.
var DefaultAllowList = []string{ToolRead, ToolGlob, ToolGrep}

// Options configures a Registry.
type Options struct {
	// Root is the directory every tool is confined to.
	Root   string
	Limits Limits
	// Allow lists the tools that may run. nil allows every built-in tool.
	Allow      []string
	Timeouts   TimeoutConfig
	RateLimits RateLimitConfig
	Logger     zerolog.Logger
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Function string
	Result   string
	Error    error
}

// ExecuteOptions controls how tool execution is handled.
type ExecuteOptions struct {
	// Force bypasses the allow list (use only after explicit user consent).
	Force bool
}

// Registry holds the sandbox root and the tools bound to it. Its tools,
// limits and allow list are fixed once NewRegistry returns. The one piece of
// state carried across calls is the per-tool rate limiter, which exists only
// when RateLimits configures one and is off by default. A Registry is safe
// for concurrent use.
type Registry struct {
	sandbox *paths.Sandbox
	limits  Limits
	logger  zerolog.Logger

	tools    map[string]Tool
	order    []string
	allowed  map[string]bool
	timeouts TimeoutConfig
	limiters map[string]*rate.Limiter
}

// NewRegistry resolves the root once and registers the built-in tools.
func NewRegistry(opts Options) (*Registry, error) {
	sandbox, err := paths.NewSandbox(opts.Root)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		sandbox:  sandbox,
		limits:   normalizeLimits(opts.Limits),
		logger:   opts.Logger.With().Str("component", "tools").Logger(),
		tools:    make(map[string]Tool),
		timeouts: opts.Timeouts,
	}
	if err := registerBuiltInTools(r); err != nil {
		return nil, err
	}
	r.limiters = newRateLimiters(opts.RateLimits, r.order)

	allow := opts.Allow
	if allow == nil {
		allow = DefaultAllowList
	}
	r.allowed = make(map[string]bool, len(allow))
	for _, name := range allow {
		name = strings.TrimSpace(name)
		if _, ok := r.tools[name]; !ok {
			r.logger.Warn().Str("tool", name).Msg("ignoring unknown tool in allow list")
			continue
		}
		r.allowed[name] = true
	}

	r.logger.Debug().Str("root", sandbox.Root()).Strs("allow", allow).Msg("tool registry ready")
	return r, nil
}

// register adds a tool during construction.
func (r *Registry) register(tool Tool) error {
	name := tool.Definition().Name
	if tool.Version() != HostAPIVersion {
		return fmt.Errorf("%w: %s (%s)", ErrIncompatibleTool, name, tool.Version())
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Root returns the absolute sandbox root.
func (r *Registry) Root() string {
	return r.sandbox.Root()
}

// Limits returns the effective limits.
func (r *Registry) Limits() Limits {
	return r.limits
}

// GetToolNames returns tool names in registration order.
func (r *Registry) GetToolNames() []string {
	return append([]string(nil), r.order...)
}

// GetTool returns a registered tool.
func (r *Registry) GetTool(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// IsAllowed reports whether a tool may run without Force.
func (r *Registry) IsAllowed(name string) bool {
	return r.allowed[name]
}

// OpenAITools returns the allowed tools as OpenAI tool definitions.
func (r *Registry) OpenAITools() []openai.Tool {
	defs := make([]openai.Tool, 0, len(r.order))
	for _, name := range r.order {
		if !r.allowed[name] {
			continue
		}
		def := r.tools[name].Definition()
		defs = append(defs, openai.Tool{Type: openai.ToolTypeFunction, Function: &def})
	}
	return defs
}

// Execute runs the specified tool with given arguments.
func (r *Registry) Execute(ctx context.Context, function string, args map[string]interface{}) *ToolResult {
	return r.ExecuteWithOptions(ctx, function, args, ExecuteOptions{})
}

// ExecuteWithOptions runs the tool using the provided options. Arguments are
// validated before any file system access.
func (r *Registry) ExecuteWithOptions(ctx context.Context, function string, args map[string]interface{}, opts ExecuteOptions) *ToolResult {
	result := &ToolResult{Function: function}

	tool, exists := r.tools[function]
	if !exists {
		result.Error = fmt.Errorf("%w: %s", ErrToolNotFound, function)
		result.Result = fmt.Sprintf("Error: Tool '%s' not found. Available tools: %v", function, r.GetToolNames())
		return result
	}
	if !opts.Force && !r.allowed[function] {
		result.Error = NewPermissionError(function, "not in the allow list")
		result.Result = fmt.Sprintf("Error: Tool '%s' is blocked by policy. Enable it to proceed.", function)
		return result
	}

	if err := tool.Validate(args); err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.CodeInvalidArguments, err.Error(), ErrInvalidArguments)
		}
		return failed(result, err)
	}

	if err := r.allowCall(function); err != nil {
		r.logger.Warn().Str("tool", function).Msg("tool call rate limited")
		return failed(result, err)
	}

	ctx, cancel := r.timeouts.withToolTimeout(ctx, function)
	defer cancel()
	out, err := tool.Execute(ctx, args)
	if err != nil {
		r.logger.Debug().Str("tool", function).Str("code", string(apperrors.CodeOf(err))).Err(err).Msg("tool failed")
		return failed(result, NewToolExecutionError(function, "", err))
	}
	result.Result = out
	return result
}

func failed(result *ToolResult, err error) *ToolResult {
	result.Error = err
	result.Result = "Error: " + err.Error()
	return result
}

// ExecuteOpenAIToolCall executes an OpenAI tool call payload.
func (r *Registry) ExecuteOpenAIToolCall(ctx context.Context, call openai.ToolCall) *ToolResult {
	return r.ExecuteOpenAIToolCallWithOptions(ctx, call, ExecuteOptions{})
}

// ExecuteOpenAIToolCallWithOptions executes a tool call with execution options.
func (r *Registry) ExecuteOpenAIToolCallWithOptions(ctx context.Context, call openai.ToolCall, opts ExecuteOptions) *ToolResult {
	name := call.Function.Name
	if name == "" {
		return failed(&ToolResult{Function: "unknown_tool"}, invalidArgs("tool call missing function name"))
	}
	args := map[string]interface{}{}
	if strings.TrimSpace(call.Function.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return failed(&ToolResult{Function: name}, invalidArgs("tool arguments are not a JSON object: %v", err))
		}
	}
	return r.ExecuteWithOptions(ctx, name, args, opts)
}

func encodeResult(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeToolExecution, "failed to encode tool result", err)
	}
	return string(raw), nil
}
