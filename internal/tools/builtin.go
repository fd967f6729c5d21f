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

import "context"

// ReadArgs are the arguments of the read tool.
type ReadArgs struct {
	Path     string `json:"path" jsonschema:"description=File path (absolute or relative to the repository root),minLength=1" validate:"required"`
	Encoding string `json:"encoding,omitempty" jsonschema:"description=Text encoding of the file,enum=utf8,enum=utf-8,enum=ascii,enum=latin1,enum=binary,enum=utf16le,enum=ucs2,default=utf8"`
	MaxBytes int64  `json:"maxBytes,omitempty" jsonschema:"description=Largest file size in bytes to accept,minimum=1,default=200000" validate:"omitempty,min=1"`
}

// GlobArgs are the arguments of the glob tool.
type GlobArgs struct {
	Pattern    string `json:"pattern" jsonschema:"description=Glob pattern supporting * ? [...] brace alternatives and **,minLength=1" validate:"required"`
	Cwd        string `json:"cwd,omitempty" jsonschema:"description=Directory relative to the repository root that the pattern starts from"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=Maximum number of paths to return,minimum=1,default=250" validate:"omitempty,min=1"`
}

// GrepArgs are the arguments of the grep tool.
type GrepArgs struct {
	Pattern    string   `json:"pattern" jsonschema:"description=Regular expression (RE2 syntax),minLength=1" validate:"required"`
	Flags      string   `json:"flags,omitempty" jsonschema:"description=Regex flags drawn from g i m s u"`
	Path       PathList `json:"path,omitempty" jsonschema:"description=File or directory paths to search; defaults to the whole repository,oneof_type=string;array"`
	MaxResults int      `json:"maxResults,omitempty" jsonschema:"description=Maximum number of matches to return,minimum=1,default=200" validate:"omitempty,min=1"`
	Encoding   string   `json:"encoding,omitempty" jsonschema:"description=Text encoding of the files,enum=utf8,enum=utf-8,enum=ascii,enum=latin1,enum=binary,enum=utf16le,enum=ucs2,default=utf8"`
}

// registerBuiltInTools registers the read-only repository tools.
func registerBuiltInTools(r *Registry) error {
	builtins := []Tool{
		&FuncTool{
			Def:   argsFunction[ReadArgs](ToolRead, "Read a text file inside the repository"),
			Run:   r.readTool,
			Check: ChainValidation(RequireStringArg("path", "missing or invalid 'path' parameter"), validateReadArgs(r.limits)),
		},
		&FuncTool{
			Def:   argsFunction[GlobArgs](ToolGlob, "Find files in the repository by glob pattern"),
			Run:   r.globTool,
			Check: ChainValidation(RequireStringArg("pattern", "missing or invalid 'pattern' parameter"), validateGlobArgs(r.limits)),
		},
		&FuncTool{
			Def:   argsFunction[GrepArgs](ToolGrep, "Search file contents in the repository with a regular expression"),
			Run:   r.grepTool,
			Check: validateGrepArgs(r.limits),
		},
	}
	for _, tool := range builtins {
		if err := r.register(tool); err != nil {
			return err
		}
	}
	return nil
}

func validateReadArgs(limits Limits) ValidationRule {
	return func(args map[string]interface{}) error {
		parsed, err := unmarshalAndValidate[ReadArgs](args)
		if err != nil {
			return err
		}
		if _, err := lookupEncoding(parsed.Encoding); err != nil {
			return err
		}
		_, err = limits.readBytes(parsed.MaxBytes)
		return err
	}
}

func validateGlobArgs(limits Limits) ValidationRule {
	return func(args map[string]interface{}) error {
		parsed, err := unmarshalAndValidate[GlobArgs](args)
		if err != nil {
			return err
		}
		if _, err := compileGlob(parsed.Pattern); err != nil {
			return err
		}
		_, err = capResults("maxResults", parsed.MaxResults, DefaultGlobResults, limits.MaxGlobResults)
		return err
	}
}

func validateGrepArgs(limits Limits) ValidationRule {
	return func(args map[string]interface{}) error {
		parsed, err := unmarshalAndValidate[GrepArgs](args)
		if err != nil {
			return err
		}
		if _, _, err := compileGrep(parsed.Pattern, parsed.Flags); err != nil {
			return err
		}
		if _, err := lookupEncoding(parsed.Encoding); err != nil {
			return err
		}
		_, err = capResults("maxResults", parsed.MaxResults, DefaultGrepResults, limits.MaxGrepResults)
		return err
	}
}

func (r *Registry) readTool(ctx context.Context, args map[string]interface{}) (string, error) {
	parsed, err := unmarshalAndValidate[ReadArgs](args)
	if err != nil {
		return "", invalidArgs("%v", err)
	}
	result, err := r.Read(ctx, ReadRequest{Path: parsed.Path, Encoding: parsed.Encoding, MaxBytes: parsed.MaxBytes})
	if err != nil {
		return "", err
	}
	return encodeResult(result)
}

func (r *Registry) globTool(ctx context.Context, args map[string]interface{}) (string, error) {
	parsed, err := unmarshalAndValidate[GlobArgs](args)
	if err != nil {
		return "", invalidArgs("%v", err)
	}
	result, err := r.Glob(ctx, GlobRequest{Pattern: parsed.Pattern, Cwd: parsed.Cwd, MaxResults: parsed.MaxResults})
	if err != nil {
		return "", err
	}
	return encodeResult(result)
}

func (r *Registry) grepTool(ctx context.Context, args map[string]interface{}) (string, error) {
	parsed, err := unmarshalAndValidate[GrepArgs](args)
	if err != nil {
		return "", invalidArgs("%v", err)
	}
	result, err := r.Grep(ctx, GrepRequest{
		Pattern:    parsed.Pattern,
		Flags:      parsed.Flags,
		Paths:      parsed.Path,
		MaxResults: parsed.MaxResults,
		Encoding:   parsed.Encoding,
	})
	if err != nil {
		return "", err
	}
	return encodeResult(result)
}
