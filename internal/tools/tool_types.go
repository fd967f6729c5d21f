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

	"github.com/sashabaranov/go-openai"
)

// HostAPIVersion is the tool contract this registry implements. Tools built
// against another version are refused at registration.
const HostAPIVersion = "v1"

// ExecutorFunc runs a tool with already-validated arguments and returns the
// JSON text handed back to the model.
type ExecutorFunc func(ctx context.Context, args map[string]interface{}) (string, error)

// Tool is one operation a model may call.
type Tool interface {
	Definition() openai.FunctionDefinition
	Validate(args map[string]interface{}) error
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
	Version() string
}

// FuncTool builds a Tool from a definition and plain functions. A nil Check
// accepts any arguments; an empty APIVersion means HostAPIVersion.
type FuncTool struct {
	Def        openai.FunctionDefinition
	Run        ExecutorFunc
	Check      ValidationRule
	APIVersion string
}

func (t *FuncTool) Definition() openai.FunctionDefinition {
	return t.Def
}

func (t *FuncTool) Validate(args map[string]interface{}) error {
	if t.Check == nil {
		return nil
	}
	return t.Check(args)
}

func (t *FuncTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.Run == nil {
		return "", nil
	}
	return t.Run(ctx, args)
}

func (t *FuncTool) Version() string {
	if t.APIVersion == "" {
		return HostAPIVersion
	}
	return t.APIVersion
}
