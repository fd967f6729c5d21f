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
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/567-labs/instructor-go/pkg/instructor"
	"github.com/sashabaranov/go-openai"
)

// argsFunction describes a tool whose arguments decode into T. The
// parameter schema is generated from T's json and jsonschema tags.
func argsFunction[T any](name, description string) openai.FunctionDefinition {
	params, err := argsSchema(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %s: %v", name, err))
	}
	return openai.FunctionDefinition{
		Name:        name,
		Description: description,
		Parameters:  params,
	}
}

// argsSchema returns the parameters object instructor derives for t, as a
// plain map that go-openai encodes verbatim.
func argsSchema(t reflect.Type) (map[string]interface{}, error) {
	schema, err := instructor.NewSchema(t)
	if err != nil {
		return nil, err
	}
	for _, fn := range schema.Functions {
		if fn.Name != t.Name() {
			continue
		}
		raw, err := json.Marshal(fn.Parameters)
		if err != nil {
			return nil, err
		}
		var params map[string]interface{}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, err
		}
		return params, nil
	}
	return nil, fmt.Errorf("no function schema named %q", t.Name())
}
