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

package config

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaJSON returns the JSON schema for the configuration file.
func SchemaJSON() string {
	return configSchemaJSON
}

// ExampleConfigJSON returns a minimal example config derived from the schema.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

func normalizeConfig(data []byte, fromYAML bool) ([]byte, error) {
	var raw map[string]interface{}
	if fromYAML {
		decoded, err := decodeYAML(data)
		if err != nil {
			return nil, err
		}
		raw = decoded
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := validateConfigMap(raw, ""); err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindStringList
	kindSection
)

// field describes one accepted config key. fields is set for sections only.
type field struct {
	kind   fieldKind
	fields map[string]field
}

var configFields = map[string]field{
	"root": {kind: kindString},
	"tools": {kind: kindSection, fields: map[string]field{
		"allow":           {kind: kindStringList},
		"timeout_seconds": {kind: kindNumber},
		"rate_per_minute": {kind: kindNumber},
	}},
	"limits": {kind: kindSection, fields: map[string]field{
		"max_read_bytes":      {kind: kindNumber},
		"max_file_size_bytes": {kind: kindNumber},
		"max_glob_results":    {kind: kindNumber},
		"max_grep_results":    {kind: kindNumber},
	}},
	"logging": {kind: kindSection, fields: map[string]field{
		"level": {kind: kindString},
		"file":  {kind: kindString},
	}},
}

func validateConfigMap(raw map[string]interface{}, prefix string) error {
	return checkFields(raw, configFields, prefix)
}

// checkFields rejects unknown keys and wrongly typed values. Keys are
// visited in sorted order so the first error reported is stable.
func checkFields(raw map[string]interface{}, fields map[string]field, prefix string) error {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		spec, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown configuration field %q", prefix+key)
		}
		if err := spec.check(raw[key], prefix+key); err != nil {
			return err
		}
	}
	return nil
}

func (f field) check(value interface{}, name string) error {
	switch f.kind {
	case kindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s must be a string", name)
		}
	case kindNumber:
		// JSON decodes numbers as float64, YAML as int.
		switch value.(type) {
		case float64, int, int64, uint64:
		default:
			return fmt.Errorf("%s must be a number", name)
		}
	case kindStringList:
		list, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("%s must be an array of strings", name)
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("%s must be an array of strings", name)
			}
		}
	case kindSection:
		section, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s must be an object", name)
		}
		return checkFields(section, f.fields, name+".")
	default:
		return fmt.Errorf("%s has an unsupported schema kind %d", name, f.kind)
	}
	return nil
}

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "reviewkit config",
  "type": "object",
  "properties": {
    "root": { "type": "string" },
    "tools": {
      "type": "object",
      "properties": {
        "allow": { "type": "array", "items": { "type": "string", "enum": ["read", "glob", "grep"] } },
        "timeout_seconds": { "type": "number", "minimum": 0 },
        "rate_per_minute": { "type": "number", "minimum": 0 }
      }
    },
    "limits": {
      "type": "object",
      "properties": {
        "max_read_bytes": { "type": "number" },
        "max_file_size_bytes": { "type": "number" },
        "max_glob_results": { "type": "number" },
        "max_grep_results": { "type": "number" }
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": { "type": "string", "enum": ["trace", "debug", "info", "warn", "error", "disabled"] },
        "file": { "type": "string" }
      }
    }
  }
}`

const exampleConfigJSON = `{
  "root": ".",
  "tools": {
    "allow": ["read", "glob", "grep"],
    "timeout_seconds": 30
  },
  "limits": {
    "max_read_bytes": 10485760,
    "max_file_size_bytes": 10485760,
    "max_glob_results": 5000,
    "max_grep_results": 2000
  },
  "logging": {
    "level": "info"
  }
}`
