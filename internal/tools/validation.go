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
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationRule checks tool arguments and returns an error if invalid.
type ValidationRule func(args map[string]interface{}) error

// ChainValidation runs rules in order until the first error.
func ChainValidation(rules ...ValidationRule) ValidationRule {
	return func(args map[string]interface{}) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireStringArg ensures a string argument is present and non-empty.
func RequireStringArg(key, message string) ValidationRule {
	return func(args map[string]interface{}) error {
		value, ok := args[key]
		if !ok || value == nil {
			return fmt.Errorf("%s", message)
		}
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return fmt.Errorf("%s", message)
		}
		return nil
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func argValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// unmarshalAndValidate decodes tool arguments into T and checks its
// `validate` tags. Errors name the offending parameter in quotes.
func unmarshalAndValidate[T any](args map[string]interface{}) (T, error) {
	var out T
	if args == nil {
		args = map[string]interface{}{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("invalid arguments: %v", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return out, fmt.Errorf("invalid '%s' parameter: expected %s", typeErr.Field, typeErr.Type)
		}
		var argErr *argumentError
		if errors.As(err, &argErr) {
			return out, argErr
		}
		return out, fmt.Errorf("invalid arguments: %v", err)
	}
	if err := argValidator().Struct(out); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return out, describeFieldError(fieldErrs[0])
		}
		return out, fmt.Errorf("invalid arguments: %v", err)
	}
	return out, nil
}

func describeFieldError(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing or invalid '%s' parameter", name)
	case "oneof":
		return fmt.Errorf("invalid '%s' parameter: must be one of %s", name, fe.Param())
	case "min":
		return fmt.Errorf("invalid '%s' parameter: must be at least %s", name, fe.Param())
	case "max":
		return fmt.Errorf("invalid '%s' parameter: must be at most %s", name, fe.Param())
	default:
		return fmt.Errorf("invalid '%s' parameter: failed %s check", name, fe.Tag())
	}
}

// argumentError reports a malformed argument detected while decoding.
type argumentError struct {
	field  string
	reason string
}

func (e *argumentError) Error() string {
	return fmt.Sprintf("invalid '%s' parameter: %s", e.field, e.reason)
}

// PathList accepts either a single path or a list of paths.
type PathList []string

// UnmarshalJSON decodes a string, a list of strings or null.
func (p *PathList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*p = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return &argumentError{field: "path", reason: "expected a string or a list of strings"}
		}
		*p = PathList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return &argumentError{field: "path", reason: "expected a string or a list of strings"}
	}
	*p = PathList(many)
	return nil
}
