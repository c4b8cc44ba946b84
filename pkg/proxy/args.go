// Copyright 2026 oapiproxy Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package proxy

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// MappedCall is the result of routing tool-call arguments onto HTTP request
// components according to the operation's parameter declarations.
type MappedCall struct {
	// URLPath is the path template with every placeholder substituted.
	URLPath string

	Query  map[string]any
	Header map[string]any
	Cookie map[string]any

	// Body is the validated request body value, nil when absent. HasBody
	// distinguishes an explicit null body from no body.
	Body    any
	HasBody bool
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// MapArguments validates the argument mapping against the operation's
// declared parameters and splits it by location. The mapping is total:
// every argument must match a declared parameter (or the reserved "body"),
// and every required parameter must be present. stripParams are removed
// before mapping instead of being rejected.
func MapArguments(op *core.Operation, args map[string]any, stripParams []string) (*MappedCall, *core.CallError) {
	filtered := make(map[string]any, len(args))
	for name, value := range args {
		if slices.Contains(stripParams, name) {
			continue
		}
		filtered[name] = value
	}

	for name := range filtered {
		if name == "body" && op.Body != nil {
			continue
		}
		if _, ok := op.Param(name); !ok {
			return nil, core.NewCallError(core.ErrUnknownArgument, "unknown argument %q", name)
		}
	}

	call := &MappedCall{
		Query:  map[string]any{},
		Header: map[string]any{},
		Cookie: map[string]any{},
	}
	pathValues := map[string]any{}

	for i := range op.Parameters {
		param := &op.Parameters[i]
		value, present := filtered[param.Name]
		if !present {
			if param.Required {
				return nil, core.NewCallError(core.ErrMissingArgument, "missing required argument %q", param.Name)
			}
			continue
		}
		if err := validateValue(param.Schema, value); err != nil {
			return nil, core.NewCallError(core.ErrArgumentTypeMismatch,
				"argument %q: %s", param.Name, err)
		}
		switch param.In {
		case core.ParameterLocationPath:
			pathValues[param.Name] = value
		case core.ParameterLocationQuery:
			call.Query[param.Name] = value
		case core.ParameterLocationHeader:
			call.Header[param.Name] = value
		case core.ParameterLocationCookie:
			call.Cookie[param.Name] = value
		}
	}

	if op.Body != nil {
		value, present := filtered["body"]
		if !present && op.Body.Required {
			return nil, core.NewCallError(core.ErrMissingArgument, `missing required argument "body"`)
		}
		if present {
			if err := validateValue(op.Body.Schema, value); err != nil {
				return nil, core.NewCallError(core.ErrArgumentTypeMismatch, "argument %q: %s", "body", err)
			}
			call.Body = value
			call.HasBody = true
		}
	}

	urlPath := substitutePathParams(op.Path, pathValues)
	if match := placeholderPattern.FindString(urlPath); match != "" {
		return nil, core.NewCallError(core.ErrUnresolvedPathParameter,
			"path parameter %s has no value after substitution", match)
	}
	call.URLPath = urlPath
	return call, nil
}

// substitutePathParams replaces path placeholders in the URL template.
func substitutePathParams(path string, pathParams map[string]any) string {
	for k, v := range pathParams {
		placeholder := fmt.Sprintf("{%s}", k)
		path = strings.ReplaceAll(path, placeholder, fmt.Sprintf("%v", v))
	}
	return path
}

// validateValue checks a JSON-decoded argument value against a normalized
// schema. Unknown object keys inside a body are tolerated (OpenAPI's
// additionalProperties default); only top-level arguments are strict.
func validateValue(s *core.Schema, value any) error {
	if s == nil || s.Kind == core.KindAny {
		return nil
	}

	switch s.Kind {
	case core.KindString:
		if _, ok := value.(string); !ok {
			return typeMismatch(core.KindString, value)
		}
	case core.KindBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(core.KindBoolean, value)
		}
	case core.KindNumber:
		if !isNumeric(value) {
			return typeMismatch(core.KindNumber, value)
		}
	case core.KindInteger:
		if !isIntegral(value) {
			return typeMismatch(core.KindInteger, value)
		}
	case core.KindEnum:
		for _, allowed := range s.Enum {
			if enumEqual(allowed, value) {
				return nil
			}
		}
		return fmt.Errorf("expected one of %s, got %v", formatEnum(s.Enum), value)
	case core.KindArray:
		items, ok := value.([]any)
		if !ok {
			return typeMismatch(core.KindArray, value)
		}
		for i, item := range items {
			if err := validateValue(s.Items, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	case core.KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return typeMismatch(core.KindObject, value)
		}
		for _, required := range s.Required {
			if _, present := obj[required]; !present {
				return fmt.Errorf("missing required field %q", required)
			}
		}
		for name, prop := range s.Properties {
			fieldValue, present := obj[name]
			if !present {
				continue
			}
			if err := validateValue(prop, fieldValue); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	case core.KindUnion:
		for _, variant := range s.Variants {
			if validateValue(variant, value) == nil {
				return nil
			}
		}
		return fmt.Errorf("value matches no variant of the union")
	}
	return nil
}

func typeMismatch(expected core.SchemaKind, value any) error {
	return fmt.Errorf("expected %s, got %s", expected, kindOf(value))
}

// kindOf names a JSON-decoded value's shape for error messages.
func kindOf(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		if v == math.Trunc(v) {
			return "integer"
		}
		return "number"
	case int, int32, int64, json.Number:
		return "integer"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case float64, float32, int, int32, int64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}

func isIntegral(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == math.Trunc(v)
	case float32:
		return float64(v) == math.Trunc(float64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

// enumEqual compares an argument value against an allowed enum value.
// Both sides come from different decoders (JSON arguments, YAML spec), so
// numeric representations are normalized through their printed form.
func enumEqual(allowed, value any) bool {
	if allowed == value {
		return true
	}
	return fmt.Sprintf("%v", allowed) == fmt.Sprintf("%v", value)
}

func formatEnum(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
