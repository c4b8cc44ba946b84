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

package spec

import (
	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// TranslateSchema converts a normalized Schema into a JSON-Schema fragment
// of the shape the MCP input schema expects. Unions translate to native
// oneOf lists, so no required-ness or typing is lost; KindAny becomes the
// empty schema, which accepts any value.
func TranslateSchema(s *core.Schema) map[string]any {
	if s == nil {
		return map[string]any{}
	}

	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}

	switch s.Kind {
	case core.KindString, core.KindNumber, core.KindInteger, core.KindBoolean:
		out["type"] = string(s.Kind)
	case core.KindEnum:
		if s.EnumKind != "" {
			out["type"] = string(s.EnumKind)
		}
		out["enum"] = s.Enum
	case core.KindArray:
		out["type"] = "array"
		out["items"] = TranslateSchema(s.Items)
	case core.KindObject:
		out["type"] = "object"
		properties := map[string]any{}
		for name, prop := range s.Properties {
			properties[name] = TranslateSchema(prop)
		}
		out["properties"] = properties
		if len(s.Required) > 0 {
			out["required"] = append([]string{}, s.Required...)
		}
	case core.KindUnion:
		variants := make([]any, 0, len(s.Variants))
		for _, v := range s.Variants {
			variants = append(variants, TranslateSchema(v))
		}
		out["oneOf"] = variants
	case core.KindAny:
		// empty schema
	}
	return out
}

// OperationInputSchema builds the per-operation tool input schema: an object
// whose properties are the declared parameter names plus, when a request
// body exists, a reserved "body" property. The required set mirrors each
// source parameter's required flag.
func OperationInputSchema(op *core.Operation) core.McpToolInputSchema {
	properties := make(map[string]any, len(op.Parameters)+1)
	var required []string

	for i := range op.Parameters {
		param := &op.Parameters[i]
		prop := TranslateSchema(param.Schema)
		if _, ok := prop["description"]; !ok && param.Description != "" {
			prop["description"] = param.Description
		}
		properties[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}

	if op.Body != nil {
		prop := TranslateSchema(op.Body.Schema)
		if _, ok := prop["description"]; !ok {
			prop["description"] = "request body (" + op.Body.ContentType + ")"
		}
		properties["body"] = prop
		if op.Body.Required {
			required = append(required, "body")
		}
	}

	return core.McpToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
