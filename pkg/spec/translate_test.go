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
	"slices"
	"testing"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

func TestTranslateSchema(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		out := TranslateSchema(&core.Schema{Kind: core.KindInteger, Description: "a count"})
		if out["type"] != "integer" {
			t.Errorf("Expected type integer, got %v", out["type"])
		}
		if out["description"] != "a count" {
			t.Errorf("Expected description to carry over, got %v", out["description"])
		}
	})

	t.Run("enum", func(t *testing.T) {
		out := TranslateSchema(&core.Schema{
			Kind:     core.KindEnum,
			EnumKind: core.KindString,
			Enum:     []any{"a", "b"},
		})
		if out["type"] != "string" {
			t.Errorf("Expected type string, got %v", out["type"])
		}
		values, ok := out["enum"].([]any)
		if !ok || len(values) != 2 {
			t.Errorf("Expected 2 enum values, got %v", out["enum"])
		}
	})

	t.Run("object with required fields", func(t *testing.T) {
		out := TranslateSchema(&core.Schema{
			Kind: core.KindObject,
			Properties: map[string]*core.Schema{
				"name": {Kind: core.KindString},
			},
			Required: []string{"name"},
		})
		if out["type"] != "object" {
			t.Errorf("Expected type object, got %v", out["type"])
		}
		required, ok := out["required"].([]string)
		if !ok || !slices.Contains(required, "name") {
			t.Errorf("Expected required to contain 'name', got %v", out["required"])
		}
	})

	t.Run("union becomes oneOf", func(t *testing.T) {
		out := TranslateSchema(&core.Schema{
			Kind: core.KindUnion,
			Variants: []*core.Schema{
				{Kind: core.KindString},
				{Kind: core.KindInteger},
			},
		})
		variants, ok := out["oneOf"].([]any)
		if !ok || len(variants) != 2 {
			t.Fatalf("Expected 2 oneOf variants, got %v", out["oneOf"])
		}
		if _, typed := out["type"]; typed {
			t.Error("Expected no top-level type on a union")
		}
	})

	t.Run("unconstrained schema is empty", func(t *testing.T) {
		out := TranslateSchema(core.AnySchema())
		if len(out) != 0 {
			t.Errorf("Expected empty schema, got %v", out)
		}
	})
}

func TestOperationInputSchema(t *testing.T) {
	op := &core.Operation{
		Method: "POST",
		Path:   "/pets/{petId}",
		Parameters: []core.Parameter{
			{
				Name:        "petId",
				In:          core.ParameterLocationPath,
				Required:    true,
				Description: "pet identifier",
				Schema:      &core.Schema{Kind: core.KindString},
			},
			{
				Name:   "dryRun",
				In:     core.ParameterLocationQuery,
				Schema: &core.Schema{Kind: core.KindBoolean},
			},
		},
		Body: &core.RequestBody{
			Schema:      &core.Schema{Kind: core.KindObject, Properties: map[string]*core.Schema{"name": {Kind: core.KindString}}},
			ContentType: "application/json",
			Required:    true,
		},
	}

	schema := OperationInputSchema(op)
	if schema.Type != "object" {
		t.Errorf("Expected object input schema, got %q", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("Expected 3 properties, got %d", len(schema.Properties))
	}
	for _, name := range []string{"petId", "dryRun", "body"} {
		if _, ok := schema.Properties[name]; !ok {
			t.Errorf("Expected property %q", name)
		}
	}
	if !slices.Contains(schema.Required, "petId") {
		t.Error("Expected 'petId' to be required")
	}
	if !slices.Contains(schema.Required, "body") {
		t.Error("Expected 'body' to be required")
	}
	if slices.Contains(schema.Required, "dryRun") {
		t.Error("Expected 'dryRun' to be optional")
	}

	petID, ok := schema.Properties["petId"].(map[string]any)
	if !ok {
		t.Fatal("Expected petId property to be a schema fragment")
	}
	if petID["description"] != "pet identifier" {
		t.Errorf("Expected parameter description, got %v", petID["description"])
	}
}
