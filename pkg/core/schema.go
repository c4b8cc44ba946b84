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

package core

// SchemaKind identifies the shape of a normalized schema node.
type SchemaKind string

const (
	KindString  SchemaKind = "string"
	KindNumber  SchemaKind = "number"
	KindInteger SchemaKind = "integer"
	KindBoolean SchemaKind = "boolean"
	KindArray   SchemaKind = "array"
	KindObject  SchemaKind = "object"
	KindEnum    SchemaKind = "enum"
	KindUnion   SchemaKind = "union"
	// KindAny accepts any value. Produced for untyped schemas,
	// additionalProperties, and reference cycles cut at the unfolding bound.
	KindAny SchemaKind = "any"
)

// Schema is a normalized, reference-free type descriptor. The loader
// guarantees that no unresolved $ref remains: cyclic references are cut into
// KindAny leaves once the bounded unfolding depth is exhausted, so consumers
// can recurse freely.
type Schema struct {
	Kind        SchemaKind
	Description string

	// Items holds the element schema for KindArray.
	Items *Schema

	// Properties and Required describe KindObject.
	Properties map[string]*Schema
	Required   []string

	// Enum holds the allowed values for KindEnum; EnumKind is the scalar
	// kind of those values (string by default).
	Enum     []any
	EnumKind SchemaKind

	// Variants holds the alternatives of a KindUnion (oneOf/anyOf).
	Variants []*Schema
}

// AnySchema returns a schema node that accepts any value.
func AnySchema() *Schema {
	return &Schema{Kind: KindAny}
}

// IsRequired reports whether the named property is in the required set of an
// object schema.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
