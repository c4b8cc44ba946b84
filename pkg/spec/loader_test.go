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
	"errors"
	"testing"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

const petstoreSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "servers": [{"url": "https://api.example.com/v1"}],
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "summary": "List all pets",
        "parameters": [
          {"name": "limit", "in": "query", "schema": {"type": "integer"}}
        ],
        "responses": {
          "200": {
            "description": "ok",
            "content": {
              "application/json": {
                "schema": {"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}
              }
            }
          }
        }
      },
      "post": {
        "operationId": "createPet",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    },
    "/pets/{petId}": {
      "get": {
        "parameters": [
          {"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "tag": {"type": "string"},
          "status": {"type": "string", "enum": ["available", "pending", "sold"]}
        }
      }
    }
  }
}`

func findOperation(t *testing.T, model *core.SpecModel, method, path string) *core.Operation {
	t.Helper()
	for _, op := range model.Operations {
		if op.Method == method && op.Path == path {
			return op
		}
	}
	t.Fatalf("Operation %s %s not found in model", method, path)
	return nil
}

func TestLoad_Petstore(t *testing.T) {
	model, err := Load([]byte(petstoreSpec), LoadOptions{})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	if model.Title != "Petstore" {
		t.Errorf("Expected title 'Petstore', got %q", model.Title)
	}
	if model.Version != "1.0.0" {
		t.Errorf("Expected version '1.0.0', got %q", model.Version)
	}
	if len(model.Servers) != 1 || model.Servers[0] != "https://api.example.com/v1" {
		t.Errorf("Expected one server entry, got %v", model.Servers)
	}
	if len(model.Operations) != 3 {
		t.Fatalf("Expected 3 operations, got %d", len(model.Operations))
	}

	t.Run("query parameter", func(t *testing.T) {
		op := findOperation(t, model, "GET", "/pets")
		if op.OperationID != "listPets" {
			t.Errorf("Expected operationId 'listPets', got %q", op.OperationID)
		}
		if op.Description != "List all pets" {
			t.Errorf("Expected summary as description, got %q", op.Description)
		}
		param, ok := op.Param("limit")
		if !ok {
			t.Fatal("Expected 'limit' parameter")
		}
		if param.In != core.ParameterLocationQuery {
			t.Errorf("Expected query location, got %s", param.In)
		}
		if param.Required {
			t.Error("Expected 'limit' to be optional")
		}
		if param.Schema.Kind != core.KindInteger {
			t.Errorf("Expected integer schema, got %s", param.Schema.Kind)
		}
		if len(op.ResponseContentTypes) != 1 || op.ResponseContentTypes[0] != "application/json" {
			t.Errorf("Expected response content type application/json, got %v", op.ResponseContentTypes)
		}
	})

	t.Run("path parameter", func(t *testing.T) {
		op := findOperation(t, model, "GET", "/pets/{petId}")
		param, ok := op.Param("petId")
		if !ok {
			t.Fatal("Expected 'petId' parameter")
		}
		if param.In != core.ParameterLocationPath {
			t.Errorf("Expected path location, got %s", param.In)
		}
		if !param.Required {
			t.Error("Expected 'petId' to be required")
		}
	})

	t.Run("request body resolves referenced schema", func(t *testing.T) {
		op := findOperation(t, model, "POST", "/pets")
		if op.Body == nil {
			t.Fatal("Expected a request body")
		}
		if !op.Body.Required {
			t.Error("Expected body to be required")
		}
		if op.Body.ContentType != "application/json" {
			t.Errorf("Expected application/json, got %q", op.Body.ContentType)
		}
		schema := op.Body.Schema
		if schema.Kind != core.KindObject {
			t.Fatalf("Expected object schema, got %s", schema.Kind)
		}
		if !schema.IsRequired("name") {
			t.Error("Expected 'name' to be required")
		}
		status, ok := schema.Properties["status"]
		if !ok {
			t.Fatal("Expected 'status' property")
		}
		if status.Kind != core.KindEnum {
			t.Fatalf("Expected enum schema for 'status', got %s", status.Kind)
		}
		if len(status.Enum) != 3 {
			t.Errorf("Expected 3 enum values, got %v", status.Enum)
		}
	})
}

func TestLoad_MalformedDocument(t *testing.T) {
	t.Run("invalid parameter location", func(t *testing.T) {
		doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "get": {
        "parameters": [{"name": "p", "in": "matrix", "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
		_, err := Load([]byte(doc), LoadOptions{})
		var malformed *core.MalformedSpecError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected MalformedSpecError, got %v", err)
		}
	})

	t.Run("parameter without name", func(t *testing.T) {
		doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "get": {
        "parameters": [{"in": "query", "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
		_, err := Load([]byte(doc), LoadOptions{})
		var malformed *core.MalformedSpecError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected MalformedSpecError, got %v", err)
		}
	})

	t.Run("parameter named body next to a request body", func(t *testing.T) {
		doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "post": {
        "parameters": [{"name": "body", "in": "query", "schema": {"type": "string"}}],
        "requestBody": {
          "content": {"application/json": {"schema": {"type": "object"}}}
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
		_, err := Load([]byte(doc), LoadOptions{})
		var malformed *core.MalformedSpecError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected MalformedSpecError, got %v", err)
		}
	})
}

func TestLoad_AllOf(t *testing.T) {
	t.Run("compatible members merge", func(t *testing.T) {
		doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "allOf": [
                  {"type": "object", "required": ["id"], "properties": {"id": {"type": "string"}}},
                  {"type": "object", "properties": {"count": {"type": "integer"}}}
                ]
              }
            }
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
		model, err := Load([]byte(doc), LoadOptions{})
		if err != nil {
			t.Fatalf("Expected no error but got: %v", err)
		}
		body := model.Operations[0].Body
		if body == nil {
			t.Fatal("Expected a request body")
		}
		if body.Schema.Kind != core.KindObject {
			t.Fatalf("Expected merged object, got %s", body.Schema.Kind)
		}
		if len(body.Schema.Properties) != 2 {
			t.Errorf("Expected 2 merged properties, got %d", len(body.Schema.Properties))
		}
		if !body.Schema.IsRequired("id") {
			t.Error("Expected 'id' to stay required after merge")
		}
	})

	t.Run("conflicting property kinds fail the load", func(t *testing.T) {
		doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "post": {
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "allOf": [
                  {"type": "object", "properties": {"id": {"type": "string"}}},
                  {"type": "object", "properties": {"id": {"type": "integer"}}}
                ]
              }
            }
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
		_, err := Load([]byte(doc), LoadOptions{})
		var incompatible *core.IncompatibleCompositionError
		if !errors.As(err, &incompatible) {
			t.Fatalf("Expected IncompatibleCompositionError, got %v", err)
		}
	})
}

func TestLoad_CyclicReference(t *testing.T) {
	doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/nodes": {
      "post": {
        "requestBody": {
          "content": {
            "application/json": {"schema": {"$ref": "#/components/schemas/Node"}}
          }
        },
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "schemas": {
      "Node": {
        "type": "object",
        "properties": {
          "value": {"type": "string"},
          "children": {"type": "array", "items": {"$ref": "#/components/schemas/Node"}}
        }
      }
    }
  }
}`
	model, err := Load([]byte(doc), LoadOptions{MaxDepth: 4})
	if err != nil {
		t.Fatalf("Expected cyclic schema to load, got: %v", err)
	}
	body := model.Operations[0].Body
	if body == nil || body.Schema.Kind != core.KindObject {
		t.Fatal("Expected object body schema")
	}
	// Walk down the children chain; it must bottom out in an Any leaf
	// instead of recursing forever.
	depth := 0
	schema := body.Schema
	for schema.Kind == core.KindObject {
		children, ok := schema.Properties["children"]
		if !ok || children.Kind != core.KindArray {
			break
		}
		schema = children.Items
		depth++
		if depth > 10 {
			t.Fatal("Cycle was not cut within the configured depth")
		}
	}
	if schema.Kind != core.KindAny {
		t.Errorf("Expected cycle to bottom out in an unconstrained schema, got %s", schema.Kind)
	}
}

func TestLoad_UnparseableDocument(t *testing.T) {
	_, err := Load([]byte("{not json or yaml"), LoadOptions{})
	if err == nil {
		t.Fatal("Expected an error for an unparseable document")
	}
}
