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

package catalog

import (
	"testing"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

func petstoreModel() *core.SpecModel {
	return &core.SpecModel{
		Title:   "Petstore",
		Version: "1.0.0",
		Operations: []*core.Operation{
			{Method: "GET", Path: "/pets", OperationID: "listPets"},
			{Method: "POST", Path: "/pets", OperationID: "createPet"},
			{Method: "GET", Path: "/pets/{petId}", OperationID: "getPet"},
			{Method: "DELETE", Path: "/pets/{petId}", OperationID: "deletePet"},
			{Method: "GET", Path: "/stores", OperationID: "listStores"},
		},
	}
}

func TestBuild(t *testing.T) {
	cat, err := Build(petstoreModel(), Options{})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if cat.Len() != 5 {
		t.Fatalf("Expected 5 tools, got %d", cat.Len())
	}

	t.Run("declaration order", func(t *testing.T) {
		want := []string{"listPets", "createPet", "getPet", "deletePet", "listStores"}
		for i, tool := range cat.Tools() {
			if tool.Name != want[i] {
				t.Errorf("Tool %d: expected %q, got %q", i, want[i], tool.Name)
			}
		}
	})

	t.Run("names are distinct", func(t *testing.T) {
		seen := map[string]bool{}
		for _, tool := range cat.Tools() {
			if seen[tool.Name] {
				t.Errorf("Duplicate tool name %q", tool.Name)
			}
			seen[tool.Name] = true
		}
	})

	t.Run("find by name", func(t *testing.T) {
		tool, callErr := cat.Find("getPet")
		if callErr != nil {
			t.Fatalf("Expected tool, got error: %v", callErr)
		}
		if tool.Operation.Method != "GET" || tool.Operation.Path != "/pets/{petId}" {
			t.Errorf("Found wrong operation: %s %s", tool.Operation.Method, tool.Operation.Path)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, callErr := cat.Find("nope")
		if callErr == nil {
			t.Fatal("Expected an error for an unknown tool")
		}
		if callErr.Kind != core.ErrToolNotFound {
			t.Errorf("Expected %s, got %s", core.ErrToolNotFound, callErr.Kind)
		}
	})
}

func TestBuild_Annotations(t *testing.T) {
	cat, err := Build(petstoreModel(), Options{})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	get, _ := cat.Find("listPets")
	if get.Annotations.ReadOnlyHint == nil || !*get.Annotations.ReadOnlyHint {
		t.Error("Expected GET to be marked read-only")
	}
	if get.Annotations.IdempotentHint == nil || !*get.Annotations.IdempotentHint {
		t.Error("Expected GET to be marked idempotent")
	}

	del, _ := cat.Find("deletePet")
	if del.Annotations.DestructiveHint == nil || !*del.Annotations.DestructiveHint {
		t.Error("Expected DELETE to be marked destructive")
	}

	post, _ := cat.Find("createPet")
	if post.Annotations.IdempotentHint == nil || *post.Annotations.IdempotentHint {
		t.Error("Expected POST to be marked non-idempotent")
	}
}

func TestBuild_NamePrefix(t *testing.T) {
	cat, err := Build(petstoreModel(), Options{NamePrefix: "petstore_"})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	for _, tool := range cat.Tools() {
		if tool.Name[:9] != "petstore_" {
			t.Errorf("Expected prefix on %q", tool.Name)
		}
	}
	if _, callErr := cat.Find("petstore_listPets"); callErr != nil {
		t.Errorf("Expected prefixed lookup to work: %v", callErr)
	}
}

func TestBuild_Whitelist(t *testing.T) {
	t.Run("plain prefix", func(t *testing.T) {
		cat, err := Build(petstoreModel(), Options{Whitelist: []string{"/pets"}})
		if err != nil {
			t.Fatalf("Expected no error but got: %v", err)
		}
		if cat.Len() != 4 {
			t.Errorf("Expected 4 tools under /pets, got %d", cat.Len())
		}
		if _, callErr := cat.Find("listStores"); callErr == nil {
			t.Error("Expected /stores operations to be filtered out")
		}
	})

	t.Run("placeholder entry matches concrete segment", func(t *testing.T) {
		cat, err := Build(petstoreModel(), Options{Whitelist: []string{"/pets/{petId}"}})
		if err != nil {
			t.Fatalf("Expected no error but got: %v", err)
		}
		if cat.Len() != 2 {
			t.Errorf("Expected 2 tools for /pets/{petId}, got %d", cat.Len())
		}
	})

	t.Run("empty whitelist keeps everything", func(t *testing.T) {
		cat, err := Build(petstoreModel(), Options{Whitelist: []string{"", "  "}})
		if err != nil {
			t.Fatalf("Expected no error but got: %v", err)
		}
		if cat.Len() != 5 {
			t.Errorf("Expected 5 tools, got %d", cat.Len())
		}
	})
}
