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
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/oapiproxy/oapiproxy/pkg/catalog"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

func newTestService(t *testing.T, baseURL string, model *core.SpecModel, strip []string) *Service {
	t.Helper()
	cat, err := catalog.Build(model, catalog.Options{})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	dispatcher, err := NewDispatcher(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	return NewService(cat, dispatcher, strip)
}

func pingModel() *core.SpecModel {
	return &core.SpecModel{
		Title:   "Ping",
		Version: "1.0.0",
		Operations: []*core.Operation{
			{Method: "GET", Path: "/ping", OperationID: "ping"},
		},
	}
}

func TestService_CallTool(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, pingModel(), nil)

	t.Run("successful call", func(t *testing.T) {
		result := svc.CallTool(context.Background(), "ping", map[string]any{})
		if result.IsError {
			t.Fatalf("Expected success, got: %s", result.Text)
		}
		if result.Structured == nil {
			t.Error("Expected structured JSON content")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		result := svc.CallTool(context.Background(), "pong", map[string]any{})
		if !result.IsError || result.ErrorKind != core.ErrToolNotFound {
			t.Fatalf("Expected ToolNotFound, got %+v", result)
		}
	})

	t.Run("unknown argument", func(t *testing.T) {
		result := svc.CallTool(context.Background(), "ping", map[string]any{"x": 1})
		if !result.IsError || result.ErrorKind != core.ErrUnknownArgument {
			t.Fatalf("Expected UnknownArgument, got %+v", result)
		}
	})
}

func TestService_Reload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, pingModel(), nil)

	replacement := &core.SpecModel{
		Title:   "Ping",
		Version: "2.0.0",
		Operations: []*core.Operation{
			{Method: "GET", Path: "/healthz", OperationID: "healthz"},
		},
	}
	newCat, err := catalog.Build(replacement, catalog.Options{})
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}

	svc.Reload(newCat)

	if result := svc.CallTool(context.Background(), "ping", nil); !result.IsError || result.ErrorKind != core.ErrToolNotFound {
		t.Errorf("Expected old tool to be gone, got %+v", result)
	}
	if result := svc.CallTool(context.Background(), "healthz", nil); result.IsError {
		t.Errorf("Expected new tool to work, got: %s", result.Text)
	}
}

func TestService_ConcurrentCallsDuringReload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	svc := newTestService(t, ts.URL, pingModel(), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				result := svc.CallTool(context.Background(), "ping", nil)
				// Either the old catalog (success) or, after a swap, a
				// clean not-found. Never a panic or a malformed result.
				if result.IsError && result.ErrorKind != core.ErrToolNotFound {
					t.Errorf("Unexpected failure: %+v", result)
					return
				}
			}
		}()
	}

	for range 10 {
		cat, err := catalog.Build(pingModel(), catalog.Options{})
		if err != nil {
			t.Fatalf("Expected no error but got: %v", err)
		}
		svc.Reload(cat)
	}
	wg.Wait()
}
