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
	"log"
	"sync/atomic"

	"github.com/oapiproxy/oapiproxy/pkg/catalog"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// Service ties the tool catalog to the dispatcher. Calls resolve their tool
// against a catalog snapshot taken at entry, so a concurrent Reload never
// affects a call in flight.
type Service struct {
	catalog     atomic.Pointer[catalog.Catalog]
	dispatcher  *Dispatcher
	stripParams []string
}

// NewService creates a call service over an initial catalog.
func NewService(cat *catalog.Catalog, dispatcher *Dispatcher, stripParams []string) *Service {
	s := &Service{dispatcher: dispatcher, stripParams: stripParams}
	s.catalog.Store(cat)
	return s
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog() *catalog.Catalog {
	cat := s.catalog.Load()
	if cat == nil {
		panic("proxy: service has no catalog")
	}
	return cat
}

// ListTools returns the current tool set in declaration order.
func (s *Service) ListTools() []*catalog.Tool {
	return s.Catalog().Tools()
}

// Reload swaps in a new catalog. In-flight calls keep the snapshot they
// started with.
func (s *Service) Reload(cat *catalog.Catalog) {
	old := s.Catalog()
	s.catalog.Store(cat)
	log.Printf("Catalog reloaded: %d tools (was %d)", cat.Len(), old.Len())
}

// CallTool executes a named tool with the given arguments and always returns
// exactly one result; every failure mode is a ToolResult, never a panic or a
// dropped call.
func (s *Service) CallTool(ctx context.Context, name string, args map[string]any) core.ToolResult {
	tool, callErr := s.Catalog().Find(name)
	if callErr != nil {
		return core.ErrorResult(callErr)
	}

	mapped, callErr := MapArguments(tool.Operation, args, s.stripParams)
	if callErr != nil {
		return core.ErrorResult(callErr)
	}

	outcome, failure := s.dispatcher.Dispatch(ctx, tool.Operation, mapped)
	if failure != nil {
		log.Printf("Dispatch failed for tool %s: %v", name, failure.Err)
		return TranslateTransportFailure(failure)
	}
	return TranslateOutcome(outcome)
}
