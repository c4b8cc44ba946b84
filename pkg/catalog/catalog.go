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
	"fmt"
	"regexp"
	"strings"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
	"github.com/oapiproxy/oapiproxy/pkg/spec"
)

// Tool is one catalog entry: the MCP-facing definition plus the operation it
// is backed by. Read-only after build.
type Tool struct {
	core.McpTool
	Operation *core.Operation
}

// Options controls catalog construction.
type Options struct {
	// NamePrefix is prepended to every tool name.
	NamePrefix string
	// Whitelist restricts the catalog to operations whose path matches one
	// of the entries (prefix match, {placeholder} aware). Empty = no filter.
	Whitelist []string
}

// Catalog is the ordered set of tools built from a SpecModel. Immutable
// after Build; safe for concurrent reads.
type Catalog struct {
	tools  []*Tool
	byName map[string]*Tool
}

// Build derives the tool catalog from a normalized spec model. Tool order is
// the specification's declaration order, and names are pairwise distinct.
func Build(model *core.SpecModel, opts Options) (*Catalog, error) {
	whitelist, err := compileWhitelist(opts.Whitelist)
	if err != nil {
		return nil, err
	}

	namer := spec.NewNamer(opts.NamePrefix)
	c := &Catalog{byName: map[string]*Tool{}}

	for _, op := range model.Operations {
		if !pathAllowed(whitelist, op.Path) {
			continue
		}
		op.Name = namer.Name(op.Method, op.Path, op.OperationID)
		tool := &Tool{
			McpTool: core.McpTool{
				Name:        op.Name,
				Description: op.Description,
				InputSchema: spec.OperationInputSchema(op),
				Annotations: annotationsFor(op),
			},
			Operation: op,
		}
		if _, dup := c.byName[tool.Name]; dup {
			// The namer guarantees uniqueness; reaching this is a bug.
			panic(fmt.Sprintf("catalog: duplicate tool name %q", tool.Name))
		}
		c.byName[tool.Name] = tool
		c.tools = append(c.tools, tool)
	}
	return c, nil
}

// Tools returns all tools in specification declaration order.
func (c *Catalog) Tools() []*Tool {
	return c.tools
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Find returns the tool with the given name, or a ToolNotFound call error.
func (c *Catalog) Find(name string) (*Tool, *core.CallError) {
	tool, ok := c.byName[name]
	if !ok {
		return nil, core.NewCallError(core.ErrToolNotFound, "tool %q not found", name)
	}
	return tool, nil
}

// annotationsFor derives behavior hints from the HTTP method.
func annotationsFor(op *core.Operation) core.McpToolAnnotation {
	annotation := core.McpToolAnnotation{Title: op.Name}
	switch op.Method {
	case "GET", "HEAD", "OPTIONS":
		annotation.ReadOnlyHint = boolPtr(true)
		annotation.IdempotentHint = boolPtr(true)
	case "DELETE":
		annotation.DestructiveHint = boolPtr(true)
	case "PUT":
		annotation.IdempotentHint = boolPtr(true)
	case "POST":
		annotation.IdempotentHint = boolPtr(false)
	}
	return annotation
}

func boolPtr(val bool) *bool {
	return &val
}

// compileWhitelist turns whitelist entries into prefix regexes. Placeholders
// in an entry ({id}) match a single path segment.
func compileWhitelist(entries []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		var pattern strings.Builder
		pattern.WriteString("^")
		rest := entry
		for {
			open := strings.Index(rest, "{")
			if open < 0 {
				pattern.WriteString(regexp.QuoteMeta(rest))
				break
			}
			close := strings.Index(rest[open:], "}")
			if close < 0 {
				pattern.WriteString(regexp.QuoteMeta(rest))
				break
			}
			pattern.WriteString(regexp.QuoteMeta(rest[:open]))
			pattern.WriteString("[^/]+")
			rest = rest[open+close+1:]
		}
		re, err := regexp.Compile(pattern.String())
		if err != nil {
			return nil, fmt.Errorf("invalid whitelist entry %q: %w", entry, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func pathAllowed(whitelist []*regexp.Regexp, path string) bool {
	if len(whitelist) == 0 {
		return true
	}
	for _, re := range whitelist {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
