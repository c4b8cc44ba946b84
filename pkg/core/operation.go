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

// ParameterLocation defines where a parameter is placed in the HTTP request.
type ParameterLocation string

const (
	ParameterLocationPath   ParameterLocation = "path"
	ParameterLocationQuery  ParameterLocation = "query"
	ParameterLocationHeader ParameterLocation = "header"
	ParameterLocationCookie ParameterLocation = "cookie"
)

// IsValid returns true if the parameter location is one the proxy can route.
func (p ParameterLocation) IsValid() bool {
	switch p {
	case ParameterLocationPath, ParameterLocationQuery, ParameterLocationHeader, ParameterLocationCookie:
		return true
	default:
		return false
	}
}

// Parameter is one declared operation parameter.
type Parameter struct {
	Name        string
	In          ParameterLocation
	Required    bool
	Description string
	Schema      *Schema
}

// RequestBody describes an operation's declared request body.
type RequestBody struct {
	Schema      *Schema
	ContentType string
	Required    bool
}

// Operation is one HTTP method+path entry from the specification, normalized
// for dispatch. Immutable once built; owned by its SpecModel.
type Operation struct {
	Method string // upper-case HTTP method
	Path   string // path template, placeholders in {braces}

	// Name is the derived tool name, assigned during catalog build.
	Name string

	OperationID string
	Description string

	// Parameters in declaration order.
	Parameters []Parameter

	// Body is nil when the operation declares no request body.
	Body *RequestBody

	// ResponseContentTypes lists declared success response content types,
	// in declaration order.
	ResponseContentTypes []string
}

// Param returns the declared parameter with the given name, if any.
func (op *Operation) Param(name string) (*Parameter, bool) {
	for i := range op.Parameters {
		if op.Parameters[i].Name == name {
			return &op.Parameters[i], true
		}
	}
	return nil, false
}

// SpecModel is the normalized in-memory representation of an OpenAPI
// document: operations in declaration order plus document identity.
type SpecModel struct {
	Title   string
	Version string

	// Servers holds the document's declared server URLs, used as the base
	// URL fallback when no override is configured.
	Servers []string

	Operations []*Operation
}
