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

import "fmt"

// Load-time errors. Any of these fails the whole catalog build: a partially
// built tool surface is worse than none.

// MalformedSpecError reports a structural problem in the specification,
// naming the offending path within the document.
type MalformedSpecError struct {
	DocPath string // e.g. "paths./pets/{id}.get.parameters[2]"
	Reason  string
}

func (e *MalformedSpecError) Error() string {
	if e.DocPath == "" {
		return fmt.Sprintf("malformed spec: %s", e.Reason)
	}
	return fmt.Sprintf("malformed spec at %s: %s", e.DocPath, e.Reason)
}

// UnresolvedReferenceError reports a $ref whose target is absent from the
// document.
type UnresolvedReferenceError struct {
	DocPath string
	Ref     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %q at %s", e.Ref, e.DocPath)
}

// IncompatibleCompositionError reports an allOf composition whose members
// cannot be merged into a single object schema.
type IncompatibleCompositionError struct {
	DocPath string
	Detail  string
}

func (e *IncompatibleCompositionError) Error() string {
	return fmt.Sprintf("incompatible composition at %s: %s", e.DocPath, e.Detail)
}

// Call-time errors. These are local to one invocation and are surfaced to
// the caller as tool-result failures, never as protocol-level errors.

// CallErrorKind classifies a per-invocation failure.
type CallErrorKind string

const (
	ErrToolNotFound            CallErrorKind = "ToolNotFound"
	ErrMissingArgument         CallErrorKind = "MissingArgument"
	ErrUnknownArgument         CallErrorKind = "UnknownArgument"
	ErrArgumentTypeMismatch    CallErrorKind = "ArgumentTypeMismatch"
	ErrUnresolvedPathParameter CallErrorKind = "UnresolvedPathParameter"
	ErrProxyUnreachable        CallErrorKind = "ProxyUnreachable"
	ErrUpstreamError           CallErrorKind = "UpstreamError"
)

// CallError is a structured per-invocation failure.
type CallError struct {
	Kind    CallErrorKind
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewCallError builds a CallError with a formatted message.
func NewCallError(kind CallErrorKind, format string, args ...any) *CallError {
	return &CallError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
