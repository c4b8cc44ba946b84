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

import "net/http"

// HTTPOutcome is a completed upstream HTTP exchange. 4xx/5xx statuses are
// outcomes, not dispatch failures.
type HTTPOutcome struct {
	StatusCode  int
	Status      string // full status line, e.g. "404 Not Found"
	Header      http.Header
	Body        []byte
	ContentType string // media type without parameters, e.g. "application/json"
}

// TransportFailureKind distinguishes a timed-out exchange from one that
// never connected.
type TransportFailureKind string

const (
	TransportTimeout    TransportFailureKind = "timeout"
	TransportConnection TransportFailureKind = "connection"
)

// TransportFailure means no HTTP exchange completed: connection refused,
// DNS failure, TLS error, or timeout.
type TransportFailure struct {
	Kind TransportFailureKind
	Err  error
}

func (f *TransportFailure) Error() string {
	return f.Err.Error()
}

func (f *TransportFailure) Unwrap() error {
	return f.Err
}

// ToolResult is the protocol-agnostic outcome of a tool invocation.
// Exactly one is produced per call; a failed call is still a ToolResult.
type ToolResult struct {
	IsError   bool
	ErrorKind CallErrorKind // set when IsError

	// Text is always set: the textual rendering of the result.
	Text string

	// Structured holds decoded JSON content on success, nil otherwise.
	Structured any

	// ContentType tags non-JSON passthrough content.
	ContentType string
}

// TextResult builds a successful text result.
func TextResult(text, contentType string) ToolResult {
	return ToolResult{Text: text, ContentType: contentType}
}

// StructuredResult builds a successful result carrying decoded JSON content.
func StructuredResult(text string, structured any) ToolResult {
	return ToolResult{Text: text, Structured: structured, ContentType: "application/json"}
}

// ErrorResult builds a failed result from a CallError.
func ErrorResult(err *CallError) ToolResult {
	return ToolResult{IsError: true, ErrorKind: err.Kind, Text: err.Message}
}
