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
	"encoding/json"
	"fmt"
	"strings"

	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// TranslateOutcome converts an upstream HTTP outcome into a tool result.
// Success statuses carry the response payload; error statuses become tool
// failures that preserve the status line and whatever detail the upstream
// provided.
func TranslateOutcome(outcome *core.HTTPOutcome) core.ToolResult {
	body := strings.TrimSpace(string(outcome.Body))

	switch {
	case outcome.StatusCode >= 200 && outcome.StatusCode < 300:
		return successResult(outcome, body)
	case outcome.StatusCode >= 400:
		return core.ToolResult{
			IsError:   true,
			ErrorKind: core.ErrUpstreamError,
			Text:      upstreamErrorMessage(outcome, body),
		}
	default:
		// 1xx/3xx responses, unusual for an API but not failures. Redirects
		// within the client's policy were already followed.
		text := outcome.Status
		if body != "" {
			text = text + "\n" + body
		}
		return core.TextResult(text, outcome.ContentType)
	}
}

func successResult(outcome *core.HTTPOutcome, body string) core.ToolResult {
	if body == "" {
		return core.TextResult(outcome.Status, outcome.ContentType)
	}
	if isJSONContentType(outcome.ContentType) {
		var decoded any
		if err := json.Unmarshal(outcome.Body, &decoded); err == nil {
			return core.StructuredResult(body, decoded)
		}
		// Declared JSON but not parseable; fall through to text.
	}
	return core.TextResult(body, outcome.ContentType)
}

// upstreamErrorMessage builds a one-line failure message starting with the
// status line, followed by the most specific detail the response body offers.
func upstreamErrorMessage(outcome *core.HTTPOutcome, body string) string {
	detail := extractErrorDetail(outcome.ContentType, outcome.Body)
	if detail == "" {
		detail = body
	}
	if detail == "" {
		return outcome.Status
	}
	return fmt.Sprintf("%s: %s", outcome.Status, detail)
}

// extractErrorDetail pulls a human-readable message out of a structured error
// body. Common envelope keys are tried in order of specificity.
func extractErrorDetail(contentType string, body []byte) string {
	if !isJSONContentType(contentType) {
		return ""
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail", "title"} {
		if value, ok := envelope[key]; ok {
			if s, ok := value.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// TranslateTransportFailure converts a failed exchange into a tool failure.
func TranslateTransportFailure(failure *core.TransportFailure) core.ToolResult {
	var text string
	switch failure.Kind {
	case core.TransportTimeout:
		text = fmt.Sprintf("upstream request timed out: %v", failure.Err)
	default:
		text = fmt.Sprintf("upstream unreachable: %v", failure.Err)
	}
	return core.ToolResult{
		IsError:   true,
		ErrorKind: core.ErrProxyUnreachable,
		Text:      text,
	}
}
