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

package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// UpstreamLocation is where an API key is injected on outbound requests.
type UpstreamLocation string

const (
	UpstreamLocationHeader UpstreamLocation = "header"
	UpstreamLocationQuery  UpstreamLocation = "query"
)

// DefaultAPIKeyHeader is used when an API key is configured without a
// parameter name.
const DefaultAPIKeyHeader = "X-API-Key"

// UpstreamAuth is the process-wide authentication material attached to every
// proxied request. The zero value applies nothing.
type UpstreamAuth struct {
	// BearerToken, when set, is sent as "Authorization: Bearer <token>".
	BearerToken string

	// APIKey, when set, is injected as the APIKeyName header or query
	// parameter, per APIKeyIn.
	APIKey     string
	APIKeyName string
	APIKeyIn   UpstreamLocation
}

// Validate checks the configuration for consistency.
func (a *UpstreamAuth) Validate() error {
	if a.APIKey != "" {
		switch a.APIKeyIn {
		case UpstreamLocationHeader, UpstreamLocationQuery, "":
		default:
			return fmt.Errorf("api key location must be %q or %q, got %q",
				UpstreamLocationHeader, UpstreamLocationQuery, a.APIKeyIn)
		}
	}
	return nil
}

// Apply injects the configured authentication material into an outbound
// request. Explicit caller-supplied headers win: Apply never overwrites a
// header that is already set.
func (a UpstreamAuth) Apply(req *http.Request) {
	if a.BearerToken != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+a.BearerToken)
	}

	if a.APIKey == "" {
		return
	}
	name := a.APIKeyName
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	switch a.APIKeyIn {
	case UpstreamLocationQuery:
		q := req.URL.Query()
		q.Set(name, a.APIKey)
		req.URL.RawQuery = q.Encode()
	default:
		if req.Header.Get(name) == "" {
			req.Header.Set(name, a.APIKey)
		}
	}
}

// ResolveSecret resolves a configured secret value. Values of the form
// ${ENV_VAR} are read from the environment; anything else is returned
// verbatim.
func ResolveSecret(value string) (string, error) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value, nil
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	envValue := os.Getenv(envVar)
	if envValue == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return envValue, nil
}
