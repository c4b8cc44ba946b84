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
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

// Fetch loads raw specification bytes from either a local file path or an
// http(s) URL.
func Fetch(location string) ([]byte, error) {
	switch detectSourceType(location) {
	case "url":
		resp, err := http.Get(location)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch OpenAPI spec from URL: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				log.Printf("failed to close response body: %v", err)
			}
		}()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("failed to fetch OpenAPI spec from URL: %s", resp.Status)
		}
		specBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read OpenAPI spec response: %w", err)
		}
		return specBytes, nil
	default:
		specBytes, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read OpenAPI spec file: %w", err)
		}
		return specBytes, nil
	}
}

// detectSourceType determines whether the spec location is a URL or file path
func detectSourceType(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return "url"
	}
	return "file"
}
