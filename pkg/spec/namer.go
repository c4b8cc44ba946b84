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
	"regexp"
	"strings"
)

// maxToolNameLength bounds generated tool names, suffixes included.
const maxToolNameLength = 64

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Namer derives unique, protocol-legal tool names for operations. Names are
// deterministic for a given spec ordering: the first occurrence of a name
// keeps it, later collisions get _2, _3, ... suffixes.
type Namer struct {
	prefix   string
	assigned map[string]bool
}

// NewNamer creates a Namer. prefix, when non-empty, is prepended to every
// generated name.
func NewNamer(prefix string) *Namer {
	return &Namer{prefix: prefix, assigned: map[string]bool{}}
}

// Name derives the tool name for one operation. It never fails.
func (n *Namer) Name(method, path, operationID string) string {
	base := operationID
	if !toolNamePattern.MatchString(base) {
		base = slugify(method, path)
	}
	base = n.prefix + base
	if len(base) > maxToolNameLength {
		base = base[:maxToolNameLength]
	}

	name := base
	for suffix := 2; n.assigned[name]; suffix++ {
		tail := fmt.Sprintf("_%d", suffix)
		trimmed := base
		if len(trimmed)+len(tail) > maxToolNameLength {
			trimmed = trimmed[:maxToolNameLength-len(tail)]
		}
		name = trimmed + tail
	}
	n.assigned[name] = true
	return name
}

var slugReplacer = strings.NewReplacer(
	"{", "",
	"}", "",
	"/", "_",
	"-", "_",
	".", "_",
)

// slugify turns "GET /pets/{id}" into "get_pets_id".
func slugify(method, path string) string {
	slug := strings.ToLower(slugReplacer.Replace(fmt.Sprintf("%s_%s", method, path)))
	var cleaned strings.Builder
	lastUnderscore := false
	for _, r := range slug {
		legal := r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')
		if !legal {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		cleaned.WriteRune(r)
	}
	return strings.Trim(cleaned.String(), "_")
}
