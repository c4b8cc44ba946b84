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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapiproxy/oapiproxy/pkg/auth"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// DefaultTimeout bounds a single upstream round trip when the config does not
// set one.
const DefaultTimeout = 30 * time.Second

// Config holds the dispatcher's upstream settings.
type Config struct {
	// BaseURL is the upstream server root every operation path is joined to.
	BaseURL string

	// Timeout bounds a single round trip; zero means DefaultTimeout.
	Timeout time.Duration

	// Auth is applied to every outbound request.
	Auth auth.UpstreamAuth
}

// Dispatcher executes mapped calls against the upstream HTTP API. Safe for
// concurrent use.
type Dispatcher struct {
	baseURL string
	client  *http.Client
	auth    auth.UpstreamAuth
}

// NewDispatcher creates a dispatcher for the given upstream.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		auth:    cfg.Auth,
	}, nil
}

// Dispatch performs one upstream round trip for a mapped call. Any HTTP
// response, success or error status alike, is returned as an outcome; only a
// failure to complete the exchange produces a TransportFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, op *core.Operation, call *MappedCall) (*core.HTTPOutcome, *core.TransportFailure) {
	req, err := d.buildRequest(ctx, op, call)
	if err != nil {
		return nil, &core.TransportFailure{Kind: core.TransportConnection, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		if mediaType, _, parseErr := mime.ParseMediaType(contentType); parseErr == nil {
			contentType = mediaType
		}
	}

	return &core.HTTPOutcome{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Header:      resp.Header,
		Body:        body,
		ContentType: contentType,
	}, nil
}

func (d *Dispatcher) buildRequest(ctx context.Context, op *core.Operation, call *MappedCall) (*http.Request, error) {
	fullURL := d.baseURL + "/" + strings.TrimLeft(call.URLPath, "/")

	var bodyReader io.Reader
	bodyContentType := ""
	if call.HasBody && op.Body != nil {
		bodyContentType = op.Body.ContentType
		if isJSONContentType(bodyContentType) || bodyContentType == "" {
			encoded, err := json.Marshal(call.Body)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}
			bodyReader = bytes.NewReader(encoded)
			if bodyContentType == "" {
				bodyContentType = "application/json"
			}
		} else {
			// Non-JSON bodies are sent as raw text.
			bodyReader = strings.NewReader(fmt.Sprintf("%v", call.Body))
		}
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if len(call.Query) > 0 {
		q := req.URL.Query()
		for name, value := range call.Query {
			switch v := value.(type) {
			case []any:
				for _, item := range v {
					q.Add(name, fmt.Sprintf("%v", item))
				}
			default:
				q.Set(name, fmt.Sprintf("%v", v))
			}
		}
		// Encode sorts keys, keeping the query string deterministic.
		req.URL.RawQuery = q.Encode()
	}

	for name, value := range call.Header {
		req.Header.Set(name, fmt.Sprintf("%v", value))
	}
	for name, value := range call.Cookie {
		req.AddCookie(&http.Cookie{Name: name, Value: fmt.Sprintf("%v", value)})
	}

	if bodyContentType != "" {
		req.Header.Set("Content-Type", bodyContentType)
	}
	req.Header.Set("Accept", acceptHeader(op))

	d.auth.Apply(req)
	return req, nil
}

func acceptHeader(op *core.Operation) string {
	if len(op.ResponseContentTypes) > 0 {
		return strings.Join(op.ResponseContentTypes, ", ")
	}
	return "application/json"
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(contentType, "json")
}

// classifyTransportError separates deadline expiry from every other exchange
// failure.
func classifyTransportError(err error) *core.TransportFailure {
	kind := core.TransportConnection
	if isTimeout(err) {
		kind = core.TransportTimeout
	}
	return &core.TransportFailure{Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
