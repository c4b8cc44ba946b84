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

package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oapiproxy/oapiproxy/pkg/auth"
	"github.com/oapiproxy/oapiproxy/pkg/catalog"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
	"github.com/oapiproxy/oapiproxy/pkg/proxy"
	"github.com/oapiproxy/oapiproxy/pkg/server"
	"github.com/oapiproxy/oapiproxy/pkg/spec"
)

// ServeParams holds everything the serve command needs, resolved from flags
// and environment variables.
type ServeParams struct {
	Specs     string
	BaseURL   string
	Transport core.TransportType
	Port      string
	Timeout   time.Duration
	Strict    bool
	DevMode   bool

	ToolPrefix  string
	Whitelist   []string
	StripParams []string

	// Upstream auth.
	BearerToken string
	APIKey      string
	APIKeyName  string
	APIKeyIn    auth.UpstreamLocation

	// Inbound auth (HTTP transport only).
	AuthJWKSUri string
	AuthIssuer  string
	AuthAud     string
	AuthScopes  []string
	AuthReq     bool
}

// Validate checks the parameters for consistency.
func (p *ServeParams) Validate() error {
	if p.Specs == "" {
		return fmt.Errorf("no specification given, use --specs or OPENAPI_SPEC_URL")
	}
	if !p.Transport.IsValid() {
		return fmt.Errorf("unsupported transport type: %s", p.Transport)
	}
	if p.AuthJWKSUri != "" && p.Transport != core.TransportTypeHTTP {
		return fmt.Errorf("inbound authentication requires the http transport")
	}
	return nil
}

// Serve loads the specification, builds the tool catalog, and blocks serving
// MCP until the process ends. SIGHUP reloads the specification in place.
func Serve(ctx context.Context, params *ServeParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	spec.WarnURLSecurity(params.Specs, "OpenAPI spec", params.DevMode)
	spec.WarnURLSecurity(params.BaseURL, "Base URL", params.DevMode)

	model, cat, err := loadCatalog(params)
	if err != nil {
		return err
	}
	log.Printf("Loaded %s %s: %d tools", model.Title, model.Version, cat.Len())

	baseURL, err := resolveBaseURL(params, model)
	if err != nil {
		return err
	}

	upstreamAuth, err := buildUpstreamAuth(params)
	if err != nil {
		return err
	}

	dispatcher, err := proxy.NewDispatcher(proxy.Config{
		BaseURL: baseURL,
		Timeout: params.Timeout,
		Auth:    upstreamAuth,
	})
	if err != nil {
		return err
	}

	svc := proxy.NewService(cat, dispatcher, params.StripParams)
	srv := server.New(model.Title, model.Version, svc)

	reloadOnSighup(params, svc, srv)

	return srv.Start(params.Transport, params.Port, inboundAuthConfig(params))
}

// loadCatalog fetches, parses, and translates the specification.
func loadCatalog(params *ServeParams) (*core.SpecModel, *catalog.Catalog, error) {
	specBytes, err := spec.Fetch(params.Specs)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching specification: %w", err)
	}
	model, err := spec.Load(specBytes, spec.LoadOptions{Strict: params.Strict})
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Build(model, catalog.Options{
		NamePrefix: params.ToolPrefix,
		Whitelist:  params.Whitelist,
	})
	if err != nil {
		return nil, nil, err
	}
	return model, cat, nil
}

// resolveBaseURL picks the upstream root: explicit override first, then the
// specification's first servers entry.
func resolveBaseURL(params *ServeParams, model *core.SpecModel) (string, error) {
	if params.BaseURL != "" {
		return params.BaseURL, nil
	}
	if len(model.Servers) > 0 {
		return model.Servers[0], nil
	}
	return "", fmt.Errorf("specification declares no servers, use --base-url or SERVER_URL_OVERRIDE")
}

func buildUpstreamAuth(params *ServeParams) (auth.UpstreamAuth, error) {
	bearerToken, err := auth.ResolveSecret(params.BearerToken)
	if err != nil {
		return auth.UpstreamAuth{}, fmt.Errorf("resolving bearer token: %w", err)
	}
	apiKey, err := auth.ResolveSecret(params.APIKey)
	if err != nil {
		return auth.UpstreamAuth{}, fmt.Errorf("resolving api key: %w", err)
	}
	upstream := auth.UpstreamAuth{
		BearerToken: bearerToken,
		APIKey:      apiKey,
		APIKeyName:  params.APIKeyName,
		APIKeyIn:    params.APIKeyIn,
	}
	if err := upstream.Validate(); err != nil {
		return auth.UpstreamAuth{}, err
	}
	return upstream, nil
}

func inboundAuthConfig(params *ServeParams) *auth.BearerAuthConfig {
	if params.AuthJWKSUri == "" {
		return nil
	}
	return &auth.BearerAuthConfig{
		Enabled:        true,
		JWKSUri:        params.AuthJWKSUri,
		Issuer:         params.AuthIssuer,
		Audience:       params.AuthAud,
		RequiredScopes: params.AuthScopes,
		Required:       params.AuthReq,
	}
}

// reloadOnSighup re-runs the load pipeline on SIGHUP and swaps the new
// catalog in. A failed reload keeps the current catalog serving.
func reloadOnSighup(params *ServeParams, svc *proxy.Service, srv *server.Server) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			log.Println("SIGHUP received, reloading specification...")
			_, cat, err := loadCatalog(params)
			if err != nil {
				log.Printf("Reload failed, keeping current catalog: %v", err)
				continue
			}
			svc.Reload(cat)
			srv.Reload()
		}
	}()
}
