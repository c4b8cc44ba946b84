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
	"time"

	"github.com/urfave/cli/v3"

	"github.com/oapiproxy/oapiproxy/pkg/auth"
	core "github.com/oapiproxy/oapiproxy/pkg/core"
)

// Commands returns all CLI commands.
func Commands() []*cli.Command {
	return []*cli.Command{serveCommand()}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Translate an OpenAPI specification into MCP tools and proxy tool calls to the API.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "specs",
				Aliases: []string{"s"},
				Sources: cli.EnvVars("OPENAPI_SPEC_URL"),
				Usage:   "Where to find the OpenAPI specification - can be either a properly formed URL, including protocol, or a file path to a JSON or YAML file.",
			},
			&cli.StringFlag{
				Name:    "base-url",
				Aliases: []string{"b"},
				Sources: cli.EnvVars("SERVER_URL_OVERRIDE"),
				Usage:   "Base URL of the upstream API. Overrides the specification's servers entry; required when the specification has none.",
			},
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Value:   string(core.TransportTypeStdio),
				Usage:   "Used transport protocol for this MCP server - can be either stdio or http.",
			},
			&cli.StringFlag{
				Name:  "port",
				Value: "8080",
				Usage: "Defines the port on which the HTTP server is started, ignored if transport is set to stdio.",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "Upper bound for a single upstream request.",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Value: false,
				Usage: "Reject specifications with unparseable fragments instead of skipping them with a warning.",
			},
			&cli.BoolFlag{
				Name:  "dev-mode",
				Value: false,
				Usage: "Enable development mode - suppresses security warnings for local/private URLs. Use only for local development.",
			},
			&cli.StringFlag{
				Name:    "tool-prefix",
				Sources: cli.EnvVars("TOOL_NAME_PREFIX"),
				Usage:   "Prefix prepended to every generated tool name.",
			},
			&cli.StringSliceFlag{
				Name:    "whitelist",
				Sources: cli.EnvVars("TOOL_WHITELIST"),
				Usage:   "Restrict exposed tools to operations whose path starts with one of these prefixes; {placeholder} segments match any value.",
			},
			&cli.StringSliceFlag{
				Name:    "strip-param",
				Sources: cli.EnvVars("STRIP_PARAM"),
				Usage:   "Argument names silently removed from incoming tool calls before mapping.",
			},
			&cli.StringFlag{
				Name:    "bearer-token",
				Sources: cli.EnvVars("API_KEY"),
				Usage:   "Token sent as 'Authorization: Bearer <token>' on every upstream request. ${VAR} reads the value from the environment.",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key injected into every upstream request. ${VAR} reads the value from the environment.",
			},
			&cli.StringFlag{
				Name:  "api-key-name",
				Value: auth.DefaultAPIKeyHeader,
				Usage: "Header or query parameter name carrying the API key.",
			},
			&cli.StringFlag{
				Name:  "api-key-in",
				Value: string(auth.UpstreamLocationHeader),
				Usage: "Where the API key is injected - header or query.",
			},
			&cli.StringFlag{
				Name:  "auth-jwks-uri",
				Usage: "JWKS endpoint for validating incoming Bearer tokens on the HTTP transport. Setting this enables inbound authentication.",
			},
			&cli.StringFlag{
				Name:  "auth-issuer",
				Usage: "Expected issuer claim of incoming Bearer tokens.",
			},
			&cli.StringFlag{
				Name:  "auth-audience",
				Usage: "Expected audience claim of incoming Bearer tokens.",
			},
			&cli.StringSliceFlag{
				Name:  "auth-scopes",
				Usage: "Scopes an incoming Bearer token must carry.",
			},
			&cli.BoolFlag{
				Name:  "auth-required",
				Usage: "Reject unauthenticated requests instead of letting them pass anonymously.",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			params := &ServeParams{
				Specs:       cmd.String("specs"),
				BaseURL:     cmd.String("base-url"),
				Transport:   core.TransportType(cmd.String("transport")),
				Port:        cmd.String("port"),
				Timeout:     cmd.Duration("timeout"),
				Strict:      cmd.Bool("strict"),
				DevMode:     cmd.Bool("dev-mode"),
				ToolPrefix:  cmd.String("tool-prefix"),
				Whitelist:   cmd.StringSlice("whitelist"),
				StripParams: cmd.StringSlice("strip-param"),
				BearerToken: cmd.String("bearer-token"),
				APIKey:      cmd.String("api-key"),
				APIKeyName:  cmd.String("api-key-name"),
				APIKeyIn:    auth.UpstreamLocation(cmd.String("api-key-in")),
				AuthJWKSUri: cmd.String("auth-jwks-uri"),
				AuthIssuer:  cmd.String("auth-issuer"),
				AuthAud:     cmd.String("auth-audience"),
				AuthScopes:  cmd.StringSlice("auth-scopes"),
				AuthReq:     cmd.Bool("auth-required"),
			}
			return Serve(ctx, params)
		},
	}
}
