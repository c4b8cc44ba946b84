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
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// BearerAuthConfig holds JWT Bearer token validation settings for the HTTP
// transport. Callers of the stdio transport never pass through here.
type BearerAuthConfig struct {
	// Enabled determines if Bearer token authentication is active.
	Enabled bool `json:"enabled"`

	// Key source (mutually exclusive).
	JWKSUri   string `json:"jwksUri,omitempty"`   // JWKS endpoint for key discovery
	PublicKey string `json:"publicKey,omitempty"` // RSA public key, PEM format

	// Algorithm is the expected JWT signing algorithm (RS256 default).
	Algorithm string `json:"algorithm"`

	// Claims validation.
	Issuer         string   `json:"issuer,omitempty"`
	Audience       string   `json:"audience,omitempty"`
	RequiredScopes []string `json:"requiredScopes,omitempty"`

	// Required makes authentication mandatory; otherwise anonymous
	// requests pass through.
	Required bool `json:"required"`

	// CacheTTL is the JWKS refresh interval in seconds.
	CacheTTL int `json:"cacheTtl"`
}

// Validate checks the configuration for consistency and fills defaults.
func (c *BearerAuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWKSUri == "" && c.PublicKey == "" {
		return fmt.Errorf("either jwksUri or publicKey must be provided when authentication is enabled")
	}
	if c.JWKSUri != "" && c.PublicKey != "" {
		return fmt.Errorf("cannot specify both jwksUri and publicKey, choose one")
	}
	if c.JWKSUri != "" && !strings.HasPrefix(c.JWKSUri, "https://") {
		return fmt.Errorf("jwksUri must use HTTPS")
	}
	if c.Algorithm == "" {
		c.Algorithm = "RS256"
	}
	if !isValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("unsupported JWT algorithm: %s", c.Algorithm)
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 300
	}
	if c.CacheTTL > 3600 {
		return fmt.Errorf("cacheTtl cannot exceed 3600 seconds (1 hour)")
	}
	return nil
}

func isValidAlgorithm(alg string) bool {
	supported := []string{
		"RS256", "RS384", "RS512",
		"ES256", "ES384", "ES512",
		"PS256", "PS384", "PS512",
	}
	return slices.Contains(supported, alg)
}

// TokenClaims represents validated JWT claims with standard and custom fields.
type TokenClaims struct {
	jwt.RegisteredClaims
	Scopes   []string `json:"scope,omitempty"`
	UserID   string   `json:"sub"`
	Username string   `json:"preferred_username,omitempty"`
}

// BearerTokenValidator validates incoming JWT bearer tokens; golang-jwt does
// the parsing and signature work, keyfunc supplies JWKS keys.
type BearerTokenValidator struct {
	config  *BearerAuthConfig
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
	parser  *jwt.Parser
}

// NewBearerTokenValidator creates a validator from a validated config.
func NewBearerTokenValidator(config *BearerAuthConfig) (*BearerTokenValidator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bearer auth configuration: %w", err)
	}

	v := &BearerTokenValidator{config: config}
	if err := v.initializeKeyFunc(); err != nil {
		return nil, fmt.Errorf("failed to initialize key function: %w", err)
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{config.Algorithm}),
	}
	if config.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(config.Audience))
	}
	v.parser = jwt.NewParser(parserOptions...)
	return v, nil
}

func (v *BearerTokenValidator) initializeKeyFunc() error {
	if v.config.JWKSUri != "" {
		jwks, err := keyfunc.Get(v.config.JWKSUri, keyfunc.Options{
			RefreshInterval: time.Duration(v.config.CacheTTL) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to get JWKS from %s: %w", v.config.JWKSUri, err)
		}
		v.jwks = jwks
		v.keyFunc = jwks.Keyfunc
		return nil
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(v.config.PublicKey))
	if err != nil {
		return fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	v.keyFunc = func(token *jwt.Token) (any, error) {
		return publicKey, nil
	}
	return nil
}

// ValidateToken validates a JWT and returns its claims.
func (v *BearerTokenValidator) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &TokenClaims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if err := v.validateScopes(claims.Scopes); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *BearerTokenValidator) validateScopes(tokenScopes []string) error {
	for _, required := range v.config.RequiredScopes {
		if !slices.Contains(tokenScopes, required) {
			return fmt.Errorf("insufficient scopes: requires %s, has %s",
				strings.Join(v.config.RequiredScopes, ", "),
				strings.Join(tokenScopes, ", "))
		}
	}
	return nil
}

// Close cleans up background JWKS refresh resources.
func (v *BearerTokenValidator) Close() error {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
	return nil
}
