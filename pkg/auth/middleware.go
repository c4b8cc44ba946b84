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
	"log"
	"net/http"
	"strings"
)

// AuthError represents an authentication middleware failure.
type AuthError struct {
	Type    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// BearerAuthMiddleware validates incoming Bearer tokens on the HTTP
// transport before requests reach the MCP handler.
type BearerAuthMiddleware struct {
	validator *BearerTokenValidator
	config    *BearerAuthConfig
}

// NewBearerAuthMiddleware creates HTTP middleware for Bearer token
// authentication.
func NewBearerAuthMiddleware(config *BearerAuthConfig) (*BearerAuthMiddleware, error) {
	validator, err := NewBearerTokenValidator(config)
	if err != nil {
		return nil, err
	}
	return &BearerAuthMiddleware{validator: validator, config: config}, nil
}

// ExtractAndValidateToken extracts and validates the Bearer token from a
// request. A nil, nil return means anonymous access was allowed.
func (m *BearerAuthMiddleware) ExtractAndValidateToken(req *http.Request) (*TokenClaims, error) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		if m.config.Required {
			return nil, &AuthError{Type: "missing_token", Message: "Authorization header required"}
		}
		return nil, nil
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return nil, &AuthError{Type: "invalid_format", Message: "Authorization header must use Bearer format"}
	}
	tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
	if tokenString == "" {
		return nil, &AuthError{Type: "empty_token", Message: "Bearer token cannot be empty"}
	}
	return m.validator.ValidateToken(tokenString)
}

// Middleware returns an HTTP middleware that validates Bearer tokens.
func (m *BearerAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.ExtractAndValidateToken(r)
		if err != nil {
			m.handleAuthError(w, err)
			return
		}
		if claims != nil {
			log.Printf("Authenticated request from subject: %s", claims.UserID)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *BearerAuthMiddleware) handleAuthError(w http.ResponseWriter, err error) {
	log.Printf("Authentication error: %v", err)

	if authErr, ok := err.(*AuthError); ok {
		switch authErr.Type {
		case "missing_token":
			http.Error(w, "Authorization required", http.StatusUnauthorized)
		case "invalid_format", "empty_token":
			http.Error(w, "Invalid authorization", http.StatusBadRequest)
		default:
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
		}
		return
	}

	switch {
	case strings.Contains(err.Error(), "insufficient scopes"):
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
	case strings.Contains(err.Error(), "expired"):
		http.Error(w, "Token expired", http.StatusUnauthorized)
	default:
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
	}
}

// Close cleans up middleware resources.
func (m *BearerAuthMiddleware) Close() error {
	return m.validator.Close()
}
