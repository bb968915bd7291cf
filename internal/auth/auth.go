// Package auth resolves bearer credentials into caller identities.
// Every HTTP handler reads the caller through this one interface instead of
// inspecting headers or cookies itself.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bms/internal/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is an authenticated caller.
// Role is empty when the credential does not carry an application role.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Authenticator resolves a raw bearer token to an identity.
// Implementations return an error wrapping ErrInvalidToken for rejected credentials.
type Authenticator interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// New builds the authenticator selected by cfg.Provider.
func New(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Provider {
	case config.AuthProviderJWT:
		a, err := NewJWT(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.AuthProviderRemote:
		a, err := NewRemote(cfg.URL, cfg.APIKey, cfg.Timeout())
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported auth provider: %s", cfg.Provider)
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// roleFromClaims finds the application role in the usual claim locations.
// The generic "authenticated"/"anon" database roles are not application roles.
func roleFromClaims(claims map[string]any) string {
	for _, key := range []string{"user_metadata", "app_metadata"} {
		if md, ok := claims[key].(map[string]any); ok {
			if r, ok := md["role"].(string); ok && r != "" {
				return r
			}
		}
	}
	if r, ok := claims["role"].(string); ok {
		switch r {
		case "", "authenticated", "anon", "service_role":
			return ""
		}
		return r
	}
	return ""
}
