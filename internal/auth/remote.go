package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RemoteAuthenticator asks a GoTrue-compatible auth server who owns a token
// (GET {baseURL}/user).
type RemoteAuthenticator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemote creates a RemoteAuthenticator with a traced HTTP client.
func NewRemote(baseURL, apiKey string, timeout time.Duration) (*RemoteAuthenticator, error) {
	if baseURL == "" {
		return nil, errors.New("auth url is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteAuthenticator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

var _ Authenticator = (*RemoteAuthenticator)(nil)

type remoteUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

func (a *RemoteAuthenticator) Resolve(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if a.apiKey != "" {
		req.Header.Set("apikey", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth server returned %d", resp.StatusCode)
	}

	var u remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode auth user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user without id", ErrInvalidToken)
	}

	return &Identity{
		ID:    u.ID,
		Email: u.Email,
		Role: roleFromClaims(map[string]any{
			"user_metadata": u.UserMetadata,
			"app_metadata":  u.AppMetadata,
			"role":          u.Role,
		}),
	}, nil
}
