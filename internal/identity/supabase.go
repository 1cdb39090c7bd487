// Package identity signs users in against the external identity provider.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mfalogin/internal/domain"
)

const defaultTimeout = 15 * time.Second

// ErrInvalidCredentials is returned when the provider rejects the email/password pair
var ErrInvalidCredentials = errors.New("identity: invalid credentials")

// SupabaseClient calls the GoTrue password grant of a Supabase project.
// Session tokens in the provider's answer are discarded.
type SupabaseClient struct {
	BaseURL    string
	AnonKey    string
	HTTPClient *http.Client
}

// NewSupabaseClient returns a client for the project at baseURL.
// A non-positive timeout falls back to the default.
func NewSupabaseClient(baseURL, anonKey string, timeout time.Duration) *SupabaseClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SupabaseClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AnonKey:    anonKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type tokenResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// SignInWithPassword verifies the pair and returns the provider's user id and email
func (c *SupabaseClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	raw, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	url := c.BaseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.AnonKey)
	req.Header.Set("Authorization", "Bearer "+c.AnonKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("identity: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, providerDetail(body))
	default:
		return nil, fmt.Errorf("identity: provider status=%d: %s", resp.StatusCode, providerDetail(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("identity: decode response: %w", err)
	}
	if token.User.ID == "" {
		return nil, errors.New("identity: response without user")
	}

	return &domain.Identity{
		ID:    token.User.ID,
		Email: token.User.Email,
	}, nil
}

// providerDetail extracts a readable reason for logs
func providerDetail(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}
