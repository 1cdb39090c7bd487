package client

import (
	"context"
	"net/http"
	"time"

	"mfalogin/internal/domain"
)

const authService = "auth-relay"

// AuthClient checks credentials against the credential relay
type AuthClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewAuthClient returns a client for the relay at baseURL (e.g. http://localhost:3001)
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		BaseURL:    baseURL,
		HTTPClient: newHTTPClient(timeout),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	User    *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// CheckCredentials posts the pair to /api/auth/login.
// The identity email falls back to the submitted email when the relay omits it.
func (c *AuthClient) CheckCredentials(ctx context.Context, email, password string) (*domain.Identity, error) {
	var resp loginResponse
	err := postJSON(ctx, c.HTTPClient, authService, joinURL(c.BaseURL, "/api/auth/login"),
		loginRequest{Email: email, Password: password}, &resp,
		func(payload []byte) string { return field(payload, "error") },
	)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{Email: email}
	if resp.User != nil {
		identity.ID = resp.User.ID
		if resp.User.Email != "" {
			identity.Email = resp.User.Email
		}
	}
	return identity, nil
}
