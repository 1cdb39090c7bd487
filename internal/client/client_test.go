package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mfalogin/internal/domain"
	"mfalogin/internal/login"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ login.CredentialChecker = (*AuthClient)(nil)
	_ login.OTPService        = (*OTPClient)(nil)
)

func TestNewAuthClient_Defaults(t *testing.T) {
	c := NewAuthClient("http://localhost:3001", 0)

	assert.Equal(t, "http://localhost:3001", c.BaseURL)
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, defaultTimeout, c.HTTPClient.Timeout)
}

func TestAuthClient_CheckCredentials_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Login successful","user":{"id":"u1","email":"a@b.com"}}`))
	}))
	defer server.Close()

	c := NewAuthClient(server.URL+"/", time.Second)
	identity, err := c.CheckCredentials(context.Background(), "a@b.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{ID: "u1", Email: "a@b.com"}, identity)
}

func TestAuthClient_CheckCredentials_FallbackEmail(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		expectedID string
	}{
		{name: "user without email", body: `{"message":"Login successful","user":{"id":"u1"}}`, expectedID: "u1"},
		{name: "no user", body: `{"message":"Login successful"}`, expectedID: ""},
		{name: "empty body", body: ``, expectedID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			identity, err := NewAuthClient(server.URL, time.Second).CheckCredentials(context.Background(), "c@d.com", "pw")

			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, identity.ID)
			assert.Equal(t, "c@d.com", identity.Email)
		})
	}
}

func TestAuthClient_CheckCredentials_Failure(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
	}{
		{name: "invalid credentials", status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`, expectedMessage: "Invalid credentials"},
		{name: "missing fields", status: http.StatusBadRequest, body: `{"error":"Email and password are required"}`, expectedMessage: "Email and password are required"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"Internal server error"}`, expectedMessage: "Internal server error"},
		{name: "non json body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, expectedMessage: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			identity, err := NewAuthClient(server.URL, time.Second).CheckCredentials(context.Background(), "a@b.com", "pw")

			assert.Nil(t, identity)
			var svcErr *domain.ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, "auth-relay", svcErr.Service)
			assert.Equal(t, tt.status, svcErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, svcErr.Message)
		})
	}
}

func TestAuthClient_CheckCredentials_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewAuthClient(url, time.Second).CheckCredentials(context.Background(), "a@b.com", "pw")

	require.Error(t, err)
	var svcErr *domain.ServiceError
	assert.False(t, errors.As(err, &svcErr))
}

func TestOTPClient_GenerateOTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-otp", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])
		_, hasOTP := body["otp"]
		assert.False(t, hasOTP)

		w.Write([]byte(`{"message":"OTP sent successfully"}`))
	}))
	defer server.Close()

	message, err := NewOTPClient(server.URL, time.Second).GenerateOTP(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "OTP sent successfully", message)
}

func TestOTPClient_VerifyOTP(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		expectedError   bool
		errMessage      string
	}{
		{
			name:            "verified",
			status:          http.StatusOK,
			body:            `{"message":"Verification successful"}`,
			expectedMessage: "Verification successful",
		},
		{
			name:          "wrong code",
			status:        http.StatusBadRequest,
			body:          `{"message":"Invalid or expired OTP"}`,
			expectedError: true,
			errMessage:    "Invalid or expired OTP",
		},
		{
			name:          "failure without body",
			status:        http.StatusInternalServerError,
			body:          ``,
			expectedError: true,
			errMessage:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/verify-otp", r.URL.Path)

				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "a@b.com", body["email"])
				assert.Equal(t, "123456", body["otp"])

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			message, err := NewOTPClient(server.URL, time.Second).VerifyOTP(context.Background(), "a@b.com", "123456")

			if tt.expectedError {
				var svcErr *domain.ServiceError
				require.True(t, errors.As(err, &svcErr))
				assert.Equal(t, "otp", svcErr.Service)
				assert.Equal(t, tt.status, svcErr.StatusCode)
				assert.Equal(t, tt.errMessage, svcErr.Message)
				assert.Empty(t, message)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedMessage, message)
			}
		})
	}
}

func TestOTPClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"OTP sent successfully"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOTPClient(server.URL, time.Second).GenerateOTP(ctx, "a@b.com")

	assert.ErrorIs(t, err, context.Canceled)
}
