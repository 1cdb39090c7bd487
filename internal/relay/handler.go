// Package relay exposes the credential check of the identity provider over HTTP.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"mfalogin/internal/domain"
	"mfalogin/internal/identity"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 16

// Authenticator verifies an email/password pair with the identity provider
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
}

type Handler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewHandler(auth Authenticator, logger *zap.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes registers the relay endpoints
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleHealth)
	mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	return mux
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Auth Backend is running!"))
}

// HandleLogin checks credentials and answers with the user's id and email.
// The provider's session tokens are not forwarded.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Malformed login request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Email and password are required"})
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Email and password are required"})
		return
	}

	user, err := h.auth.SignInWithPassword(r.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			h.logger.Info("Login rejected", zap.String("email", email))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
			return
		}
		h.logger.Error("Identity provider call failed", zap.String("email", email), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	h.logger.Info("Login successful", zap.String("email", email), zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		User: userResponse{
			ID:    user.ID,
			Email: user.Email,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
