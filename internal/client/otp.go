package client

import (
	"context"
	"net/http"
	"time"
)

const otpService = "otp"

// OTPClient calls the OTP service's generate and verify endpoints
type OTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewOTPClient returns a client for the OTP service at baseURL (e.g. http://localhost:5001)
func NewOTPClient(baseURL string, timeout time.Duration) *OTPClient {
	return &OTPClient{
		BaseURL:    baseURL,
		HTTPClient: newHTTPClient(timeout),
	}
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// GenerateOTP asks the service to send a code to email and returns its status message
func (c *OTPClient) GenerateOTP(ctx context.Context, email string) (string, error) {
	return c.post(ctx, "/generate-otp", otpRequest{Email: email})
}

// VerifyOTP checks code for email and returns the service's status message
func (c *OTPClient) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	return c.post(ctx, "/verify-otp", otpRequest{Email: email, OTP: code})
}

func (c *OTPClient) post(ctx context.Context, path string, body otpRequest) (string, error) {
	var resp messageResponse
	err := postJSON(ctx, c.HTTPClient, otpService, joinURL(c.BaseURL, path), body, &resp,
		func(payload []byte) string { return field(payload, "message") },
	)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
