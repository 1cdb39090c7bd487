// Package client talks to the external credential relay and OTP service over JSON/HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mfalogin/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes bounds how much of a response body is read
	maxBodyBytes = 1 << 20
)

// postJSON sends body to url and decodes a 2xx answer into out.
// A non-2xx answer becomes a *domain.ServiceError whose message is extracted by detail.
func postJSON(ctx context.Context, httpClient *http.Client, service, url string, body, out interface{}, detail func([]byte) string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", service, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ServiceError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    detail(payload),
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func joinURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// field returns a top-level string field of a JSON object, or "" if absent
func field(payload []byte, name string) string {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return ""
	}
	s, _ := obj[name].(string)
	return strings.TrimSpace(s)
}
