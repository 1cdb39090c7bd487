package domain

import "fmt"

// ServiceError is a non-2xx answer from an external service
type ServiceError struct {
	Service    string
	StatusCode int
	// Message is the detail text from the response body, empty if none was sent
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed status=%d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: request failed status=%d: %s", e.Service, e.StatusCode, e.Message)
}

// ClientError reports a 4xx status
func (e *ServiceError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
