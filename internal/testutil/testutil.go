package testutil

import (
	"time"

	"mfalogin/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestIdentity creates a verified identity
func NewTestIdentity(id, email string) *domain.Identity {
	return &domain.Identity{
		ID:    id,
		Email: email,
	}
}

// NewTestEvent creates an audit event
func NewTestEvent(subject, email string, step domain.LoginStep, outcome domain.LoginOutcome) domain.LoginEvent {
	return domain.LoginEvent{
		AttemptID: "attempt-1",
		Subject:   subject,
		Email:     email,
		Step:      step,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
}
