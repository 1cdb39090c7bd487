package testutil

import (
	"context"
	"time"

	"mfalogin/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockCredentialChecker is a mock for login.CredentialChecker
type MockCredentialChecker struct {
	mock.Mock
}

func (m *MockCredentialChecker) CheckCredentials(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// MockOTPService is a mock for login.OTPService
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) GenerateOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockOTPService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	args := m.Called(ctx, email, code)
	return args.String(0), args.Error(1)
}

// MockEventSink is a mock for login.EventSink
type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Record(ctx context.Context, event domain.LoginEvent) {
	m.Called(ctx, event)
}

// MockLoginEventRepository is a mock for repository.LoginEventRepository
type MockLoginEventRepository struct {
	mock.Mock
}

func (m *MockLoginEventRepository) SaveEvent(ctx context.Context, event domain.LoginEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLoginEventRepository) CountRecentFailures(ctx context.Context, subject string, since time.Time) (int, error) {
	args := m.Called(ctx, subject, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLoginEventRepository) CleanOldEvents(ctx context.Context, days int) error {
	args := m.Called(ctx, days)
	return args.Error(0)
}
