package service

import (
	"context"
	"fmt"
	"time"

	"mfalogin/internal/domain"
	"mfalogin/internal/repository"

	"go.uber.org/zap"
)

// RetentionDays is how long login events are kept
const RetentionDays = 90

// AuditService persists login step outcomes and prunes old ones
type AuditService struct {
	repo   repository.LoginEventRepository
	logger *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo repository.LoginEventRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// Record stores an event. A storage failure is logged and never reaches the login flow.
func (s *AuditService) Record(ctx context.Context, event domain.LoginEvent) {
	if err := s.repo.SaveEvent(ctx, event); err != nil {
		s.logger.Error("Failed to save login event",
			zap.String("attempt_id", event.AttemptID),
			zap.String("subject", event.Subject),
			zap.String("step", string(event.Step)),
			zap.String("outcome", string(event.Outcome)),
			zap.Error(err),
		)
	}
}

// RecentFailures counts unsuccessful steps of a subject within the window
func (s *AuditService) RecentFailures(ctx context.Context, subject string, window time.Duration) (int, error) {
	count, err := s.repo.CountRecentFailures(ctx, subject, time.Now().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to count recent failures: %w", err)
	}
	return count, nil
}

// CleanupOldData removes login events older than RetentionDays
func (s *AuditService) CleanupOldData(ctx context.Context) error {
	s.logger.Info("Starting cleanup of old login events", zap.Int("retention_days", RetentionDays))

	err := s.repo.CleanOldEvents(ctx, RetentionDays)
	if err != nil {
		s.logger.Error("Failed to cleanup old login events", zap.Error(err))
		return err
	}

	s.logger.Info("Cleanup completed successfully")
	return nil
}
