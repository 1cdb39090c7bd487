package repository

import (
	"context"
	"time"

	"mfalogin/internal/domain"
)

// LoginEventRepository defines audit trail operations
type LoginEventRepository interface {
	SaveEvent(ctx context.Context, event domain.LoginEvent) error
	CountRecentFailures(ctx context.Context, subject string, since time.Time) (int, error)
	CleanOldEvents(ctx context.Context, days int) error
}
