package postgres

import (
	"context"
	"database/sql"
	"time"

	"mfalogin/internal/domain"
)

// LoginEventRepo implements repository.LoginEventRepository
type LoginEventRepo struct {
	db *sql.DB
}

// NewLoginEventRepo creates a new login event repository
func NewLoginEventRepo(db *sql.DB) *LoginEventRepo {
	return &LoginEventRepo{db: db}
}

// SaveEvent appends one step outcome to the audit trail
func (r *LoginEventRepo) SaveEvent(ctx context.Context, event domain.LoginEvent) error {
	query := `
		INSERT INTO login_events (attempt_id, subject, email, step, outcome, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.AttemptID,
		event.Subject,
		event.Email,
		string(event.Step),
		string(event.Outcome),
		event.Detail,
	)
	return err
}

// CountRecentFailures counts failed and rejected steps of a subject since the given time
func (r *LoginEventRepo) CountRecentFailures(ctx context.Context, subject string, since time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM login_events
		WHERE subject = $1 AND outcome <> $2 AND created_at >= $3
	`
	err := r.db.QueryRowContext(ctx, query, subject, string(domain.OutcomeSuccess), since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CleanOldEvents deletes events older than specified days
func (r *LoginEventRepo) CleanOldEvents(ctx context.Context, days int) error {
	query := `
		DELETE FROM login_events
		WHERE created_at < NOW() - INTERVAL '1 day' * $1
	`
	_, err := r.db.ExecContext(ctx, query, days)
	return err
}
