package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/medisync/medisync-backend/pkg/database"
)

// AlertStateRepository owns the single persisted alert gate scalar:
// the date the consolidated daily alert was last recorded. It survives
// process restarts so the once-per-day guarantee holds across relaunch.
type AlertStateRepository struct {
	db *database.DB
}

// NewAlertStateRepository creates a new alert state repository
func NewAlertStateRepository(db *database.DB) *AlertStateRepository {
	return &AlertStateRepository{db: db}
}

// GetLastNotified returns the last recorded notification date,
// or nil if no alert has ever been recorded.
func (r *AlertStateRepository) GetLastNotified(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	query := `SELECT last_notified_date FROM alert_state WHERE id = 1`
	if err := r.db.GetContext(ctx, &last, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// SetLastNotified records the given date as the last notification day
func (r *AlertStateRepository) SetLastNotified(ctx context.Context, date time.Time) error {
	query := `
		INSERT INTO alert_state (id, last_notified_date)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_notified_date = EXCLUDED.last_notified_date
	`
	_, err := r.db.ExecContext(ctx, query, date)
	return err
}
