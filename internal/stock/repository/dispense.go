package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medisync/medisync-backend/pkg/database"
)

// DispenseEvent is one entry in the append-only dispense ledger.
// Events are never mutated or deleted; expiry_date and date_added are
// copied from the resolved lot at dispense time for record-keeping.
type DispenseEvent struct {
	ID            string     `db:"id" json:"id"`
	StudentName   string     `db:"student_name" json:"student_name"`
	Age           *int       `db:"age" json:"age,omitempty"`
	DateDispensed time.Time  `db:"date_dispensed" json:"date_dispensed"`
	MedName       string     `db:"med_name" json:"med_name"`
	Quantity      int        `db:"quantity" json:"quantity"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	DateAdded     *time.Time `db:"date_added" json:"date_added,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// DispenseEventRepository handles the dispense ledger
type DispenseEventRepository struct {
	db *database.DB
}

// NewDispenseEventRepository creates a new dispense event repository
func NewDispenseEventRepository(db *database.DB) *DispenseEventRepository {
	return &DispenseEventRepository{db: db}
}

// Create appends an event within the dispense transaction
func (r *DispenseEventRepository) Create(ctx context.Context, tx *sqlx.Tx, event *DispenseEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
		INSERT INTO dispense_events (
			id, student_name, age, date_dispensed, med_name, quantity, expiry_date, date_added
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		event.ID, event.StudentName, event.Age, event.DateDispensed,
		event.MedName, event.Quantity, event.ExpiryDate, event.DateAdded,
	).Scan(&event.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// ListByDate returns events dispensed on a specific day, newest first
func (r *DispenseEventRepository) ListByDate(ctx context.Context, date time.Time) ([]*DispenseEvent, error) {
	var events []*DispenseEvent
	query := `
		SELECT * FROM dispense_events
		WHERE date_dispensed = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &events, query, date); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByDateRange returns events with date_dispensed in [from, to], newest first
func (r *DispenseEventRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*DispenseEvent, error) {
	var events []*DispenseEvent
	query := `
		SELECT * FROM dispense_events
		WHERE date_dispensed BETWEEN $1 AND $2
		ORDER BY date_dispensed DESC, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, err
	}
	return events, nil
}

// ListByMonth returns events dispensed within a calendar month
func (r *DispenseEventRepository) ListByMonth(ctx context.Context, year int, month time.Month) ([]*DispenseEvent, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return r.ListByDateRange(ctx, first, last)
}

// ListAll returns the full ledger, newest first
func (r *DispenseEventRepository) ListAll(ctx context.Context) ([]*DispenseEvent, error) {
	var events []*DispenseEvent
	query := `SELECT * FROM dispense_events ORDER BY date_dispensed DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, err
	}
	return events, nil
}
