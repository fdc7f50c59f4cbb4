package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medisync/medisync-backend/pkg/database"
	"github.com/medisync/medisync-backend/pkg/errors"
)

// Lot represents one batch of a named medicine. Identity for merge purposes
// is the pair (name, expiry_date); a NULL expiry matches only NULL.
type Lot struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Quantity     int        `db:"quantity" json:"quantity"`
	LowThreshold int        `db:"low_threshold" json:"low_threshold"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	DateAdded    time.Time  `db:"date_added" json:"date_added"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LotRepository handles lot persistence
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// Create inserts a new lot
func (r *LotRepository) Create(ctx context.Context, lot *Lot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}

	query := `
		INSERT INTO lots (id, name, quantity, low_threshold, expiry_date, date_added)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.Name, lot.Quantity, lot.LowThreshold, lot.ExpiryDate, lot.DateAdded,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID gets a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id string) (*Lot, error) {
	var lot Lot
	query := `SELECT * FROM lots WHERE id = $1`
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// FindByIdentity looks up a lot by its merge identity (name, expiry_date).
// A nil expiry matches only lots with no expiry. Returns nil when no lot exists.
func (r *LotRepository) FindByIdentity(ctx context.Context, name string, expiry *time.Time) (*Lot, error) {
	var lot Lot
	query := `
		SELECT * FROM lots
		WHERE name = $1 AND (expiry_date = $2 OR (expiry_date IS NULL AND $2::date IS NULL))
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &lot, query, name, expiry); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

// AddQuantity increments a lot's quantity in place
func (r *LotRepository) AddQuantity(ctx context.Context, id string, delta int) error {
	query := `UPDATE lots SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("lot")
	}
	return nil
}

// Update overwrites a lot's editable fields
func (r *LotRepository) Update(ctx context.Context, lot *Lot) error {
	query := `
		UPDATE lots SET
			name = $2, quantity = $3, low_threshold = $4, expiry_date = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		lot.ID, lot.Name, lot.Quantity, lot.LowThreshold, lot.ExpiryDate,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("lot")
	}
	return nil
}

// Delete removes a lot
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM lots WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("lot")
	}
	return nil
}

// List returns all lots ordered by name
func (r *LotRepository) List(ctx context.Context) ([]*Lot, error) {
	var lots []*Lot
	query := `SELECT * FROM lots ORDER BY LOWER(name), expiry_date NULLS LAST`
	if err := r.db.SelectContext(ctx, &lots, query); err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByNameForDispense resolves a lot by exact medicine name.
// When several lots share a name the earliest-expiring one is taken,
// lots without expiry last. Runs inside the dispense transaction.
func (r *LotRepository) FindByNameForDispense(ctx context.Context, tx *sqlx.Tx, name string) (*Lot, error) {
	var lot Lot
	query := `
		SELECT * FROM lots
		WHERE name = $1
		ORDER BY expiry_date ASC NULLS LAST
		LIMIT 1
		FOR UPDATE
	`
	if err := tx.GetContext(ctx, &lot, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("medicine")
		}
		return nil, err
	}
	return &lot, nil
}

// DeductQuantity decrements a lot's quantity within the dispense transaction.
// The WHERE guard keeps quantity from ever going negative even if the caller's
// availability check raced with another writer.
func (r *LotRepository) DeductQuantity(ctx context.Context, tx *sqlx.Tx, id string, qty int) error {
	query := `
		UPDATE lots SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
	`
	result, err := tx.ExecContext(ctx, query, id, qty)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ErrInsufficientStock
	}
	return nil
}
