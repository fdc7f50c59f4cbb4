package service

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/pkg/errors"
)

// DispenseInput is a dispense request
type DispenseInput struct {
	StudentName string
	Age         *int
	MedName     string
	Quantity    int
	Date        *time.Time
}

// DispenseResult is the recorded event plus the lot's remaining quantity
type DispenseResult struct {
	Event     *repository.DispenseEvent `json:"event"`
	Remaining int                       `json:"remaining"`
}

// Dispense records a dispense event and deducts the quantity from the
// matching lot in one transaction. The lot is resolved by exact medicine
// name; when several lots share the name the one expiring first is
// drawn down. A request that exceeds the lot's quantity fails without
// writing anything.
func (s *StockService) Dispense(ctx context.Context, input DispenseInput) (*DispenseResult, error) {
	studentName := strings.TrimSpace(input.StudentName)
	medName := strings.TrimSpace(input.MedName)
	if studentName == "" {
		return nil, errors.BadRequest("student name is required")
	}
	if medName == "" {
		return nil, errors.BadRequest("medicine name is required")
	}
	if input.Quantity <= 0 {
		return nil, errors.BadRequest("dispense quantity must be positive")
	}
	if input.Age != nil && *input.Age < 0 {
		return nil, errors.BadRequest("age cannot be negative")
	}

	date := midnight(s.now())
	if input.Date != nil {
		date = midnight(*input.Date)
	}

	var event *repository.DispenseEvent
	var remaining int

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lot, err := s.lotRepo.FindByNameForDispense(ctx, tx, medName)
		if err != nil {
			return err
		}

		if lot.Quantity < input.Quantity {
			return errors.InsufficientStock(medName, input.Quantity, lot.Quantity)
		}

		if err := s.lotRepo.DeductQuantity(ctx, tx, lot.ID, input.Quantity); err != nil {
			if errors.Is(err, errors.ErrInsufficientStock) {
				return errors.InsufficientStock(medName, input.Quantity, lot.Quantity)
			}
			return err
		}
		remaining = lot.Quantity - input.Quantity

		dateAdded := lot.DateAdded
		event = &repository.DispenseEvent{
			StudentName:   studentName,
			Age:           input.Age,
			DateDispensed: date,
			MedName:       lot.Name,
			Quantity:      input.Quantity,
			ExpiryDate:    lot.ExpiryDate,
			DateAdded:     &dateAdded,
		}

		return s.dispenseRepo.Create(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishDispensed(ctx, event, remaining)

	s.logger.Info().
		Str("event_id", event.ID).
		Str("med_name", event.MedName).
		Int("quantity", event.Quantity).
		Int("remaining", remaining).
		Msg("medicine dispensed")

	return &DispenseResult{Event: event, Remaining: remaining}, nil
}

// ListDispensesByDate returns the ledger entries recorded on a calendar day
func (s *StockService) ListDispensesByDate(ctx context.Context, date time.Time) ([]*repository.DispenseEvent, error) {
	return s.dispenseRepo.ListByDate(ctx, midnight(date))
}

// ListDispensesByMonth returns the ledger entries for a calendar month
func (s *StockService) ListDispensesByMonth(ctx context.Context, year int, month time.Month) ([]*repository.DispenseEvent, error) {
	return s.dispenseRepo.ListByMonth(ctx, year, month)
}

// ListDispensesByRange returns the ledger entries between two dates inclusive
func (s *StockService) ListDispensesByRange(ctx context.Context, from, to time.Time) ([]*repository.DispenseEvent, error) {
	if to.Before(from) {
		return nil, errors.BadRequest("range end cannot be before range start")
	}
	return s.dispenseRepo.ListByDateRange(ctx, midnight(from), midnight(to))
}
