package service

import (
	"context"
	"strings"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/events"
	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/pkg/database"
	"github.com/medisync/medisync-backend/pkg/errors"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// StockService handles lot intake, editing and dispensing
type StockService struct {
	db               *database.DB
	lotRepo          *repository.LotRepository
	dispenseRepo     *repository.DispenseEventRepository
	publisher        *events.StockEventPublisher
	logger           *logger.Logger
	expiryWindowDays int
	now              func() time.Time
}

// NewStockService creates a new stock service
func NewStockService(
	db *database.DB,
	lotRepo *repository.LotRepository,
	dispenseRepo *repository.DispenseEventRepository,
	publisher *events.StockEventPublisher,
	expiryWindowDays int,
	log *logger.Logger,
) *StockService {
	if expiryWindowDays <= 0 {
		expiryWindowDays = DefaultExpiryWindowDays
	}

	return &StockService{
		db:               db,
		lotRepo:          lotRepo,
		dispenseRepo:     dispenseRepo,
		publisher:        publisher,
		logger:           log,
		expiryWindowDays: expiryWindowDays,
		now:              time.Now,
	}
}

// WithClock overrides the service's time source
func (s *StockService) WithClock(now func() time.Time) *StockService {
	s.now = now
	return s
}

// IntakeInput is a stock intake request
type IntakeInput struct {
	Name         string
	Quantity     int
	LowThreshold int
	Expiry       *time.Time
}

// IntakeResult reports whether intake created a new lot or merged into
// an existing one
type IntakeResult struct {
	Lot    *repository.Lot `json:"lot"`
	Merged bool            `json:"merged"`
}

// AddOrMergeStock records a stock intake. When a lot with the same name
// and expiry date already exists, the quantity is added to it and its
// low threshold is left untouched. Otherwise a new lot is created.
func (s *StockService) AddOrMergeStock(ctx context.Context, input IntakeInput) (*IntakeResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("medicine name is required")
	}
	if input.Quantity <= 0 {
		return nil, errors.BadRequest("intake quantity must be positive")
	}
	if input.LowThreshold < 0 {
		return nil, errors.BadRequest("low threshold cannot be negative")
	}

	result, err := s.intake(ctx, name, input)
	if err != nil && errors.Is(err, errors.ErrConflict) {
		// Lost a create race against a concurrent intake with the same
		// identity. The winner's lot exists now, so merging must succeed.
		result, err = s.intake(ctx, name, input)
	}
	if err != nil {
		return nil, err
	}

	s.publisher.PublishIntake(ctx, result.Lot, result.Merged)

	s.logger.Info().
		Str("lot_id", result.Lot.ID).
		Str("name", result.Lot.Name).
		Int("quantity", input.Quantity).
		Bool("merged", result.Merged).
		Msg("stock intake recorded")

	return result, nil
}

func (s *StockService) intake(ctx context.Context, name string, input IntakeInput) (*IntakeResult, error) {
	existing, err := s.lotRepo.FindByIdentity(ctx, name, input.Expiry)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.lotRepo.AddQuantity(ctx, existing.ID, input.Quantity); err != nil {
			return nil, err
		}
		merged, err := s.lotRepo.GetByID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return &IntakeResult{Lot: merged, Merged: true}, nil
	}

	lot := &repository.Lot{
		Name:         name,
		Quantity:     input.Quantity,
		LowThreshold: input.LowThreshold,
		ExpiryDate:   input.Expiry,
		DateAdded:    midnight(s.now()),
	}
	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	return &IntakeResult{Lot: lot, Merged: false}, nil
}

// EditInput is a lot correction request
type EditInput struct {
	Name         string
	Quantity     int
	LowThreshold int
	Expiry       *time.Time
}

// EditStock overwrites a lot's fields. An edit that would give the lot
// the same name and expiry date as another lot is rejected; corrections
// never merge.
func (s *StockService) EditStock(ctx context.Context, id string, input EditInput) (*repository.Lot, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("medicine name is required")
	}
	if input.Quantity < 0 {
		return nil, errors.BadRequest("quantity cannot be negative")
	}
	if input.LowThreshold < 0 {
		return nil, errors.BadRequest("low threshold cannot be negative")
	}

	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	other, err := s.lotRepo.FindByIdentity(ctx, name, input.Expiry)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != lot.ID {
		return nil, errors.Conflict("a lot with this name and expiry date already exists")
	}

	lot.Name = name
	lot.Quantity = input.Quantity
	lot.LowThreshold = input.LowThreshold
	lot.ExpiryDate = input.Expiry

	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, err
	}

	s.publisher.PublishEdited(ctx, lot)

	s.logger.Info().Str("lot_id", lot.ID).Str("name", lot.Name).Msg("lot updated")

	return lot, nil
}

// RemoveStock deletes a lot
func (s *StockService) RemoveStock(ctx context.Context, id string) error {
	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.lotRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishRemoved(ctx, lot)

	s.logger.Info().Str("lot_id", lot.ID).Str("name", lot.Name).Msg("lot removed")

	return nil
}

// GetLot returns a single lot with its status
func (s *StockService) GetLot(ctx context.Context, id string) (*LotWithStatus, error) {
	lot, err := s.lotRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &LotWithStatus{Lot: lot, Status: Classify(lot, s.now(), s.expiryWindowDays)}, nil
}
