package service

import (
	"context"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/repository"
)

// Status classifies a lot for display and alerting
type Status string

const (
	StatusOK           Status = "OK"
	StatusLowStock     Status = "LOW_STOCK"
	StatusExpiringSoon Status = "EXPIRING_SOON"
	StatusExpired      Status = "EXPIRED"
)

// DefaultExpiryWindowDays is the lookahead for the expiring soon status
const DefaultExpiryWindowDays = 30

// Classify determines the status of a lot as of the given time.
// Expiry conditions take precedence over quantity: a lot that is both
// expired and below threshold reports EXPIRED. Dates are compared at
// day granularity; a lot expiring today is not yet expired and not
// expiring soon.
func Classify(lot *repository.Lot, asOf time.Time, windowDays int) Status {
	today := midnight(asOf)

	if lot.ExpiryDate != nil {
		days := daysBetween(today, midnight(*lot.ExpiryDate))
		if days < 0 {
			return StatusExpired
		}
		if days > 0 && days <= windowDays {
			return StatusExpiringSoon
		}
	}

	if lot.Quantity <= lot.LowThreshold {
		return StatusLowStock
	}

	return StatusOK
}

// midnight truncates a time to the start of its calendar day
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. Both arguments
// must already be midnights; the UTC re-anchoring makes the division
// exact across DST transitions.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// LotWithStatus is a lot enriched with its computed status
type LotWithStatus struct {
	*repository.Lot
	Status Status `json:"status"`
}

// InventorySummary aggregates the inventory with the actionable lots
// broken out by status
type InventorySummary struct {
	TotalItems    int               `json:"total_items"`
	TotalQuantity int               `json:"total_quantity"`
	Low           []*repository.Lot `json:"low"`
	Expiring      []*repository.Lot `json:"expiring"`
	Expired       []*repository.Lot `json:"expired"`
}

// ListWithStatus returns all lots with their computed status
func (s *StockService) ListWithStatus(ctx context.Context) ([]*LotWithStatus, error) {
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	enriched := make([]*LotWithStatus, 0, len(lots))
	for _, lot := range lots {
		enriched = append(enriched, &LotWithStatus{
			Lot:    lot,
			Status: Classify(lot, now, s.expiryWindowDays),
		})
	}

	return enriched, nil
}

// Summary scans all lots and returns totals plus the actionable lots
// grouped by status, in store iteration order. A nil asOf evaluates
// at the current time.
func (s *StockService) Summary(ctx context.Context, asOf *time.Time) (*InventorySummary, error) {
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if asOf != nil {
		at = *asOf
	}

	return Summarize(lots, at, s.expiryWindowDays), nil
}

// Summarize groups lots by classification as of the given time
func Summarize(lots []*repository.Lot, asOf time.Time, windowDays int) *InventorySummary {
	summary := &InventorySummary{TotalItems: len(lots)}
	for _, lot := range lots {
		summary.TotalQuantity += lot.Quantity
		switch Classify(lot, asOf, windowDays) {
		case StatusExpired:
			summary.Expired = append(summary.Expired, lot)
		case StatusExpiringSoon:
			summary.Expiring = append(summary.Expiring, lot)
		case StatusLowStock:
			summary.Low = append(summary.Low, lot)
		}
	}
	return summary
}
