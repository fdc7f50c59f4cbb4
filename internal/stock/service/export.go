package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/repository"
)

// ExportInventoryCSV writes the full inventory as CSV
func (s *StockService) ExportInventoryCSV(ctx context.Context, w io.Writer) error {
	lots, err := s.lotRepo.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Name", "Quantity", "Low Threshold", "Expiry Date", "Date Added", "Status"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	now := s.now()
	for _, lot := range lots {
		record := []string{
			lot.ID,
			lot.Name,
			strconv.Itoa(lot.Quantity),
			strconv.Itoa(lot.LowThreshold),
			formatDate(lot.ExpiryDate),
			lot.DateAdded.Format("2006-01-02"),
			string(Classify(lot, now, s.expiryWindowDays)),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportDispensesCSV writes the dispense ledger as CSV. A nil range
// exports all entries.
func (s *StockService) ExportDispensesCSV(ctx context.Context, w io.Writer, from, to *time.Time) error {
	var events []*repository.DispenseEvent
	var err error

	if from != nil && to != nil {
		events, err = s.ListDispensesByRange(ctx, *from, *to)
	} else {
		events, err = s.dispenseRepo.ListAll(ctx)
	}
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Student Name", "Age", "Date Dispensed", "Medicine Name", "Quantity", "Expiry Date", "Date Added"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, event := range events {
		age := ""
		if event.Age != nil {
			age = strconv.Itoa(*event.Age)
		}
		record := []string{
			event.ID,
			event.StudentName,
			age,
			event.DateDispensed.Format("2006-01-02"),
			event.MedName,
			strconv.Itoa(event.Quantity),
			formatDate(event.ExpiryDate),
			formatDate(event.DateAdded),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
