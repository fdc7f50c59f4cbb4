package service

import (
	"fmt"
	"strings"

	"github.com/medisync/medisync-backend/internal/stock/notify"
	"github.com/medisync/medisync-backend/internal/stock/repository"
)

// Compose builds the daily alert from classified lots. Each non-empty
// category contributes a labeled section: low-stock lots show their
// quantity, expiring and expired lots show their expiry date. Lots are
// listed in the order they were scanned. Callers must not invoke it
// with three empty lists.
func Compose(low, expiring, expired []*repository.Lot) notify.Notification {
	var b strings.Builder

	writeSection(&b, "Low stock:", low, func(lot *repository.Lot) string {
		return fmt.Sprintf("%s (%d)", lot.Name, lot.Quantity)
	})
	writeSection(&b, "Expiring soon:", expiring, expiryLine)
	writeSection(&b, "Expired:", expired, expiryLine)

	return notify.Notification{
		Title:         "MediSync Stock Alert",
		Body:          strings.TrimRight(b.String(), "\n"),
		LowCount:      len(low),
		ExpiringCount: len(expiring),
		ExpiredCount:  len(expired),
	}
}

func writeSection(b *strings.Builder, label string, lots []*repository.Lot, line func(*repository.Lot) string) {
	if len(lots) == 0 {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(label)
	for _, lot := range lots {
		b.WriteString("\n")
		b.WriteString(line(lot))
	}
	b.WriteString("\n")
}

func expiryLine(lot *repository.Lot) string {
	if lot.ExpiryDate == nil {
		return lot.Name
	}
	return fmt.Sprintf("%s (%s)", lot.Name, lot.ExpiryDate.Format("2006-01-02"))
}
