package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/internal/stock/service"
)

func TestCompose_AllSections(t *testing.T) {
	expiring := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)
	expired := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)

	n := service.Compose(
		[]*repository.Lot{
			{Name: "Ibuprofen", Quantity: 5},
			{Name: "Cetirizine", Quantity: 0},
		},
		[]*repository.Lot{{Name: "Amoxicillin", ExpiryDate: &expiring}},
		[]*repository.Lot{{Name: "Loratadine", ExpiryDate: &expired}},
	)

	assert.Equal(t, "MediSync Stock Alert", n.Title)
	assert.Equal(t,
		"Low stock:\nIbuprofen (5)\nCetirizine (0)\n\nExpiring soon:\nAmoxicillin (2026-04-01)\n\nExpired:\nLoratadine (2026-02-01)",
		n.Body)
	assert.Equal(t, 2, n.LowCount)
	assert.Equal(t, 1, n.ExpiringCount)
	assert.Equal(t, 1, n.ExpiredCount)
}

func TestCompose_OmitsEmptySections(t *testing.T) {
	n := service.Compose(
		[]*repository.Lot{{Name: "Ibuprofen", Quantity: 5}},
		nil,
		nil,
	)

	assert.Equal(t, "Low stock:\nIbuprofen (5)", n.Body)
	assert.NotContains(t, n.Body, "Expiring soon:")
	assert.NotContains(t, n.Body, "Expired:")
}

func TestCompose_PreservesScanOrder(t *testing.T) {
	n := service.Compose(
		[]*repository.Lot{
			{Name: "Zinc", Quantity: 1},
			{Name: "Aspirin", Quantity: 2},
		},
		nil,
		nil,
	)

	assert.Equal(t, "Low stock:\nZinc (1)\nAspirin (2)", n.Body)
}
