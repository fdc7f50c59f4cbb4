package testutil

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LotFixture represents test lot data
type LotFixture struct {
	ID           string
	Name         string
	Quantity     int
	LowThreshold int
	ExpiryDate   *time.Time
	DateAdded    time.Time
}

// NewLotFixture creates a lot fixture with sensible defaults
func NewLotFixture(name string, quantity int, expiry *time.Time) *LotFixture {
	return &LotFixture{
		ID:           uuid.New().String(),
		Name:         name,
		Quantity:     quantity,
		LowThreshold: 10,
		ExpiryDate:   expiry,
		DateAdded:    Midnight(time.Now()),
	}
}

// DispenseFixture represents test dispense event data
type DispenseFixture struct {
	ID            string
	StudentName   string
	Age           *int
	DateDispensed time.Time
	MedName       string
	Quantity      int
}

// NewDispenseFixture creates a dispense event fixture
func NewDispenseFixture(studentName, medName string, quantity int) *DispenseFixture {
	age := 16
	return &DispenseFixture{
		ID:            uuid.New().String(),
		StudentName:   studentName,
		Age:           &age,
		DateDispensed: Midnight(time.Now()),
		MedName:       medName,
		Quantity:      quantity,
	}
}

// Midnight normalizes a time to the start of its calendar day
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysFromNow returns midnight of the day n days from today
func DaysFromNow(n int) *time.Time {
	d := Midnight(time.Now()).AddDate(0, 0, n)
	return &d
}

// HashPassword returns a bcrypt hash for test credentials
func HashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}
