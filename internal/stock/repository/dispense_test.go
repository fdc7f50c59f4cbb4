package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/pkg/testutil"
)

func createDispense(t *testing.T, ctx context.Context, repo *repository.DispenseEventRepository, studentName, medName string, quantity int, date time.Time) *repository.DispenseEvent {
	t.Helper()
	event := &repository.DispenseEvent{
		StudentName:   studentName,
		MedName:       medName,
		Quantity:      quantity,
		DateDispensed: date,
	}
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.Create(ctx, tx, event)
	})
	require.NoError(t, err)
	return event
}

func TestDispenseEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	repo := repository.NewDispenseEventRepository(suite.DB)

	event := createDispense(t, ctx, repo, "Maria Santos", "Paracetamol", 5, testutil.Midnight(time.Now()))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestDispenseEventRepository_ListByDate(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	repo := repository.NewDispenseEventRepository(suite.DB)

	today := testutil.Midnight(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	createDispense(t, ctx, repo, "Maria Santos", "Paracetamol", 5, today)
	createDispense(t, ctx, repo, "Juan Cruz", "Ibuprofen", 2, today)
	createDispense(t, ctx, repo, "Ana Reyes", "Cetirizine", 1, yesterday)

	events, err := repo.ListByDate(ctx, today)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.ListByDate(ctx, yesterday)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Ana Reyes", events[0].StudentName)
}

func TestDispenseEventRepository_ListByDateRange(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	repo := repository.NewDispenseEventRepository(suite.DB)

	base := testutil.Midnight(time.Now())
	for i := 0; i < 5; i++ {
		createDispense(t, ctx, repo, "Maria Santos", "Paracetamol", 1, base.AddDate(0, 0, -i))
	}

	events, err := repo.ListByDateRange(ctx, base.AddDate(0, 0, -2), base)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	// Bounds are inclusive
	events, err = repo.ListByDateRange(ctx, base, base)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestDispenseEventRepository_ListByMonth(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	repo := repository.NewDispenseEventRepository(suite.DB)

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.Local)
	feb := time.Date(2026, 2, 3, 0, 0, 0, 0, time.Local)
	endOfJan := time.Date(2026, 1, 31, 0, 0, 0, 0, time.Local)

	createDispense(t, ctx, repo, "Maria Santos", "Paracetamol", 5, jan)
	createDispense(t, ctx, repo, "Juan Cruz", "Ibuprofen", 2, endOfJan)
	createDispense(t, ctx, repo, "Ana Reyes", "Cetirizine", 1, feb)

	events, err := repo.ListByMonth(ctx, 2026, time.January)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = repo.ListByMonth(ctx, 2026, time.February)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAlertStateRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	repo := repository.NewAlertStateRepository(suite.DB)

	last, err := repo.GetLastNotified(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	today := testutil.Midnight(time.Now())
	require.NoError(t, repo.SetLastNotified(ctx, today))

	last, err = repo.GetLastNotified(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, today.Format("2006-01-02"), last.Format("2006-01-02"))

	// Writing again the same day is an upsert, not an error
	require.NoError(t, repo.SetLastNotified(ctx, today))

	tomorrow := today.AddDate(0, 0, 1)
	require.NoError(t, repo.SetLastNotified(ctx, tomorrow))

	last, err = repo.GetLastNotified(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, tomorrow.Format("2006-01-02"), last.Format("2006-01-02"))
}
