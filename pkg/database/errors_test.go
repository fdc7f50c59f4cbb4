package database_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisync/medisync-backend/pkg/database"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantNil    bool
		wantStatus int
		wantCode   string
	}{
		{
			name:    "not a pq error",
			err:     errors.New("plain error"),
			wantNil: true,
		},
		{
			name:       "unique lot identity",
			err:        &pq.Error{Code: "23505", Constraint: "lots_name_expiry_key"},
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "negative quantity check",
			err:        &pq.Error{Code: "23514", Constraint: "lots_quantity_nonnegative"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "dispense quantity check",
			err:        &pq.Error{Code: "23514", Constraint: "dispense_quantity_positive"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "not null violation",
			err:        &pq.Error{Code: "23502", Column: "name"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:    "unmapped pq code",
			err:     &pq.Error{Code: "57014"},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := database.MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestMapPQError_UniqueMessage(t *testing.T) {
	appErr := database.MapPQError(&pq.Error{Code: "23505", Constraint: "lots_name_expiry_key"})
	require.NotNil(t, appErr)
	assert.Equal(t, "a lot with this name and expiry date already exists", appErr.Message)
}
