package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisync/medisync-backend/internal/stock/handler"
	"github.com/medisync/medisync-backend/internal/stock/repository"
	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/auth"
	"github.com/medisync/medisync-backend/pkg/config"
	"github.com/medisync/medisync-backend/pkg/logger"
	"github.com/medisync/medisync-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer suite.Cleanup(ctx)
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func newTestService() *service.StockService {
	lotRepo := repository.NewLotRepository(suite.DB)
	dispenseRepo := repository.NewDispenseEventRepository(suite.DB)
	log := logger.New("test", "test")

	return service.NewStockService(suite.DB, lotRepo, dispenseRepo, nil, 30, log)
}

func newTestRouter() chi.Router {
	svc := newTestService()
	log := logger.New("test", "test")

	lotHandler := handler.NewLotHandler(svc, log)
	dispenseHandler := handler.NewDispenseHandler(svc, log)
	exportHandler := handler.NewExportHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Route("/lots", func(r chi.Router) {
			r.Get("/", lotHandler.List)
			r.Post("/", lotHandler.Intake)
			r.Get("/{id}", lotHandler.Get)
			r.Put("/{id}", lotHandler.Update)
			r.Delete("/{id}", lotHandler.Delete)
		})
		r.Get("/summary", lotHandler.Summary)
		r.Route("/dispenses", func(r chi.Router) {
			r.Get("/", dispenseHandler.List)
			r.Post("/", dispenseHandler.Create)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/inventory", exportHandler.ExportInventory)
			r.Get("/dispenses", exportHandler.ExportDispenses)
		})
	})
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIntakeEndpoint(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":        "Paracetamol",
		"quantity":    50,
		"expiry_date": "2027-06-01",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Same identity merges and reports 200
	rec = doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":        "Paracetamol",
		"quantity":    20,
		"expiry_date": "2027-06-01",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Merged bool `json:"merged"`
			Lot    struct {
				Quantity     int `json:"quantity"`
				LowThreshold int `json:"low_threshold"`
			} `json:"lot"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Merged)
	assert.Equal(t, 70, resp.Data.Lot.Quantity)
	assert.Equal(t, handler.DefaultLowThreshold, resp.Data.Lot.LowThreshold)
}

func TestIntakeEndpoint_Validation(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":     "Paracetamol",
		"quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":        "Paracetamol",
		"quantity":    10,
		"expiry_date": "01-06-2027",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispenseEndpoint(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":     "Ibuprofen",
		"quantity": 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/stock/dispenses", map[string]interface{}{
		"student_name": "Maria Santos",
		"age":          16,
		"med_name":     "Ibuprofen",
		"quantity":     5,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			Remaining int `json:"remaining"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 25, resp.Data.Remaining)

	// Exceeding the lot quantity reports a conflict and changes nothing
	rec = doJSON(t, router, http.MethodPost, "/api/v1/stock/dispenses", map[string]interface{}{
		"student_name": "Maria Santos",
		"med_name":     "Ibuprofen",
		"quantity":     100,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown medicine reports not found
	rec = doJSON(t, router, http.MethodPost, "/api/v1/stock/dispenses", map[string]interface{}{
		"student_name": "Maria Santos",
		"med_name":     "Amoxicillin",
		"quantity":     1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":          "Ibuprofen",
		"quantity":      2,
		"low_threshold": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			TotalItems    int               `json:"total_items"`
			TotalQuantity int               `json:"total_quantity"`
			Low           []json.RawMessage `json:"low"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.TotalItems)
	assert.Equal(t, 2, resp.Data.TotalQuantity)
	assert.Len(t, resp.Data.Low, 1)
}

func TestSummaryEndpoint_AsOf(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":          "Paracetamol",
		"quantity":      50,
		"low_threshold": 10,
		"expiry_date":   time.Now().AddDate(0, 0, 90).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			Expiring []json.RawMessage `json:"expiring"`
			Expired  []json.RawMessage `json:"expired"`
		} `json:"data"`
	}

	// Evaluated at today the lot is outside the expiry window
	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Expiring)

	asOf := time.Now().AddDate(0, 0, 80).Format("2006-01-02")
	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/summary?as_of="+asOf, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp.Data.Expiring = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Expiring, 1)

	asOf = time.Now().AddDate(0, 0, 100).Format("2006-01-02")
	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/summary?as_of="+asOf, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp.Data.Expiring, resp.Data.Expired = nil, nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.Expiring)
	assert.Len(t, resp.Data.Expired, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/summary?as_of=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoints(t *testing.T) {
	ctx := context.Background()
	suite.Reset(t, ctx)
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/stock/lots", map[string]interface{}{
		"name":     "Paracetamol",
		"quantity": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/export/inventory", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "medisync_inventory_")
	assert.Contains(t, rec.Body.String(), "Paracetamol")

	rec = doJSON(t, router, http.MethodGet, "/api/v1/stock/export/dispenses", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "medisync_dispensed_")
}

func TestLoginEndpoint(t *testing.T) {
	authCfg := &config.AuthConfig{
		Username:     "nurse",
		PasswordHash: testutil.HashPassword("SNHSNurse"),
	}
	jwtCfg := &config.JWTConfig{Secret: "test-secret", Issuer: "medisync-test"}
	log := logger.New("test", "test")
	authHandler := handler.NewAuthHandler(authCfg, auth.NewManager(jwtCfg), log)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", authHandler.Login)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "nurse",
		"password": "SNHSNurse",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.Equal(t, "Bearer", resp.Data.TokenType)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "nurse",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "someone",
		"password": "SNHSNurse",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
