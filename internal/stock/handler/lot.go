package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/errors"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// LotHandler handles lot endpoints
type LotHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(svc *service.StockService, log *logger.Logger) *LotHandler {
	return &LotHandler{
		service: svc,
		logger:  log,
	}
}

type intakeRequest struct {
	Name         string  `json:"name" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	LowThreshold *int    `json:"low_threshold" validate:"omitempty,gte=0"`
	ExpiryDate   *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

// DefaultLowThreshold applies when an intake omits the threshold
const DefaultLowThreshold = 10

// Intake records a stock intake, merging into an existing lot when one
// shares the name and expiry date
func (h *LotHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lowThreshold := DefaultLowThreshold
	if req.LowThreshold != nil {
		lowThreshold = *req.LowThreshold
	}

	result, err := h.service.AddOrMergeStock(r.Context(), service.IntakeInput{
		Name:         req.Name,
		Quantity:     req.Quantity,
		LowThreshold: lowThreshold,
		Expiry:       expiry,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if result.Merged {
		httputil.JSON(w, http.StatusOK, result)
		return
	}
	httputil.Created(w, result)
}

// List lists all lots with their status
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := h.service.ListWithStatus(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// Get gets a lot by ID
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

type editRequest struct {
	Name         string  `json:"name" validate:"required"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	LowThreshold int     `json:"low_threshold" validate:"gte=0"`
	ExpiryDate   *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

// Update overwrites a lot's fields
func (h *LotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req editRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := parseDate(req.ExpiryDate)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.EditStock(r.Context(), id, service.EditInput{
		Name:         req.Name,
		Quantity:     req.Quantity,
		LowThreshold: req.LowThreshold,
		Expiry:       expiry,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// Delete deletes a lot
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.RemoveStock(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Summary returns inventory totals with actionable lots grouped by
// status, evaluated at the optional as_of date or at the current time
func (h *LotHandler) Summary(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r.URL.Query().Get("as_of"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), asOf)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// parseDate parses an optional YYYY-MM-DD date string
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, time.Local)
	if err != nil {
		return nil, errors.BadRequest("invalid date, expected YYYY-MM-DD")
	}
	return &t, nil
}

// parseDateParam parses an optional YYYY-MM-DD query parameter
func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	return parseDate(&s)
}
