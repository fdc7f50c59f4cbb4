package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/errors"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// DispenseHandler handles dispense endpoints
type DispenseHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewDispenseHandler creates a new dispense handler
func NewDispenseHandler(svc *service.StockService, log *logger.Logger) *DispenseHandler {
	return &DispenseHandler{
		service: svc,
		logger:  log,
	}
}

type dispenseRequest struct {
	StudentName string  `json:"student_name" validate:"required"`
	Age         *int    `json:"age" validate:"omitempty,gte=0"`
	MedName     string  `json:"med_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Create records a dispense and deducts the quantity from the matching lot
func (h *DispenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dispenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Dispense(r.Context(), service.DispenseInput{
		StudentName: req.StudentName,
		Age:         req.Age,
		MedName:     req.MedName,
		Quantity:    req.Quantity,
		Date:        date,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, result)
}

// List lists ledger entries filtered by date, month or range
func (h *DispenseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("date") != "":
		date, err := time.ParseInLocation("2006-01-02", q.Get("date"), time.Local)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid date, expected YYYY-MM-DD"))
			return
		}
		events, err := h.service.ListDispensesByDate(r.Context(), date)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, events)

	case q.Get("month") != "":
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			httputil.Error(w, errors.BadRequest("year is required with month"))
			return
		}
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil || month < 1 || month > 12 {
			httputil.Error(w, errors.BadRequest("month must be between 1 and 12"))
			return
		}
		events, err := h.service.ListDispensesByMonth(r.Context(), year, time.Month(month))
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, events)

	case q.Get("from") != "" || q.Get("to") != "":
		from, err := time.ParseInLocation("2006-01-02", q.Get("from"), time.Local)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid from date, expected YYYY-MM-DD"))
			return
		}
		to, err := time.ParseInLocation("2006-01-02", q.Get("to"), time.Local)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid to date, expected YYYY-MM-DD"))
			return
		}
		events, err := h.service.ListDispensesByRange(r.Context(), from, to)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, events)

	default:
		events, err := h.service.ListDispensesByDate(r.Context(), time.Now())
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, events)
	}
}
