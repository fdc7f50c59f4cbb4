package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/errors"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// ExportHandler handles CSV export endpoints
type ExportHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.StockService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// ExportInventory serves the full inventory as a CSV attachment
func (h *ExportHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportInventoryCSV(r.Context(), &buf); err != nil {
		h.logger.Error().Err(err).Msg("failed to export inventory CSV")
		httputil.Error(w, err)
		return
	}

	serveCSV(w, fmt.Sprintf("medisync_inventory_%s.csv", time.Now().Format("2006-01-02")), buf.Bytes())
}

// ExportDispenses serves the dispense ledger as a CSV attachment.
// Optional from/to query parameters bound the range.
func (h *ExportHandler) ExportDispenses(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	q := r.URL.Query()

	if q.Get("from") != "" || q.Get("to") != "" {
		f, err := time.ParseInLocation("2006-01-02", q.Get("from"), time.Local)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid from date, expected YYYY-MM-DD"))
			return
		}
		t, err := time.ParseInLocation("2006-01-02", q.Get("to"), time.Local)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid to date, expected YYYY-MM-DD"))
			return
		}
		from, to = &f, &t
	}

	var buf bytes.Buffer
	if err := h.service.ExportDispensesCSV(r.Context(), &buf, from, to); err != nil {
		h.logger.Error().Err(err).Msg("failed to export dispense CSV")
		httputil.Error(w, err)
		return
	}

	serveCSV(w, fmt.Sprintf("medisync_dispensed_%s.csv", time.Now().Format("2006-01-02")), buf.Bytes())
}

func serveCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}
