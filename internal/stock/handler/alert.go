package handler

import (
	"net/http"

	"github.com/medisync/medisync-backend/internal/stock/service"
	"github.com/medisync/medisync-backend/pkg/httputil"
	"github.com/medisync/medisync-backend/pkg/logger"
)

// AlertHandler exposes the daily alert gate check
type AlertHandler struct {
	gate   *service.AlertGate
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(gate *service.AlertGate, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		gate:   gate,
		logger: log,
	}
}

// Check runs one gate check. Clients call this when the app comes to
// the foreground; the scheduler covers the rest of the day.
func (h *AlertHandler) Check(w http.ResponseWriter, r *http.Request) {
	result, err := h.gate.CheckAndNotify(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
