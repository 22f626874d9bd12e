package sales

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/access"
	"foodflow/internal/httputil"
	"foodflow/internal/logger"
)

// Handler handles HTTP requests for sales reporting
type Handler struct {
	ledger *Ledger
	logger *logger.Logger
}

// NewHandler creates a new sales handler
func NewHandler(ledger *Ledger, log *logger.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: log,
	}
}

// Routes registers the sales endpoints
func (h *Handler) Routes(r chi.Router) {
	r.With(httputil.RequireRole(h.logger, access.RoleCashier)).Get("/sales/daily", h.DailyReport)
}

// DailyReport handles GET /api/sales/daily?date=YYYY-MM-DD
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	requestID := httputil.RequestID(r)

	report, err := h.ledger.DailyReport(r.Context(), access.CallerFromRequest(r), r.URL.Query().Get("date"), requestID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, "daily_report_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"report": report,
	})
}
