package tracking

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/access"
	"foodflow/internal/httputil"
	"foodflow/internal/logger"
)

// Handler handles HTTP requests for the tracking service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new tracking handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes registers the tracking endpoints
func (h *Handler) Routes(r chi.Router) {
	r.With(httputil.RequireStaff(h.logger)).Get("/orders/{orderID}", h.GetOrder)
}

// GetOrder handles GET /api/orders/{orderID}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.IDParam(r, "orderID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	details, err := h.service.GetOrder(r.Context(), access.CallerFromRequest(r), orderID, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "order_tracking_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"order":   details.Order,
		"history": details.History,
		"sale":    details.Sale,
	})
}
