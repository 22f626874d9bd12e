package kitchen

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/access"
	"foodflow/internal/httputil"
	"foodflow/internal/logger"
)

// Handler handles HTTP requests for the kitchen queue
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new kitchen handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes registers the kitchen endpoints
func (h *Handler) Routes(r chi.Router) {
	r.With(httputil.RequireRole(h.logger, access.RoleKitchen)).Get("/kitchen/orders", h.Queue)
}

// Queue handles GET /api/kitchen/orders
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.Queue(r.Context(), access.CallerFromRequest(r), httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "kitchen_queue_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}
