package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/access"
	"foodflow/internal/httputil"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

// Handler handles HTTP requests for the order workflow
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes registers the workflow endpoints
func (h *Handler) Routes(r chi.Router) {
	waiter := r.With(httputil.RequireRole(h.logger, access.RoleWaiter))
	kitchen := r.With(httputil.RequireRole(h.logger, access.RoleKitchen))
	cashier := r.With(httputil.RequireRole(h.logger, access.RoleCashier))

	waiter.Post("/orders", h.CreateOrder)
	kitchen.Post("/orders/{orderID}/ready", h.MarkReady)
	kitchen.Post("/orders/{orderID}/problem", h.ReportProblem)
	waiter.Post("/tables/{tableID}/seat", h.SeatTable)
	waiter.Post("/tables/{tableID}/bill", h.RequestBill)
	cashier.Post("/tables/{tableID}/pay", h.FinalizePayment)
}

// CreateOrder handles POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	requestID := httputil.RequestID(r)

	var req models.CreateOrderRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), access.CallerFromRequest(r), &req, requestID)
	if err != nil {
		httputil.WriteError(w, r, h.logger, "order_creation_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusCreated, map[string]interface{}{
		"order": resp,
	})
}

// MarkReady handles POST /api/orders/{orderID}/ready
func (h *Handler) MarkReady(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.IDParam(r, "orderID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	order, err := h.service.MarkReady(r.Context(), access.CallerFromRequest(r), orderID, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "mark_ready_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"order": order,
	})
}

// ReportProblem handles POST /api/orders/{orderID}/problem. The body is
// optional.
func (h *Handler) ReportProblem(w http.ResponseWriter, r *http.Request) {
	orderID, err := httputil.IDParam(r, "orderID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	var req models.ReportProblemRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(w, r, &req); err != nil {
			httputil.WriteError(w, r, h.logger, "validation_failed", err)
			return
		}
	}

	order, err := h.service.ReportProblem(r.Context(), access.CallerFromRequest(r), orderID, &req, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "report_problem_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"order": order,
	})
}

// SeatTable handles POST /api/tables/{tableID}/seat
func (h *Handler) SeatTable(w http.ResponseWriter, r *http.Request) {
	tableID, err := httputil.IDParam(r, "tableID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	table, err := h.service.SeatTable(r.Context(), access.CallerFromRequest(r), tableID, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "seat_table_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"table": table,
	})
}

// RequestBill handles POST /api/tables/{tableID}/bill
func (h *Handler) RequestBill(w http.ResponseWriter, r *http.Request) {
	tableID, err := httputil.IDParam(r, "tableID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	table, err := h.service.RequestBill(r.Context(), access.CallerFromRequest(r), tableID, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "request_bill_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"table": table,
	})
}

// FinalizePayment handles POST /api/tables/{tableID}/pay
func (h *Handler) FinalizePayment(w http.ResponseWriter, r *http.Request) {
	tableID, err := httputil.IDParam(r, "tableID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	result, err := h.service.FinalizePayment(r.Context(), access.CallerFromRequest(r), tableID, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "payment_failed", err)
		return
	}

	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"payment": result,
	})
}
