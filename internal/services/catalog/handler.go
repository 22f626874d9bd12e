package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodflow/internal/access"
	"foodflow/internal/httputil"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

// Handler handles HTTP requests for tables and the menu
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// Routes registers the floor, menu and administration endpoints
func (h *Handler) Routes(r chi.Router) {
	waiter := r.With(httputil.RequireRole(h.logger, access.RoleWaiter))
	waiter.Get("/tables", h.ListTables)
	waiter.Get("/catalog", h.Menu)

	r.Route("/admin", func(r chi.Router) {
		r.Use(httputil.RequireRole(h.logger, access.RoleSuperuser))
		r.Post("/tables", h.CreateTable)
		r.Post("/categories", h.CreateCategory)
		r.Post("/products", h.CreateProduct)
		r.Patch("/products/{productID}", h.SetProductActive)
	})
}

// ListTables handles GET /api/tables
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.ListTables(r.Context(), access.CallerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "list_tables_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"tables": tables,
	})
}

// Menu handles GET /api/catalog
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Menu(r.Context(), access.CallerFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "catalog_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// CreateTable handles POST /api/admin/tables
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTableRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	table, err := h.service.CreateTable(r.Context(), access.CallerFromRequest(r), &req, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "create_table_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusCreated, map[string]interface{}{
		"table": table,
	})
}

// CreateCategory handles POST /api/admin/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCategoryRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), access.CallerFromRequest(r), &req, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "create_category_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusCreated, map[string]interface{}{
		"category": category,
	})
}

// CreateProduct handles POST /api/admin/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), access.CallerFromRequest(r), &req, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "create_product_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusCreated, map[string]interface{}{
		"product": product,
	})
}

// SetProductActive handles PATCH /api/admin/products/{productID}
func (h *Handler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.IDParam(r, "productID")
	if err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	var req models.SetProductActiveRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, h.logger, "validation_failed", err)
		return
	}

	product, err := h.service.SetProductActive(r.Context(), access.CallerFromRequest(r), productID, &req, httputil.RequestID(r))
	if err != nil {
		httputil.WriteError(w, r, h.logger, "update_product_failed", err)
		return
	}
	httputil.WriteOK(w, r, h.logger, http.StatusOK, map[string]interface{}{
		"product": product,
	})
}
