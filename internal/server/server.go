package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"foodflow/internal/httputil"
	"foodflow/internal/logger"
)

const healthTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes is implemented by every service handler
type Routes interface {
	Routes(r chi.Router)
}

// NewRouter assembles the HTTP API. Handlers are mounted under /api behind
// the identity check; /health stays open.
func NewRouter(log *logger.Logger, db Pinger, requestTimeout time.Duration, handlers ...Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httputil.WithLogging(log))

	r.Get("/health", healthCheck(log, db))

	r.Route("/api", func(api chi.Router) {
		api.Use(httputil.WithTimeout(requestTimeout))
		api.Use(httputil.RequireIdentity)
		for _, h := range handlers {
			h.Routes(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// healthCheck handles GET /health
func healthCheck(log *logger.Logger, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "foodflow",
			"database":  "up",
		}

		code := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			log.Error("health_check_failed", "Database ping failed", httputil.RequestID(r), err, nil)
			code = http.StatusServiceUnavailable
			response["status"] = "error"
			response["database"] = "down"
		}

		httputil.WriteJSON(w, code, response)
	}
}
