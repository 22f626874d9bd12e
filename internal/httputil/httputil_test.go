package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodflow/internal/access"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard, "error")
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.ValidationError{Field: "items", Message: "empty"}, http.StatusBadRequest},
		{"not found", models.NotFoundf("order %d not found", 4), http.StatusNotFound},
		{"conflict", models.Conflictf("sale exists"), http.StatusConflict},
		{"no open order", fmt.Errorf("table 3: %w", models.ErrNoOpenOrder), http.StatusConflict},
		{"unauthorized", access.Require(access.Caller{Username: "x"}, access.RoleCashier), http.StatusForbidden},
		{"storage", fmt.Errorf("orders: %w: %w", models.ErrStorage, errors.New("io")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)

	WriteError(rec, req, testLogger(), "list_tables_failed",
		fmt.Errorf("tables: %w: %w", models.ErrStorage, errors.New("password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestWriteError_NoOpenOrderMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tables/1/pay", nil)

	WriteError(rec, req, testLogger(), "payment_failed", fmt.Errorf("table 1: %w", models.ErrNoOpenOrder))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no pending orders for this table", decodeBody(t, rec)["message"])
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteOK(rec, req, testLogger(), http.StatusCreated, map[string]interface{}{"order_id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 7, body["order_id"])
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Mains"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		var p payload
		require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p))
		assert.Equal(t, "Mains", p.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
		var p payload
		assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &p), models.ErrInvalidArgument)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`name=x`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var p payload
		assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &p), models.ErrInvalidArgument)
	})
}

func TestIDParam(t *testing.T) {
	var got int64
	var gotErr error
	r := chi.NewRouter()
	r.Get("/orders/{orderID}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = IDParam(req, "orderID")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	assert.ErrorIs(t, gotErr, models.ErrInvalidArgument)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/0", nil))
	assert.ErrorIs(t, gotErr, models.ErrInvalidArgument)
}

func TestWithLogging_EchoesRequestID(t *testing.T) {
	var seen string
	h := WithLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequireIdentity(t *testing.T) {
	h := RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set(access.HeaderUserName, "ana")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRole(t *testing.T) {
	called := false
	h := RequireRole(testLogger(), access.RoleCashier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/tables/1/pay", strings.NewReader("{"))
	req.Header.Set(access.HeaderUserName, "ana")
	req.Header.Set(access.HeaderUserRoles, "waiter")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)

	req = httptest.NewRequest(http.MethodPost, "/api/tables/1/pay", nil)
	req.Header.Set(access.HeaderUserName, "carla")
	req.Header.Set(access.HeaderUserRoles, "cashier")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestRequireStaff(t *testing.T) {
	h := RequireStaff(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	req.Header.Set(access.HeaderUserName, "guest")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set(access.HeaderUserRoles, "kitchen")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
