package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodflow/internal/access"
	"foodflow/internal/database/dbtest"
	"foodflow/internal/logger"
	"foodflow/internal/models"
	"foodflow/internal/services/catalog"
	"foodflow/internal/services/kitchen"
	"foodflow/internal/services/order"
	"foodflow/internal/services/sales"
	"foodflow/internal/services/tracking"
)

type testServer struct {
	t       *testing.T
	store   *dbtest.Store
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := dbtest.New()
	log := logger.NewWithWriter("server-test", io.Discard, "error")
	pricing := models.NewPricing(decimal.RequireFromString("0.15"))

	handler := NewRouter(log, store, time.Second,
		order.NewHandler(order.NewService(store, nil, pricing, "cash", log), log),
		tracking.NewHandler(tracking.NewService(store, log), log),
		kitchen.NewHandler(kitchen.NewService(store, log), log),
		sales.NewHandler(sales.NewLedger(store, time.UTC, log), log),
		catalog.NewHandler(catalog.NewService(store, log), log),
	)
	return &testServer{t: t, store: store, handler: handler}
}

type response struct {
	code int
	body map[string]interface{}
}

func (s *testServer) do(method, path, roles, body string) response {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if roles != "" {
		req.Header.Set(access.HeaderUserID, "7")
		req.Header.Set(access.HeaderUserName, "staff")
		req.Header.Set(access.HeaderUserRoles, roles)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return response{code: rec.Code, body: decoded}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, "ok", resp.body["status"])

	s.store.SetPingError(errors.New("connection refused"))
	resp = s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.code)
	assert.Equal(t, "down", resp.body["database"])
}

func TestAPI_RequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/api/tables", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.code)
	assert.Equal(t, "error", resp.body["status"])
}

func TestAPI_RoleDenialIsForbidden(t *testing.T) {
	s := newTestServer(t)
	table := s.store.AddTable(t, 1, models.TableFree)

	resp := s.do(http.MethodPost, fmt.Sprintf("/api/tables/%d/pay", table.ID), "waiter", "")
	assert.Equal(t, http.StatusForbidden, resp.code)
	assert.NotContains(t, resp.body["message"], "table")
}

func TestAPI_RoleCheckedBeforeParsing(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		roles  string
		body   string
	}{
		{"malformed order body", http.MethodPost, "/api/orders", "kitchen", `{"table_id":`},
		{"bad order id", http.MethodPost, "/api/orders/abc/ready", "waiter", ""},
		{"bad table id", http.MethodPost, "/api/tables/abc/pay", "waiter", ""},
		{"bad product id", http.MethodPatch, "/api/admin/products/abc", "cashier", `{"active": false}`},
		{"kitchen queue", http.MethodGet, "/api/kitchen/orders", "cashier", ""},
		{"daily report", http.MethodGet, "/api/sales/daily?date=nope", "waiter", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(tt.method, tt.path, tt.roles, tt.body)
			assert.Equal(t, http.StatusForbidden, resp.code, resp.body)
			assert.Equal(t, "You do not have permission to perform this action", resp.body["message"])
		})
	}
}

func TestAPI_FullServiceFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/api/admin/tables", "superuser", `{"number": 4}`)
	require.Equal(t, http.StatusCreated, resp.code)
	tableID := int64(resp.body["table"].(map[string]interface{})["id"].(float64))

	resp = s.do(http.MethodPost, "/api/admin/categories", "superuser", `{"name": "Mains"}`)
	require.Equal(t, http.StatusCreated, resp.code)
	categoryID := int64(resp.body["category"].(map[string]interface{})["id"].(float64))

	resp = s.do(http.MethodPost, "/api/admin/products", "superuser",
		fmt.Sprintf(`{"category_id": %d, "name": "Burger", "price": "5.00"}`, categoryID))
	require.Equal(t, http.StatusCreated, resp.code)
	burgerID := int64(resp.body["product"].(map[string]interface{})["id"].(float64))

	resp = s.do(http.MethodPost, "/api/admin/products", "superuser",
		fmt.Sprintf(`{"category_id": %d, "name": "Soda", "price": "1.00"}`, categoryID))
	require.Equal(t, http.StatusCreated, resp.code)
	sodaID := int64(resp.body["product"].(map[string]interface{})["id"].(float64))

	resp = s.do(http.MethodGet, "/api/catalog", "waiter", "")
	require.Equal(t, http.StatusOK, resp.code)
	categories := resp.body["categories"].([]interface{})
	require.Len(t, categories, 1)
	assert.Len(t, categories[0].(map[string]interface{})["products"], 2)

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/tables/%d/seat", tableID), "waiter", "")
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(http.MethodPost, "/api/orders", "waiter", fmt.Sprintf(
		`{"table_id": %d, "items": [{"product_id": %d, "quantity": 2}, {"product_id": %d, "quantity": 1}]}`,
		tableID, burgerID, sodaID))
	require.Equal(t, http.StatusCreated, resp.code, resp.body)
	created := resp.body["order"].(map[string]interface{})
	assert.Equal(t, "12.65", created["total"])
	orderID := int64(created["order_id"].(float64))

	resp = s.do(http.MethodGet, "/api/kitchen/orders", "kitchen", "")
	require.Equal(t, http.StatusOK, resp.code)
	assert.EqualValues(t, 1, resp.body["count"])

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/orders/%d/ready", orderID), "kitchen", "")
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(http.MethodGet, "/api/tables", "waiter", "")
	require.Equal(t, http.StatusOK, resp.code)
	tables := resp.body["tables"].([]interface{})
	assert.Equal(t, "food_ready", tables[0].(map[string]interface{})["status"])

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/tables/%d/bill", tableID), "waiter", "")
	require.Equal(t, http.StatusOK, resp.code)

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/tables/%d/pay", tableID), "cashier", "")
	require.Equal(t, http.StatusOK, resp.code)
	payment := resp.body["payment"].(map[string]interface{})
	assert.Equal(t, "12.65", payment["total"])
	assert.Equal(t, true, payment["sale_created"])

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/tables/%d/pay", tableID), "cashier", "")
	assert.Equal(t, http.StatusConflict, resp.code)
	assert.Equal(t, "no pending orders for this table", resp.body["message"])

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", orderID), "waiter", "")
	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, "paid", resp.body["order"].(map[string]interface{})["status"])
	assert.Len(t, resp.body["history"], 3)
	assert.NotNil(t, resp.body["sale"])

	today := time.Now().UTC().Format(models.DateLayout)
	resp = s.do(http.MethodGet, "/api/sales/daily?date="+today, "cashier", "")
	require.Equal(t, http.StatusOK, resp.code)
	report := resp.body["report"].(map[string]interface{})
	assert.EqualValues(t, 1, report["count"])
	assert.Equal(t, "12.65", report["total"])
}

func TestAPI_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	table := s.store.AddTable(t, 1, models.TableFree)

	tests := []struct {
		name   string
		method string
		path   string
		roles  string
		body   string
		want   int
	}{
		{"empty items", http.MethodPost, "/api/orders", "waiter", fmt.Sprintf(`{"table_id": %d, "items": []}`, table.ID), http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/orders", "waiter", `{"table_id":`, http.StatusBadRequest},
		{"missing order", http.MethodPost, "/api/orders/999/ready", "kitchen", "", http.StatusNotFound},
		{"bad order id", http.MethodPost, "/api/orders/abc/ready", "kitchen", "", http.StatusBadRequest},
		{"missing table", http.MethodPost, "/api/tables/999/seat", "waiter", "", http.StatusNotFound},
		{"bad date", http.MethodGet, "/api/sales/daily?date=01-05-2024", "cashier", "", http.StatusBadRequest},
		{"duplicate table", http.MethodPost, "/api/admin/tables", "superuser", `{"number": 1}`, http.StatusConflict},
		{"admin needs superuser", http.MethodPost, "/api/admin/tables", "waiter,kitchen,cashier", `{"number": 2}`, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nope", "waiter", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(tt.method, tt.path, tt.roles, tt.body)
			assert.Equal(t, tt.want, resp.code, resp.body)
			assert.Equal(t, "error", resp.body["status"])
		})
	}
}

func TestAPI_InternalErrorIsGeneric(t *testing.T) {
	s := newTestServer(t)
	s.store.FailOn("ListTables", errors.New("pq: password authentication failed"))

	resp := s.do(http.MethodGet, "/api/tables", "waiter", "")
	assert.Equal(t, http.StatusInternalServerError, resp.code)
	assert.Equal(t, "Internal server error", resp.body["message"])
}
