package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCreateOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       *CreateOrderRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid request",
			req: &CreateOrderRequest{
				TableID: 5,
				Items:   []OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1, Note: strPtr("no ice")}},
			},
		},
		{
			name: "valid request with up front payment",
			req: &CreateOrderRequest{
				TableID:       5,
				Items:         []OrderItemRequest{{ProductID: 1, Quantity: 1}},
				PaymentMethod: strPtr("card"),
				CustomerID:    strPtr("0912345678"),
			},
		},
		{
			name:      "missing table",
			req:       &CreateOrderRequest{Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}},
			wantErr:   true,
			wantField: "table_id",
		},
		{
			name:      "empty items",
			req:       &CreateOrderRequest{TableID: 1},
			wantErr:   true,
			wantField: "items",
		},
		{
			name:      "zero quantity",
			req:       &CreateOrderRequest{TableID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 0}}},
			wantErr:   true,
			wantField: "items[0].quantity",
		},
		{
			name:      "negative quantity on second item",
			req:       &CreateOrderRequest{TableID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: -3}}},
			wantErr:   true,
			wantField: "items[1].quantity",
		},
		{
			name:      "missing product",
			req:       &CreateOrderRequest{TableID: 1, Items: []OrderItemRequest{{Quantity: 1}}},
			wantErr:   true,
			wantField: "items[0].product_id",
		},
		{
			name:      "blank payment method",
			req:       &CreateOrderRequest{TableID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}}, PaymentMethod: strPtr("  ")},
			wantErr:   true,
			wantField: "payment_method",
		},
		{
			name:      "line note too long",
			req:       &CreateOrderRequest{TableID: 1, Items: []OrderItemRequest{{ProductID: 1, Quantity: 1, Note: strPtr(strings.Repeat("x", 201))}}},
			wantErr:   true,
			wantField: "items[0].note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			assert.ErrorIs(t, err, ErrInvalidArgument)
			var verr ValidationError
			if assert.True(t, errors.As(err, &verr)) {
				assert.Equal(t, tt.wantField, verr.Field)
			}
		})
	}
}

func TestCreateOrderRequest_ProductIDsDeduplicates(t *testing.T) {
	req := &CreateOrderRequest{Items: []OrderItemRequest{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 3, Quantity: 2},
	}}
	assert.Equal(t, []int64{3, 1}, req.ProductIDs())
}

func TestCreateOrderRequest_CapturesPayment(t *testing.T) {
	assert.False(t, (&CreateOrderRequest{}).CapturesPayment())
	assert.True(t, (&CreateOrderRequest{PaymentMethod: strPtr("cash")}).CapturesPayment())
}

func TestOrderStatus_CanBecome(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusReady, true},
		{StatusReady, StatusReady, true},
		{StatusProblem, StatusReady, true},
		{StatusPending, StatusProblem, true},
		{StatusReady, StatusProblem, true},
		{StatusPending, StatusPaid, true},
		{StatusProblem, StatusPaid, true},
		{StatusReady, StatusPending, false},
		{StatusPaid, StatusReady, false},
		{StatusPaid, StatusProblem, false},
		{StatusPaid, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanBecome(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, StatusProblem.IsOpen())
	assert.False(t, StatusPaid.IsOpen())
}

func TestOrderStatus_TableStatus(t *testing.T) {
	assert.Equal(t, TableAwaitingFood, StatusPending.TableStatus())
	assert.Equal(t, TableAwaitingFood, StatusProblem.TableStatus())
	assert.Equal(t, TableFoodReady, StatusReady.TableStatus())
	assert.Equal(t, TableFree, StatusPaid.TableStatus())
}
