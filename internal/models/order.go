package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusReady   OrderStatus = "ready"
	StatusProblem OrderStatus = "problem"
	StatusPaid    OrderStatus = "paid"
)

// IsOpen reports whether the order still occupies its table
func (s OrderStatus) IsOpen() bool {
	return s != StatusPaid
}

// CanBecome reports whether an order in status s may move to next.
// Paid is terminal; pending is only entered at creation.
func (s OrderStatus) CanBecome(next OrderStatus) bool {
	if s == StatusPaid {
		return false
	}
	switch next {
	case StatusReady, StatusProblem, StatusPaid:
		return true
	default:
		return false
	}
}

// TableStatus returns the status a table takes while s is its most recent
// open order.
func (s OrderStatus) TableStatus() TableStatus {
	switch s {
	case StatusReady:
		return TableFoodReady
	case StatusPaid:
		return TableFree
	default:
		return TableAwaitingFood
	}
}

// OrderLine represents a product line in an order. UnitPrice is the
// catalog price captured when the order was placed; ProductName is filled
// from the catalog when lines are read back.
type OrderLine struct {
	ID          int64           `json:"id,omitempty" db:"id"`
	OrderID     int64           `json:"order_id,omitempty" db:"order_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name,omitempty" db:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Note        *string         `json:"note,omitempty" db:"note"`
}

// Order represents an ordering event at a table
type Order struct {
	ID            int64           `json:"id" db:"id"`
	TableID       int64           `json:"table_id" db:"table_id"`
	TableNumber   int             `json:"table_number,omitempty" db:"table_number"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	Status        OrderStatus     `json:"status" db:"status"`
	Note          *string         `json:"note,omitempty" db:"note"`
	Urgent        bool            `json:"urgent" db:"urgent"`
	CreatedBy     *int64          `json:"created_by,omitempty" db:"created_by"`
	CustomerID    *string         `json:"customer_id,omitempty" db:"customer_id"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Lines         []OrderLine     `json:"lines,omitempty"`
}

// OrderStatusHistory represents an entry in the order status log
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status" db:"status"`
	ChangedBy string      `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time   `json:"timestamp" db:"changed_at"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
}

// OrderItemRequest is one requested line of a new order
type OrderItemRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Note      *string `json:"note,omitempty"`
}

// CreateOrderRequest represents the request to create a new order
type CreateOrderRequest struct {
	TableID       int64              `json:"table_id"`
	Items         []OrderItemRequest `json:"items"`
	Note          *string            `json:"note,omitempty"`
	Urgent        bool               `json:"urgent"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	PaymentMethod *string            `json:"payment_method,omitempty"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID      int64           `json:"order_id"`
	Status       OrderStatus     `json:"status"`
	Total        decimal.Decimal `json:"total"`
	SaleRecorded bool            `json:"sale_recorded"`
}

// PaymentResult describes what finalizing a table's payment did
type PaymentResult struct {
	OrderID     int64           `json:"order_id"`
	TableID     int64           `json:"table_id"`
	TableNumber int             `json:"table_number"`
	SaleID      int64           `json:"sale_id"`
	Total       decimal.Decimal `json:"total"`
	SaleCreated bool            `json:"sale_created"`
}

// Validate validates the create order request
func (req *CreateOrderRequest) Validate() error {
	if req.TableID < 1 {
		return ValidationError{Field: "table_id", Message: "table is required"}
	}

	if err := validateItems(req.Items); err != nil {
		return err
	}

	if req.Note != nil && len(*req.Note) > 500 {
		return ValidationError{Field: "note", Message: "note must not exceed 500 characters"}
	}

	if req.CustomerID != nil && len(strings.TrimSpace(*req.CustomerID)) > 20 {
		return ValidationError{Field: "customer_id", Message: "customer id must not exceed 20 characters"}
	}

	if req.PaymentMethod != nil {
		method := strings.TrimSpace(*req.PaymentMethod)
		if method == "" {
			return ValidationError{Field: "payment_method", Message: "payment method must not be blank"}
		}
		if len(method) > 30 {
			return ValidationError{Field: "payment_method", Message: "payment method must not exceed 30 characters"}
		}
	}

	return nil
}

// CapturesPayment reports whether the order is paid for up front
func (req *CreateOrderRequest) CapturesPayment() bool {
	return req.PaymentMethod != nil && strings.TrimSpace(*req.PaymentMethod) != ""
}

// ProductIDs returns the distinct product ids referenced by the request
func (req *CreateOrderRequest) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(req.Items))
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	return ids
}

// validateItems validates the order items
func validateItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return ValidationError{Field: "items", Message: "items cannot be empty"}
	}
	if len(items) > 50 {
		return ValidationError{Field: "items", Message: "a maximum of 50 items is allowed"}
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if item.ProductID < 1 {
			return ValidationError{Field: prefix + ".product_id", Message: "product is required"}
		}
		if item.Quantity < 1 {
			return ValidationError{Field: prefix + ".quantity", Message: "quantity must be at least 1"}
		}
		if item.Quantity > 99 {
			return ValidationError{Field: prefix + ".quantity", Message: "quantity must not exceed 99"}
		}
		if item.Note != nil && len(*item.Note) > 200 {
			return ValidationError{Field: prefix + ".note", Message: "note must not exceed 200 characters"}
		}
	}
	return nil
}

// ReportProblemRequest carries the kitchen's description of a problem
type ReportProblemRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// Validate validates the report problem request
func (req *ReportProblemRequest) Validate() error {
	if req.Notes == nil {
		return nil
	}
	notes := strings.TrimSpace(*req.Notes)
	if len(notes) > 500 {
		return ValidationError{Field: "notes", Message: "notes must not exceed 500 characters"}
	}
	if notes == "" {
		req.Notes = nil
		return nil
	}
	req.Notes = &notes
	return nil
}
