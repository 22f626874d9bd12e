package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order event types, also used as routing keys on the events exchange
const (
	EventOrderCreated = "order.created"
	EventOrderReady   = "order.ready"
	EventOrderProblem = "order.problem"
	EventOrderPaid    = "order.paid"
)

// OrderEvent is published after a workflow transition commits
type OrderEvent struct {
	Type        string           `json:"type"`
	OrderID     int64            `json:"order_id"`
	TableID     int64            `json:"table_id"`
	TableNumber int              `json:"table_number"`
	OldStatus   OrderStatus      `json:"old_status,omitempty"`
	NewStatus   OrderStatus      `json:"new_status"`
	ChangedBy   string           `json:"changed_by"`
	Urgent      bool             `json:"urgent,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewOrderEvent creates an event for an order status change
func NewOrderEvent(eventType string, order *Order, tableNumber int, oldStatus OrderStatus, changedBy string) *OrderEvent {
	return &OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: tableNumber,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		ChangedBy:   changedBy,
		Urgent:      order.Urgent,
		Timestamp:   time.Now().UTC(),
	}
}

// WithTotal attaches a monetary amount to the event
func (e *OrderEvent) WithTotal(total decimal.Decimal) *OrderEvent {
	e.Total = &total
	return e
}
