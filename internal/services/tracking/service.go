package tracking

import (
	"context"
	"errors"
	"fmt"

	"foodflow/internal/access"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

// OrderDetails is an order with its lines, status history and sale
type OrderDetails struct {
	Order   *models.Order               `json:"order"`
	History []models.OrderStatusHistory `json:"history"`
	Sale    *models.Sale                `json:"sale,omitempty"`
}

// Service provides order tracking for staff
type Service struct {
	orders OrderReader
	logger *logger.Logger
}

// NewService creates a new tracking service
func NewService(orders OrderReader, log *logger.Logger) *Service {
	return &Service{
		orders: orders,
		logger: log,
	}
}

// GetOrder returns the order with its lines, the full status history in
// chronological order and the sale once one is recorded.
func (s *Service) GetOrder(ctx context.Context, caller access.Caller, orderID int64, requestID string) (*OrderDetails, error) {
	if err := access.RequireStaff(caller); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	lines, err := s.orders.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines of order %d: %w", orderID, err)
	}
	order.Lines = lines

	history, err := s.orders.ListStatusLog(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get history of order %d: %w", orderID, err)
	}

	details := &OrderDetails{Order: order, History: history}

	sale, err := s.orders.SaleForOrder(ctx, order.ID)
	switch {
	case err == nil:
		details.Sale = sale
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("get sale of order %d: %w", orderID, err)
	}

	s.logger.Debug("order_tracked", fmt.Sprintf("Order %d is %s", order.ID, order.Status), requestID, map[string]interface{}{
		"order_id":      order.ID,
		"status":        order.Status,
		"history_items": len(history),
	})
	return details, nil
}
