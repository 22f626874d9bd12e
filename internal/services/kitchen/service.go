package kitchen

import (
	"context"
	"fmt"

	"foodflow/internal/access"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

// QueueReader is the read side of the store the kitchen queue needs
type QueueReader interface {
	ListOrdersByStatus(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error)
	ListOrderLines(ctx context.Context, orderIDs ...int64) ([]models.OrderLine, error)
}

// QueueStatuses are the order states the kitchen still has to act on
var QueueStatuses = []models.OrderStatus{models.StatusPending, models.StatusProblem}

// Service lists the work waiting in the kitchen
type Service struct {
	orders QueueReader
	logger *logger.Logger
}

// NewService creates a new kitchen service
func NewService(orders QueueReader, log *logger.Logger) *Service {
	return &Service{
		orders: orders,
		logger: log,
	}
}

// Queue returns pending and problem orders with their lines, urgent orders
// first and then oldest first.
func (s *Service) Queue(ctx context.Context, caller access.Caller, requestID string) ([]models.Order, error) {
	if err := access.Require(caller, access.RoleKitchen); err != nil {
		return nil, err
	}

	orders, err := s.orders.ListOrdersByStatus(ctx, QueueStatuses...)
	if err != nil {
		return nil, fmt.Errorf("list kitchen orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	lines, err := s.orders.ListOrderLines(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("list kitchen order lines: %w", err)
	}
	for _, line := range lines {
		if i, ok := index[line.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}

	s.logger.Debug("kitchen_queue_listed", fmt.Sprintf("%d orders waiting", len(orders)), requestID, map[string]interface{}{
		"orders": len(orders),
		"lines":  len(lines),
	})
	return orders, nil
}
