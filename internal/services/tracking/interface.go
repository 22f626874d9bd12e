package tracking

import (
	"context"

	"foodflow/internal/models"
)

// OrderReader is the read side of the store the tracking service needs
type OrderReader interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrderLines(ctx context.Context, orderIDs ...int64) ([]models.OrderLine, error)
	ListStatusLog(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error)
	SaleForOrder(ctx context.Context, orderID int64) (*models.Sale, error)
}
