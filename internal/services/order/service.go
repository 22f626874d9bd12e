package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodflow/internal/access"
	"foodflow/internal/database"
	"foodflow/internal/logger"
	"foodflow/internal/models"
	"foodflow/internal/services/sales"
)

// EventPublisher publishes workflow events after their transaction commits
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
}

// Service runs the table and order state machine
type Service struct {
	store                database.Store
	events               EventPublisher
	pricing              models.Pricing
	defaultPaymentMethod string
	logger               *logger.Logger
	now                  func() time.Time
}

// NewService creates a workflow service. events may be nil, in which case
// no events are published.
func NewService(store database.Store, events EventPublisher, pricing models.Pricing, defaultPaymentMethod string, log *logger.Logger) *Service {
	return &Service{
		store:                store,
		events:               events,
		pricing:              pricing,
		defaultPaymentMethod: defaultPaymentMethod,
		logger:               log,
		now:                  time.Now,
	}
}

// CreateOrder persists a pending order with its lines, moves the table to
// awaiting_food and stores the surcharge-scaled total. When the request
// carries a payment method the sale is recorded in the same transaction.
func (s *Service) CreateOrder(ctx context.Context, caller access.Caller, req *models.CreateOrderRequest, requestID string) (*models.CreateOrderResponse, error) {
	if err := access.Require(caller, access.RoleWaiter); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		order       *models.Order
		tableNumber int
		saleID      int64
	)
	err := s.store.Transact(ctx, func(q database.Queries) error {
		table, err := q.LockTable(ctx, req.TableID)
		if err != nil {
			return err
		}
		tableNumber = table.Number

		lines, err := resolveLines(ctx, q, req)
		if err != nil {
			return err
		}

		order = &models.Order{
			TableID:     table.ID,
			TableNumber: table.Number,
			CreatedAt:   s.now().UTC(),
			Status:      models.StatusPending,
			Note:        trimmed(req.Note),
			Urgent:      req.Urgent,
			CreatedBy:   caller.UserID,
			CustomerID:  trimmed(req.CustomerID),
			Total:       s.pricing.Total(lines),
		}
		if req.CapturesPayment() {
			order.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}

		if err := q.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if err := q.InsertOrderLine(ctx, &lines[i]); err != nil {
				return err
			}
		}
		order.Lines = lines

		if err := s.logStatus(ctx, q, order.ID, models.StatusPending, caller, "Order created"); err != nil {
			return err
		}
		if err := q.UpdateTableStatus(ctx, table.ID, models.TableAwaitingFood); err != nil {
			return err
		}

		if req.CapturesPayment() {
			sale := &models.Sale{
				OrderID:       order.ID,
				SoldAt:        order.CreatedAt,
				Total:         order.Total,
				PaymentMethod: order.PaymentMethod,
			}
			if err := sales.Record(ctx, q, sale); err != nil {
				return err
			}
			saleID = sale.ID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order for table %d: %w", req.TableID, err)
	}

	s.logger.Info("order_created", fmt.Sprintf("Order %d created for table %d", order.ID, tableNumber), requestID, map[string]interface{}{
		"order_id":      order.ID,
		"table_number":  tableNumber,
		"lines":         len(order.Lines),
		"total":         order.Total.StringFixed(2),
		"urgent":        order.Urgent,
		"sale_recorded": saleID != 0,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderCreated, order, tableNumber, "", caller.Name()).WithTotal(order.Total), requestID)

	return &models.CreateOrderResponse{
		OrderID:      order.ID,
		Status:       order.Status,
		Total:        order.Total,
		SaleRecorded: saleID != 0,
	}, nil
}

// resolveLines checks every requested product and captures its price
func resolveLines(ctx context.Context, q database.Queries, req *models.CreateOrderRequest) ([]models.OrderLine, error) {
	products, err := q.GetProductsByID(ctx, req.ProductIDs())
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderLine, 0, len(req.Items))
	for i, item := range req.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, models.NotFoundf("product %d not found", item.ProductID)
		}
		if !product.Active {
			return nil, models.ValidationError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: fmt.Sprintf("product %q is not available", product.Name),
			}
		}
		lines = append(lines, models.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Note:        trimmed(item.Note),
		})
	}
	return lines, nil
}

// MarkReady moves an order to ready. The table follows to food_ready when
// this is its most recent open order. Marking an order that is already
// ready re-applies the table status without logging or publishing again.
func (s *Service) MarkReady(ctx context.Context, caller access.Caller, orderID int64, requestID string) (*models.Order, error) {
	if err := access.Require(caller, access.RoleKitchen); err != nil {
		return nil, err
	}

	var (
		order     *models.Order
		oldStatus models.OrderStatus
	)
	err := s.store.Transact(ctx, func(q database.Queries) error {
		var err error
		order, err = lockOrderAndTable(ctx, q, orderID)
		if err != nil {
			return err
		}
		oldStatus = order.Status
		if !order.Status.CanBecome(models.StatusReady) {
			return models.Conflictf("order %d is %s and cannot become ready", orderID, order.Status)
		}

		if order.Status != models.StatusReady {
			order.Status = models.StatusReady
			if err := q.UpdateOrderStatus(ctx, order.ID, models.StatusReady); err != nil {
				return err
			}
			if err := s.logStatus(ctx, q, order.ID, models.StatusReady, caller, "Order ready to serve"); err != nil {
				return err
			}
		}
		return syncTableStatus(ctx, q, order.TableID)
	})
	if err != nil {
		return nil, fmt.Errorf("mark order %d ready: %w", orderID, err)
	}

	if oldStatus == models.StatusReady {
		s.logger.Debug("order_already_ready", fmt.Sprintf("Order %d is already ready", orderID), requestID, nil)
		return order, nil
	}

	s.logger.Info("order_ready", fmt.Sprintf("Order %d is ready", orderID), requestID, map[string]interface{}{
		"order_id":     orderID,
		"table_number": order.TableNumber,
		"old_status":   oldStatus,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderReady, order, order.TableNumber, oldStatus, caller.Name()), requestID)
	return order, nil
}

// ReportProblem flags an order the kitchen cannot complete as is. The
// table status is left untouched. Every report is logged with its notes.
func (s *Service) ReportProblem(ctx context.Context, caller access.Caller, orderID int64, req *models.ReportProblemRequest, requestID string) (*models.Order, error) {
	if err := access.Require(caller, access.RoleKitchen); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		order     *models.Order
		oldStatus models.OrderStatus
	)
	err := s.store.Transact(ctx, func(q database.Queries) error {
		var err error
		order, err = lockOrderAndTable(ctx, q, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanBecome(models.StatusProblem) {
			return models.Conflictf("order %d is %s and cannot be reported", orderID, order.Status)
		}
		oldStatus = order.Status

		order.Status = models.StatusProblem
		if err := q.UpdateOrderStatus(ctx, order.ID, models.StatusProblem); err != nil {
			return err
		}

		notes := "Kitchen reported a problem"
		if req.Notes != nil {
			notes = *req.Notes
		}
		return s.logStatus(ctx, q, order.ID, models.StatusProblem, caller, notes)
	})
	if err != nil {
		return nil, fmt.Errorf("report problem on order %d: %w", orderID, err)
	}

	s.logger.Info("order_problem", fmt.Sprintf("Problem reported on order %d", orderID), requestID, map[string]interface{}{
		"order_id":     orderID,
		"table_number": order.TableNumber,
		"old_status":   oldStatus,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderProblem, order, order.TableNumber, oldStatus, caller.Name()), requestID)
	return order, nil
}

// FinalizePayment closes the table's most recent open order. A sale is
// recorded unless one was captured when the order was created; either way
// the order becomes paid. The table is freed once no open order is left,
// otherwise it follows the next most recent one.
func (s *Service) FinalizePayment(ctx context.Context, caller access.Caller, tableID int64, requestID string) (*models.PaymentResult, error) {
	if err := access.Require(caller, access.RoleCashier); err != nil {
		return nil, err
	}

	var (
		order     *models.Order
		oldStatus models.OrderStatus
		result    *models.PaymentResult
	)
	err := s.store.Transact(ctx, func(q database.Queries) error {
		table, err := q.LockTable(ctx, tableID)
		if err != nil {
			return err
		}

		order, err = q.LatestOpenOrder(ctx, table.ID)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNoOpenOrder
		}
		if err != nil {
			return err
		}
		oldStatus = order.Status
		if !order.Status.CanBecome(models.StatusPaid) {
			return models.Conflictf("order %d is %s and cannot be paid", order.ID, order.Status)
		}

		sale, err := q.SaleForOrder(ctx, order.ID)
		created := false
		switch {
		case errors.Is(err, models.ErrNotFound):
			sale, err = s.chargeOrder(ctx, q, order)
			if err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		}

		order.Status = models.StatusPaid
		if err := q.UpdateOrderStatus(ctx, order.ID, models.StatusPaid); err != nil {
			return err
		}
		if err := s.logStatus(ctx, q, order.ID, models.StatusPaid, caller, "Payment received via "+sale.PaymentMethod); err != nil {
			return err
		}
		if err := syncTableStatus(ctx, q, table.ID); err != nil {
			return err
		}

		result = &models.PaymentResult{
			OrderID:     order.ID,
			TableID:     table.ID,
			TableNumber: table.Number,
			SaleID:      sale.ID,
			Total:       sale.Total,
			SaleCreated: created,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finalize payment for table %d: %w", tableID, err)
	}

	s.logger.Info("payment_finalized", fmt.Sprintf("Table %d paid", result.TableNumber), requestID, map[string]interface{}{
		"order_id":     result.OrderID,
		"sale_id":      result.SaleID,
		"total":        result.Total.StringFixed(2),
		"sale_created": result.SaleCreated,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderPaid, order, result.TableNumber, oldStatus, caller.Name()).WithTotal(result.Total), requestID)
	return result, nil
}

// chargeOrder records the sale for an order that was not paid up front,
// pricing it from its lines.
func (s *Service) chargeOrder(ctx context.Context, q database.Queries, order *models.Order) (*models.Sale, error) {
	lines, err := q.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(order.PaymentMethod)
	if method == "" {
		method = s.defaultPaymentMethod
	}

	sale := &models.Sale{
		OrderID:       order.ID,
		TableNumber:   order.TableNumber,
		SoldAt:        s.now().UTC(),
		Total:         s.pricing.Total(lines),
		PaymentMethod: method,
	}
	if err := sales.Record(ctx, q, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// SeatTable marks a free table as occupied
func (s *Service) SeatTable(ctx context.Context, caller access.Caller, tableID int64, requestID string) (*models.Table, error) {
	if err := access.Require(caller, access.RoleWaiter); err != nil {
		return nil, err
	}

	var table *models.Table
	err := s.store.Transact(ctx, func(q database.Queries) error {
		var err error
		table, err = q.LockTable(ctx, tableID)
		if err != nil {
			return err
		}
		if table.Status != models.TableFree {
			return models.Conflictf("table %d is %s", table.Number, table.Status)
		}
		table.Status = models.TableOccupied
		return q.UpdateTableStatus(ctx, table.ID, models.TableOccupied)
	})
	if err != nil {
		return nil, fmt.Errorf("seat table %d: %w", tableID, err)
	}

	s.logger.Info("table_seated", fmt.Sprintf("Table %d seated", table.Number), requestID, map[string]interface{}{
		"table_id": table.ID,
	})
	return table, nil
}

// RequestBill moves a table with an open order to awaiting_payment
func (s *Service) RequestBill(ctx context.Context, caller access.Caller, tableID int64, requestID string) (*models.Table, error) {
	if err := access.Require(caller, access.RoleWaiter); err != nil {
		return nil, err
	}

	var table *models.Table
	err := s.store.Transact(ctx, func(q database.Queries) error {
		var err error
		table, err = q.LockTable(ctx, tableID)
		if err != nil {
			return err
		}
		if _, err := q.LatestOpenOrder(ctx, table.ID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrNoOpenOrder
			}
			return err
		}
		table.Status = models.TableAwaitingPayment
		return q.UpdateTableStatus(ctx, table.ID, models.TableAwaitingPayment)
	})
	if err != nil {
		return nil, fmt.Errorf("request bill for table %d: %w", tableID, err)
	}

	s.logger.Info("bill_requested", fmt.Sprintf("Bill requested for table %d", table.Number), requestID, map[string]interface{}{
		"table_id": table.ID,
	})
	return table, nil
}

// lockOrderAndTable locks the order's table before the order itself, the
// same order payment finalization takes the locks in.
func lockOrderAndTable(ctx context.Context, q database.Queries, orderID int64) (*models.Order, error) {
	order, err := q.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := q.LockTable(ctx, order.TableID); err != nil {
		return nil, err
	}
	return q.LockOrder(ctx, orderID)
}

// syncTableStatus sets the table to the status implied by its most recent
// open order, or free when it has none. The caller holds the table lock.
func syncTableStatus(ctx context.Context, q database.Queries, tableID int64) error {
	status := models.TableFree
	latest, err := q.LatestOpenOrder(ctx, tableID)
	switch {
	case err == nil:
		status = latest.Status.TableStatus()
	case !errors.Is(err, models.ErrNotFound):
		return err
	}
	return q.UpdateTableStatus(ctx, tableID, status)
}

func (s *Service) logStatus(ctx context.Context, q database.Queries, orderID int64, status models.OrderStatus, caller access.Caller, notes string) error {
	return q.InsertStatusLog(ctx, orderID, models.OrderStatusHistory{
		Status:    status,
		ChangedBy: caller.Name(),
		ChangedAt: s.now().UTC(),
		Notes:     &notes,
	})
}

// publish sends an event when publishing is enabled. Failures are logged
// and never fail the operation that already committed.
func (s *Service) publish(ctx context.Context, event *models.OrderEvent, requestID string) {
	if s.events == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("event_publish_failed", "Failed to publish order event", requestID, err, map[string]interface{}{
			"event":    event.Type,
			"order_id": event.OrderID,
		})
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
