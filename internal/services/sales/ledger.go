package sales

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
)

// Record inserts the sale for an order inside the caller's transaction.
// The existence check is a fast path; the unique order_id constraint
// rejects a sale that a concurrent transaction inserted first.
func Record(ctx context.Context, q database.Queries, sale *models.Sale) error {
	existing, err := q.SaleForOrder(ctx, sale.OrderID)
	switch {
	case err == nil:
		return models.Conflictf("order %d already has sale %d", sale.OrderID, existing.ID)
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	sale.PaymentMethod = strings.TrimSpace(sale.PaymentMethod)
	if sale.PaymentMethod == "" {
		return models.ValidationError{Field: "payment_method", Message: "payment method is required"}
	}
	if sale.Total.IsNegative() {
		return models.ValidationError{Field: "total", Message: "total must not be negative"}
	}

	return q.InsertSale(ctx, sale)
}

// Ledger serves the cashier's sales reporting
type Ledger struct {
	store    database.Store
	location *time.Location
	logger   *logger.Logger
	now      func() time.Time
}

// NewLedger creates a ledger reporting calendar days in loc
func NewLedger(store database.Store, loc *time.Location, log *logger.Logger) *Ledger {
	return &Ledger{
		store:    store,
		location: loc,
		logger:   log,
		now:      time.Now,
	}
}

// DailyReport returns the sales whose sold_at falls on the calendar date
// (YYYY-MM-DD, today when empty) in the ledger's timezone.
func (l *Ledger) DailyReport(ctx context.Context, caller access.Caller, date, requestID string) (*models.DailyReport, error) {
	if err := access.Require(caller, access.RoleCashier); err != nil {
		return nil, err
	}

	day, err := l.parseDate(date)
	if err != nil {
		return nil, err
	}
	from, to := models.DayBounds(day, l.location)

	sales, err := l.store.ListSalesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	report := models.NewDailyReport(from, sales)
	l.logger.Debug("daily_report_built", "Built daily sales report", requestID, map[string]interface{}{
		"date":  report.Date,
		"count": report.Count,
		"total": report.Total.StringFixed(2),
	})
	return &report, nil
}

func (l *Ledger) parseDate(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return l.now().In(l.location), nil
	}
	day, err := time.ParseInLocation(models.DateLayout, date, l.location)
	if err != nil {
		return time.Time{}, models.ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	return day, nil
}
