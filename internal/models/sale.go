package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the finalized monetary transaction of exactly one order
type Sale struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	TableNumber   int             `json:"table_number,omitempty" db:"table_number"`
	SoldAt        time.Time       `json:"sold_at" db:"sold_at"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
}

// DailyReport lists the sales of one calendar date and their sum
type DailyReport struct {
	Date     string          `json:"date"`
	Timezone string          `json:"timezone"`
	Sales    []Sale          `json:"sales"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// NewDailyReport sums the given sales into a report
func NewDailyReport(date time.Time, sales []Sale) DailyReport {
	if sales == nil {
		sales = []Sale{}
	}
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Total)
	}
	return DailyReport{
		Date:     date.Format(DateLayout),
		Timezone: date.Location().String(),
		Sales:    sales,
		Count:    len(sales),
		Total:    total,
	}
}

// DateLayout is the calendar date format accepted by the daily report
const DateLayout = "2006-01-02"

// DayBounds returns [start of day, start of next day) for the calendar date
// of t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
