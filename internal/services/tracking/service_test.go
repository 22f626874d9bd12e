package tracking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodflow/internal/access"
	"foodflow/internal/database/dbtest"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	store := dbtest.New()
	table := store.AddTable(t, 6, models.TableFoodReady)
	cat := store.AddCategory(t, "Mains")
	burger := store.AddProduct(t, cat.ID, "Burger", "5.00", true)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	o := models.Order{TableID: table.ID, Status: models.StatusReady, CreatedAt: at, Total: decimal.RequireFromString("11.50")}
	require.NoError(t, store.InsertOrder(ctx, &o))
	require.NoError(t, store.InsertOrderLine(ctx, &models.OrderLine{OrderID: o.ID, ProductID: burger.ID, Quantity: 2}))
	require.NoError(t, store.InsertStatusLog(ctx, o.ID, models.OrderStatusHistory{Status: models.StatusReady, ChangedBy: "luis", ChangedAt: at.Add(time.Minute)}))
	require.NoError(t, store.InsertStatusLog(ctx, o.ID, models.OrderStatusHistory{Status: models.StatusPending, ChangedBy: "ana", ChangedAt: at}))

	svc := NewService(store, logger.NewWithWriter("tracking", io.Discard, "error"))
	cook := access.Caller{Username: "luis", Roles: []access.Role{access.RoleKitchen}}

	details, err := svc.GetOrder(ctx, cook, o.ID, "req")
	require.NoError(t, err)
	assert.Equal(t, 6, details.Order.TableNumber)
	require.Len(t, details.Order.Lines, 1)
	assert.Equal(t, "Burger", details.Order.Lines[0].ProductName)
	require.Len(t, details.History, 2)
	assert.Equal(t, models.StatusPending, details.History[0].Status)
	assert.Equal(t, models.StatusReady, details.History[1].Status)
	assert.Nil(t, details.Sale)

	sale := models.Sale{OrderID: o.ID, SoldAt: at, Total: o.Total, PaymentMethod: "cash"}
	require.NoError(t, store.InsertSale(ctx, &sale))
	details, err = svc.GetOrder(ctx, cook, o.ID, "req")
	require.NoError(t, err)
	require.NotNil(t, details.Sale)
	assert.Equal(t, sale.ID, details.Sale.ID)
}

func TestGetOrder_Errors(t *testing.T) {
	svc := NewService(dbtest.New(), logger.NewWithWriter("tracking", io.Discard, "error"))

	_, err := svc.GetOrder(context.Background(), access.Caller{Username: "ana", Roles: []access.Role{access.RoleWaiter}}, 42, "req")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.GetOrder(context.Background(), access.Caller{Username: "guest"}, 42, "req")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
