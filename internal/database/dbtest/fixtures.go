package dbtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"foodflow/internal/models"
)

// AddTable inserts a table in the given status
func (s *Store) AddTable(t testing.TB, number int, status models.TableStatus) models.Table {
	t.Helper()
	table := models.Table{Number: number, Status: status}
	require.NoError(t, s.InsertTable(context.Background(), &table))
	return table
}

// AddCategory inserts a menu category
func (s *Store) AddCategory(t testing.TB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, s.InsertCategory(context.Background(), &category))
	return category
}

// AddProduct inserts a product priced from a decimal string such as "10.00"
func (s *Store) AddProduct(t testing.TB, categoryID int64, name, price string, active bool) models.Product {
	t.Helper()
	product := models.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Active:     active,
	}
	require.NoError(t, s.InsertProduct(context.Background(), &product))
	return product
}

// Table returns the committed state of a table
func (s *Store) Table(t testing.TB, id int64) models.Table {
	t.Helper()
	table, err := s.GetTable(context.Background(), id)
	require.NoError(t, err)
	return *table
}

// Order returns the committed state of an order
func (s *Store) Order(t testing.TB, id int64) models.Order {
	t.Helper()
	order, err := s.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return *order
}
