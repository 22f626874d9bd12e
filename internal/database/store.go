package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"foodflow/internal/models"
)

// Queries is the set of row operations the services run, either directly
// against the pool or inside a transaction. Lock* methods take row locks
// that are held until the surrounding transaction ends.
type Queries interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTable(ctx context.Context, id int64) (*models.Table, error)
	LockTable(ctx context.Context, id int64) (*models.Table, error)
	InsertTable(ctx context.Context, table *models.Table) error
	UpdateTableStatus(ctx context.Context, id int64, status models.TableStatus) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	InsertCategory(ctx context.Context, category *models.Category) error
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	GetProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	SetProductActive(ctx context.Context, id int64, active bool) (*models.Product, error)

	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderLine(ctx context.Context, line *models.OrderLine) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	LatestOpenOrder(ctx context.Context, tableID int64) (*models.Order, error)
	ListOrdersByStatus(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	ListOrderLines(ctx context.Context, orderIDs ...int64) ([]models.OrderLine, error)
	InsertStatusLog(ctx context.Context, orderID int64, entry models.OrderStatusHistory) error
	ListStatusLog(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error)

	SaleForOrder(ctx context.Context, orderID int64) (*models.Sale, error)
	InsertSale(ctx context.Context, sale *models.Sale) error
	ListSalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error)
}

// Store is what the services depend on: the row operations plus a way to
// group them atomically.
type Store interface {
	Queries
	// Transact runs fn in one transaction. Any error returned by fn rolls
	// back every write fn made.
	Transact(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

// Postgres error codes mapped onto the domain error classes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapError classifies a pgx error. what names the entity for messages.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFoundf("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return models.Conflictf("%s already exists", what)
		case foreignKeyViolation:
			return models.NotFoundf("%s references a missing row", what)
		}
	}
	return fmt.Errorf("%s: %w: %w", what, models.ErrStorage, err)
}

func (q *queries) ListTables(ctx context.Context) ([]models.Table, error) {
	rows, err := q.db.Query(ctx, ListTablesSQL)
	if err != nil {
		return nil, mapError(err, "tables")
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Status); err != nil {
			return nil, mapError(err, "tables")
		}
		tables = append(tables, t)
	}
	return tables, mapError(rows.Err(), "tables")
}

func (q *queries) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	return q.scanTable(ctx, GetTableSQL, id)
}

func (q *queries) LockTable(ctx context.Context, id int64) (*models.Table, error) {
	return q.scanTable(ctx, LockTableSQL, id)
}

func (q *queries) scanTable(ctx context.Context, sql string, id int64) (*models.Table, error) {
	var t models.Table
	err := q.db.QueryRow(ctx, sql, id).Scan(&t.ID, &t.Number, &t.Status)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("table %d", id))
	}
	return &t, nil
}

func (q *queries) InsertTable(ctx context.Context, table *models.Table) error {
	if table.Status == "" {
		table.Status = models.TableFree
	}
	if !table.Status.Valid() {
		return fmt.Errorf("table number %d: unknown status %q: %w", table.Number, table.Status, models.ErrInvalidArgument)
	}
	err := q.db.QueryRow(ctx, InsertTableSQL, table.Number, string(table.Status)).Scan(&table.ID)
	return mapError(err, fmt.Sprintf("table number %d", table.Number))
}

func (q *queries) UpdateTableStatus(ctx context.Context, id int64, status models.TableStatus) error {
	if !status.Valid() {
		return fmt.Errorf("table %d: unknown status %q: %w", id, status, models.ErrInvalidArgument)
	}
	tag, err := q.db.Exec(ctx, UpdateTableStatusSQL, string(status), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("table %d", id))
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("table %d not found", id)
	}
	return nil
}

func (q *queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := q.db.Query(ctx, ListCategoriesSQL)
	if err != nil {
		return nil, mapError(err, "categories")
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, mapError(err, "categories")
		}
		categories = append(categories, c)
	}
	return categories, mapError(rows.Err(), "categories")
}

func (q *queries) InsertCategory(ctx context.Context, category *models.Category) error {
	err := q.db.QueryRow(ctx, InsertCategorySQL, category.Name).Scan(&category.ID)
	return mapError(err, "category")
}

func (q *queries) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	rows, err := q.db.Query(ctx, ListProductsSQL, activeOnly)
	if err != nil {
		return nil, mapError(err, "products")
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, "products")
		}
		products = append(products, *p)
	}
	return products, mapError(rows.Err(), "products")
}

func (q *queries) GetProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	rows, err := q.db.Query(ctx, GetProductsByIDSQL, ids)
	if err != nil {
		return nil, mapError(err, "products")
	}
	defer rows.Close()

	products := make(map[int64]models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, "products")
		}
		products[p.ID] = *p
	}
	return products, mapError(rows.Err(), "products")
}

func (q *queries) InsertProduct(ctx context.Context, product *models.Product) error {
	err := q.db.QueryRow(ctx, InsertProductSQL,
		product.CategoryID,
		product.Name,
		product.Price,
		product.Active,
		product.Description,
		product.ImageRef,
	).Scan(&product.ID)
	return mapError(err, fmt.Sprintf("product %q", product.Name))
}

func (q *queries) SetProductActive(ctx context.Context, id int64, active bool) (*models.Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, SetProductActiveSQL, active, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("product %d", id))
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price, &p.Active, &p.Description, &p.ImageRef)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *queries) InsertOrder(ctx context.Context, order *models.Order) error {
	err := q.db.QueryRow(ctx, InsertOrderSQL,
		order.TableID,
		order.CreatedAt,
		string(order.Status),
		order.Note,
		order.Urgent,
		order.CreatedBy,
		order.CustomerID,
		order.PaymentMethod,
		order.Total,
	).Scan(&order.ID)
	return mapError(err, "order")
}

func (q *queries) InsertOrderLine(ctx context.Context, line *models.OrderLine) error {
	err := q.db.QueryRow(ctx, InsertOrderLineSQL,
		line.OrderID,
		line.ProductID,
		line.UnitPrice,
		line.Quantity,
		line.Note,
	).Scan(&line.ID)
	return mapError(err, fmt.Sprintf("order line for product %d", line.ProductID))
}

func (q *queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, GetOrderSQL, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("order %d", id))
	}
	return o, nil
}

func (q *queries) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, LockOrderSQL, id))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("order %d", id))
	}
	return o, nil
}

func (q *queries) LatestOpenOrder(ctx context.Context, tableID int64) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, LatestOpenOrderSQL, tableID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("open order for table %d", tableID))
	}
	return o, nil
}

func (q *queries) ListOrdersByStatus(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := q.db.Query(ctx, ListOrdersByStatusSQL, names)
	if err != nil {
		return nil, mapError(err, "orders")
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mapError(err, "orders")
		}
		orders = append(orders, *o)
	}
	return orders, mapError(rows.Err(), "orders")
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.TableID,
		&o.TableNumber,
		&o.CreatedAt,
		&o.Status,
		&o.Note,
		&o.Urgent,
		&o.CreatedBy,
		&o.CustomerID,
		&o.PaymentMethod,
		&o.Total,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (q *queries) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	tag, err := q.db.Exec(ctx, UpdateOrderStatusSQL, string(status), id)
	if err != nil {
		return mapError(err, fmt.Sprintf("order %d", id))
	}
	if tag.RowsAffected() == 0 {
		return models.NotFoundf("order %d not found", id)
	}
	return nil
}

func (q *queries) ListOrderLines(ctx context.Context, orderIDs ...int64) ([]models.OrderLine, error) {
	rows, err := q.db.Query(ctx, ListOrderLinesSQL, orderIDs)
	if err != nil {
		return nil, mapError(err, "order lines")
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Note)
		if err != nil {
			return nil, mapError(err, "order lines")
		}
		lines = append(lines, l)
	}
	return lines, mapError(rows.Err(), "order lines")
}

func (q *queries) InsertStatusLog(ctx context.Context, orderID int64, entry models.OrderStatusHistory) error {
	_, err := q.db.Exec(ctx, InsertOrderStatusLogSQL,
		orderID,
		string(entry.Status),
		entry.ChangedBy,
		entry.ChangedAt,
		entry.Notes,
	)
	return mapError(err, fmt.Sprintf("status log for order %d", orderID))
}

func (q *queries) ListStatusLog(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error) {
	rows, err := q.db.Query(ctx, GetOrderStatusHistorySQL, orderID)
	if err != nil {
		return nil, mapError(err, "status log")
	}
	defer rows.Close()

	history := []models.OrderStatusHistory{}
	for rows.Next() {
		var entry models.OrderStatusHistory
		if err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, mapError(err, "status log")
		}
		history = append(history, entry)
	}
	return history, mapError(rows.Err(), "status log")
}

func (q *queries) SaleForOrder(ctx context.Context, orderID int64) (*models.Sale, error) {
	s, err := scanSale(q.db.QueryRow(ctx, GetSaleByOrderSQL, orderID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("sale for order %d", orderID))
	}
	return s, nil
}

func (q *queries) InsertSale(ctx context.Context, sale *models.Sale) error {
	err := q.db.QueryRow(ctx, InsertSaleSQL,
		sale.OrderID,
		sale.SoldAt,
		sale.Total,
		sale.PaymentMethod,
	).Scan(&sale.ID)
	return mapError(err, fmt.Sprintf("sale for order %d", sale.OrderID))
}

func (q *queries) ListSalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	rows, err := q.db.Query(ctx, ListSalesBetweenSQL, from, to)
	if err != nil {
		return nil, mapError(err, "sales")
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, mapError(err, "sales")
		}
		sales = append(sales, *s)
	}
	return sales, mapError(rows.Err(), "sales")
}

func scanSale(row pgx.Row) (*models.Sale, error) {
	var s models.Sale
	err := row.Scan(&s.ID, &s.OrderID, &s.TableNumber, &s.SoldAt, &s.Total, &s.PaymentMethod)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
