// Package dbtest provides an in-memory database.Store for service and
// handler tests. It keeps the ordering, uniqueness and reference checks of
// the PostgreSQL schema, and Transact discards every write of a failed
// callback.
package dbtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"foodflow/internal/database"
	"foodflow/internal/models"
)

type state struct {
	nextID     int64
	tables     map[int64]models.Table
	categories map[int64]models.Category
	products   map[int64]models.Product
	orders     map[int64]models.Order
	lines      []models.OrderLine
	statusLog  map[int64][]models.OrderStatusHistory
	sales      []models.Sale
}

func newState() *state {
	return &state{
		tables:     map[int64]models.Table{},
		categories: map[int64]models.Category{},
		products:   map[int64]models.Product{},
		orders:     map[int64]models.Order{},
		statusLog:  map[int64][]models.OrderStatusHistory{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.lines = append([]models.OrderLine(nil), s.lines...)
	for k, v := range s.statusLog {
		c.statusLog[k] = append([]models.OrderStatusHistory(nil), v...)
	}
	c.sales = append([]models.Sale(nil), s.sales...)
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory database.Store
type Store struct {
	*view

	mu       sync.Mutex
	st       *state
	failures map[string]error
	pingErr  error
}

var _ database.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	s := &Store{st: newState(), failures: map[string]error{}}
	s.view = &view{store: s}
	return s
}

// FailOn makes every later call of the named Queries method return err.
// A nil err clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// SetPingError controls what Ping returns
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

// Transact serializes transactions; fn works on a copy that replaces the
// store's state only when fn returns nil.
func (s *Store) Transact(ctx context.Context, fn func(q database.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &view{store: s, st: s.st.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

// Sales returns a copy of every recorded sale
func (s *Store) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.st.sales...)
}

// view runs Queries against either the committed state (taking the store
// lock per call) or a transaction's working copy.
type view struct {
	store *Store
	st    *state
	inTx  bool
}

func (v *view) begin(method string) (*state, func(), error) {
	done := func() {}
	st := v.st
	if !v.inTx {
		v.store.mu.Lock()
		done = v.store.mu.Unlock
		st = v.store.st
	}
	if err, ok := v.store.failures[method]; ok {
		done()
		return nil, nil, fmt.Errorf("%s: %w: %w", method, models.ErrStorage, err)
	}
	return st, done, nil
}

func (v *view) ListTables(ctx context.Context) ([]models.Table, error) {
	st, done, err := v.begin("ListTables")
	if err != nil {
		return nil, err
	}
	defer done()

	tables := make([]models.Table, 0, len(st.tables))
	for _, t := range st.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
	return tables, nil
}

func (v *view) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	st, done, err := v.begin("GetTable")
	if err != nil {
		return nil, err
	}
	defer done()
	return st.table(id)
}

func (v *view) LockTable(ctx context.Context, id int64) (*models.Table, error) {
	st, done, err := v.begin("LockTable")
	if err != nil {
		return nil, err
	}
	defer done()
	return st.table(id)
}

func (s *state) table(id int64) (*models.Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, models.NotFoundf("table %d not found", id)
	}
	return &t, nil
}

func (v *view) InsertTable(ctx context.Context, table *models.Table) error {
	st, done, err := v.begin("InsertTable")
	if err != nil {
		return err
	}
	defer done()

	for _, t := range st.tables {
		if t.Number == table.Number {
			return models.Conflictf("table number %d already exists", table.Number)
		}
	}
	if table.Status == "" {
		table.Status = models.TableFree
	}
	if !table.Status.Valid() {
		return fmt.Errorf("table number %d: unknown status %q: %w", table.Number, table.Status, models.ErrInvalidArgument)
	}
	table.ID = st.id()
	st.tables[table.ID] = *table
	return nil
}

func (v *view) UpdateTableStatus(ctx context.Context, id int64, status models.TableStatus) error {
	st, done, err := v.begin("UpdateTableStatus")
	if err != nil {
		return err
	}
	defer done()

	if !status.Valid() {
		return fmt.Errorf("table %d: unknown status %q: %w", id, status, models.ErrInvalidArgument)
	}
	t, ok := st.tables[id]
	if !ok {
		return models.NotFoundf("table %d not found", id)
	}
	t.Status = status
	st.tables[id] = t
	return nil
}

func (v *view) ListCategories(ctx context.Context) ([]models.Category, error) {
	st, done, err := v.begin("ListCategories")
	if err != nil {
		return nil, err
	}
	defer done()

	categories := make([]models.Category, 0, len(st.categories))
	for _, c := range st.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (v *view) InsertCategory(ctx context.Context, category *models.Category) error {
	st, done, err := v.begin("InsertCategory")
	if err != nil {
		return err
	}
	defer done()

	category.ID = st.id()
	st.categories[category.ID] = models.Category{ID: category.ID, Name: category.Name}
	return nil
}

func (v *view) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	st, done, err := v.begin("ListProducts")
	if err != nil {
		return nil, err
	}
	defer done()

	products := make([]models.Product, 0, len(st.products))
	for _, p := range st.products {
		if activeOnly && !p.Active {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CategoryID != products[j].CategoryID {
			return products[i].CategoryID < products[j].CategoryID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (v *view) GetProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	st, done, err := v.begin("GetProductsByID")
	if err != nil {
		return nil, err
	}
	defer done()

	products := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := st.products[id]; ok {
			products[id] = p
		}
	}
	return products, nil
}

func (v *view) InsertProduct(ctx context.Context, product *models.Product) error {
	st, done, err := v.begin("InsertProduct")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.categories[product.CategoryID]; !ok {
		return models.NotFoundf("product %q references a missing row", product.Name)
	}
	product.ID = st.id()
	st.products[product.ID] = *product
	return nil
}

func (v *view) SetProductActive(ctx context.Context, id int64, active bool) (*models.Product, error) {
	st, done, err := v.begin("SetProductActive")
	if err != nil {
		return nil, err
	}
	defer done()

	p, ok := st.products[id]
	if !ok {
		return nil, models.NotFoundf("product %d not found", id)
	}
	p.Active = active
	st.products[id] = p
	return &p, nil
}

func (v *view) InsertOrder(ctx context.Context, order *models.Order) error {
	st, done, err := v.begin("InsertOrder")
	if err != nil {
		return err
	}
	defer done()

	t, ok := st.tables[order.TableID]
	if !ok {
		return models.NotFoundf("order references a missing row")
	}
	order.ID = st.id()
	stored := *order
	stored.TableNumber = t.Number
	stored.Lines = nil
	st.orders[order.ID] = stored
	return nil
}

func (v *view) InsertOrderLine(ctx context.Context, line *models.OrderLine) error {
	st, done, err := v.begin("InsertOrderLine")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.orders[line.OrderID]; !ok {
		return models.NotFoundf("order line for product %d references a missing row", line.ProductID)
	}
	if _, ok := st.products[line.ProductID]; !ok {
		return models.NotFoundf("order line for product %d references a missing row", line.ProductID)
	}
	line.ID = st.id()
	st.lines = append(st.lines, models.OrderLine{
		ID:        line.ID,
		OrderID:   line.OrderID,
		ProductID: line.ProductID,
		UnitPrice: line.UnitPrice,
		Quantity:  line.Quantity,
		Note:      line.Note,
	})
	return nil
}

func (v *view) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	st, done, err := v.begin("GetOrder")
	if err != nil {
		return nil, err
	}
	defer done()
	return st.order(id)
}

func (v *view) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	st, done, err := v.begin("LockOrder")
	if err != nil {
		return nil, err
	}
	defer done()
	return st.order(id)
}

func (s *state) order(id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, models.NotFoundf("order %d not found", id)
	}
	o.TableNumber = s.tables[o.TableID].Number
	return &o, nil
}

func (v *view) LatestOpenOrder(ctx context.Context, tableID int64) (*models.Order, error) {
	st, done, err := v.begin("LatestOpenOrder")
	if err != nil {
		return nil, err
	}
	defer done()

	var latest *models.Order
	for _, o := range st.orders {
		if o.TableID != tableID || !o.Status.IsOpen() {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) ||
			(o.CreatedAt.Equal(latest.CreatedAt) && o.ID > latest.ID) {
			o := o
			latest = &o
		}
	}
	if latest == nil {
		return nil, models.NotFoundf("open order for table %d not found", tableID)
	}
	latest.TableNumber = st.tables[tableID].Number
	return latest, nil
}

func (v *view) ListOrdersByStatus(ctx context.Context, statuses ...models.OrderStatus) ([]models.Order, error) {
	st, done, err := v.begin("ListOrdersByStatus")
	if err != nil {
		return nil, err
	}
	defer done()

	wanted := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	orders := []models.Order{}
	for _, o := range st.orders {
		if !wanted[o.Status] {
			continue
		}
		o.TableNumber = st.tables[o.TableID].Number
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.Urgent != b.Urgent {
			return a.Urgent
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return orders, nil
}

func (v *view) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	st, done, err := v.begin("UpdateOrderStatus")
	if err != nil {
		return err
	}
	defer done()

	o, ok := st.orders[id]
	if !ok {
		return models.NotFoundf("order %d not found", id)
	}
	o.Status = status
	st.orders[id] = o
	return nil
}

func (v *view) ListOrderLines(ctx context.Context, orderIDs ...int64) ([]models.OrderLine, error) {
	st, done, err := v.begin("ListOrderLines")
	if err != nil {
		return nil, err
	}
	defer done()

	wanted := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}

	lines := []models.OrderLine{}
	for _, l := range st.lines {
		if !wanted[l.OrderID] {
			continue
		}
		l.ProductName = st.products[l.ProductID].Name
		lines = append(lines, l)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].OrderID != lines[j].OrderID {
			return lines[i].OrderID < lines[j].OrderID
		}
		return lines[i].ID < lines[j].ID
	})
	return lines, nil
}

func (v *view) InsertStatusLog(ctx context.Context, orderID int64, entry models.OrderStatusHistory) error {
	st, done, err := v.begin("InsertStatusLog")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.orders[orderID]; !ok {
		return models.NotFoundf("status log for order %d references a missing row", orderID)
	}
	st.statusLog[orderID] = append(st.statusLog[orderID], entry)
	return nil
}

func (v *view) ListStatusLog(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error) {
	st, done, err := v.begin("ListStatusLog")
	if err != nil {
		return nil, err
	}
	defer done()

	history := append([]models.OrderStatusHistory{}, st.statusLog[orderID]...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].ChangedAt.Before(history[j].ChangedAt)
	})
	return history, nil
}

func (v *view) SaleForOrder(ctx context.Context, orderID int64) (*models.Sale, error) {
	st, done, err := v.begin("SaleForOrder")
	if err != nil {
		return nil, err
	}
	defer done()

	for _, s := range st.sales {
		if s.OrderID == orderID {
			s.TableNumber = st.saleTableNumber(s)
			return &s, nil
		}
	}
	return nil, models.NotFoundf("sale for order %d not found", orderID)
}

func (v *view) InsertSale(ctx context.Context, sale *models.Sale) error {
	st, done, err := v.begin("InsertSale")
	if err != nil {
		return err
	}
	defer done()

	if _, ok := st.orders[sale.OrderID]; !ok {
		return models.NotFoundf("sale for order %d references a missing row", sale.OrderID)
	}
	for _, s := range st.sales {
		if s.OrderID == sale.OrderID {
			return models.Conflictf("sale for order %d already exists", sale.OrderID)
		}
	}
	sale.ID = st.id()
	stored := *sale
	stored.TableNumber = 0
	st.sales = append(st.sales, stored)
	return nil
}

func (v *view) ListSalesBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	st, done, err := v.begin("ListSalesBetween")
	if err != nil {
		return nil, err
	}
	defer done()

	sales := []models.Sale{}
	for _, s := range st.sales {
		if s.SoldAt.Before(from) || !s.SoldAt.Before(to) {
			continue
		}
		s.TableNumber = st.saleTableNumber(s)
		sales = append(sales, s)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		if !sales[i].SoldAt.Equal(sales[j].SoldAt) {
			return sales[i].SoldAt.Before(sales[j].SoldAt)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

func (s *state) saleTableNumber(sale models.Sale) int {
	o := s.orders[sale.OrderID]
	return s.tables[o.TableID].Number
}
