package database

// Table queries
const (
	ListTablesSQL = `
		SELECT id, number, status FROM dining_tables ORDER BY number ASC`

	GetTableSQL = `
		SELECT id, number, status FROM dining_tables WHERE id = $1`

	LockTableSQL = `
		SELECT id, number, status FROM dining_tables WHERE id = $1 FOR UPDATE`

	InsertTableSQL = `
		INSERT INTO dining_tables (number, status) VALUES ($1, $2)
		RETURNING id`

	UpdateTableStatusSQL = `
		UPDATE dining_tables SET status = $1 WHERE id = $2`
)

// Catalog queries
const (
	ListCategoriesSQL = `
		SELECT id, name FROM categories ORDER BY name ASC, id ASC`

	InsertCategorySQL = `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id`

	productColumns = `id, category_id, name, price, active, description, image_ref`

	ListProductsSQL = `
		SELECT ` + productColumns + ` FROM products
		WHERE ($1::boolean IS FALSE OR active)
		ORDER BY category_id ASC, name ASC`

	GetProductsByIDSQL = `
		SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	InsertProductSQL = `
		INSERT INTO products (category_id, name, price, active, description, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	SetProductActiveSQL = `
		UPDATE products SET active = $1 WHERE id = $2
		RETURNING ` + productColumns
)

// Order queries
const (
	orderColumns = `
		o.id, o.table_id, t.number, o.created_at, o.status, o.note, o.urgent,
		o.created_by, o.customer_id, o.payment_method, o.total`

	orderFrom = `
		FROM orders o JOIN dining_tables t ON t.id = o.table_id`

	InsertOrderSQL = `
		INSERT INTO orders (table_id, created_at, status, note, urgent, created_by, customer_id, payment_method, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, product_id, unit_price, quantity, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	GetOrderSQL = `
		SELECT ` + orderColumns + orderFrom + `
		WHERE o.id = $1`

	LockOrderSQL = GetOrderSQL + `
		FOR UPDATE OF o`

	LatestOpenOrderSQL = `
		SELECT ` + orderColumns + orderFrom + `
		WHERE o.table_id = $1 AND o.status <> 'paid'
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT 1
		FOR UPDATE OF o`

	ListOrdersByStatusSQL = `
		SELECT ` + orderColumns + orderFrom + `
		WHERE o.status = ANY($1)
		ORDER BY o.urgent DESC, o.created_at ASC, o.id ASC`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1 WHERE id = $2`

	ListOrderLinesSQL = `
		SELECT l.id, l.order_id, l.product_id, p.name, l.unit_price, l.quantity, l.note
		FROM order_lines l JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id ASC, l.id ASC`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC`
)

// Sale queries
const (
	saleColumns = `s.id, s.order_id, t.number, s.sold_at, s.total, s.payment_method`

	saleFrom = `
		FROM sales s
		JOIN orders o ON o.id = s.order_id
		JOIN dining_tables t ON t.id = o.table_id`

	GetSaleByOrderSQL = `
		SELECT ` + saleColumns + saleFrom + `
		WHERE s.order_id = $1`

	InsertSaleSQL = `
		INSERT INTO sales (order_id, sold_at, total, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	ListSalesBetweenSQL = `
		SELECT ` + saleColumns + saleFrom + `
		WHERE s.sold_at >= $1 AND s.sold_at < $2
		ORDER BY s.sold_at ASC, s.id ASC`
)
