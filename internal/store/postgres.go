package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/models"
)

type postgresStore struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresStore(db *sql.DB, logger *logrus.Logger) Store {
	return &postgresStore{db: db, log: logger}
}

// --- products ---

func (s *postgresStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p := &models.Product{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, price, stock, created_at, updated_at FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *postgresStore) UpsertProduct(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, stock)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, price = EXCLUDED.price,
		     stock = EXCLUDED.stock, updated_at = now()`,
		p.ID, p.Name, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// --- carts ---

func (s *postgresStore) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		 RETURNING id, created_at, updated_at`,
		uuid.New(), userID).
		Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	items, err := s.loadCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

func (s *postgresStore) loadCartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, p.stock
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.Stock); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *postgresStore) FindCartItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	it := &models.CartItem{}
	err := s.db.QueryRowContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, p.stock
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1 AND ci.product_id = $2`, cartID, productID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return it, nil
}

func (s *postgresStore) GetCartItemForUser(ctx context.Context, userID string, itemID uuid.UUID) (*models.CartItem, error) {
	it := &models.CartItem{}
	err := s.db.QueryRowContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, p.stock
		 FROM cart_items ci
		 JOIN carts c ON c.id = ci.cart_id
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.id = $1 AND c.user_id = $2`, itemID, userID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		// Foreign items answer the same as missing ones.
		return nil, apperr.NotFound("item not found in your cart")
	}
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return it, nil
}

func (s *postgresStore) AddCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		id, cartID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.cartItemByID(ctx, id)
}

func (s *postgresStore) cartItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	it := &models.CartItem{}
	err := s.db.QueryRowContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, p.stock
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.id = $1`, itemID).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Stock)
	if err != nil {
		return nil, fmt.Errorf("reload cart item: %w", err)
	}
	return it, nil
}

func (s *postgresStore) UpdateCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("item not found in your cart")
	}
	return nil
}

func (s *postgresStore) DeleteCartItem(ctx context.Context, itemID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("item not found in your cart")
	}
	return nil
}

// --- orders ---

// CreateOrderFromCart is the concurrency-correctness boundary of the whole
// system. Product rows are locked FOR UPDATE in a stable id order so two
// concurrent checkouts against the same product serialize instead of
// deadlocking, and the stock re-check happens under that lock.
func (s *postgresStore) CreateOrderFromCart(ctx context.Context, userID, shippingAddress, shippingPhone string) (order *models.Order, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.WithError(rbErr).Error("rollback checkout transaction")
			}
		}
	}()

	var cartID uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.EmptyCart()
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	type line struct {
		productID uuid.UUID
		quantity  int
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY product_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	var lines []line
	for rows.Next() {
		var l line
		if err = rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyCart()
	}

	productIDs := make([]string, len(lines))
	for i, l := range lines {
		productIDs[i] = l.productID.String()
	}

	// Lock and re-read every product in one statement; the ORDER BY keeps
	// lock acquisition order stable across concurrent checkouts.
	type lockedProduct struct {
		name  string
		price decimal.Decimal
		stock int
	}
	locked := make(map[uuid.UUID]lockedProduct, len(lines))
	rows, err = tx.QueryContext(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		var p lockedProduct
		if err = rows.Scan(&id, &p.name, &p.price, &p.stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan locked product: %w", err)
		}
		locked[id] = p
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("read locked products: %w", err)
	}

	total := decimal.Zero
	for _, l := range lines {
		p, ok := locked[l.productID]
		if !ok {
			err = apperr.NotFound("product %s not found", l.productID)
			return nil, err
		}
		if l.quantity > p.stock {
			err = apperr.InsufficientStock(p.name, l.quantity, p.stock)
			return nil, err
		}
		total = total.Add(p.price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}
	total = total.Round(2)

	order = &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		TotalPrice:      total,
		ShippingAddress: shippingAddress,
		ShippingPhone:   shippingPhone,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, status, payment_status, total_price, shipping_address, shipping_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.PaymentStatus,
		order.TotalPrice, order.ShippingAddress, order.ShippingPhone).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	itemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return nil, fmt.Errorf("prepare order item insert: %w", err)
	}
	defer itemStmt.Close()

	for _, l := range lines {
		p := locked[l.productID]
		productID := l.productID
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: p.name,
			Quantity:    l.quantity,
			UnitPrice:   p.price,
		}
		if _, err = itemStmt.ExecContext(ctx, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}

		res, decErr := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
			l.productID, l.quantity)
		if decErr != nil {
			err = fmt.Errorf("decrement stock: %w", decErr)
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Cannot happen under the row lock, but never commit an oversell.
			err = apperr.InsufficientStock(p.name, l.quantity, p.stock)
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout tx: %w", err)
	}
	return order, nil
}

func (s *postgresStore) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.getOrder(ctx,
		`SELECT id, user_id, status, payment_status, total_price, shipping_address,
		        shipping_phone, external_session_id, external_payment_ref, created_at, updated_at
		 FROM orders WHERE id = $1`, orderID)
}

func (s *postgresStore) GetOrderForUser(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, error) {
	return s.getOrder(ctx,
		`SELECT id, user_id, status, payment_status, total_price, shipping_address,
		        shipping_phone, external_session_id, external_payment_ref, created_at, updated_at
		 FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
}

func (s *postgresStore) getOrder(ctx context.Context, query string, args ...any) (*models.Order, error) {
	o := &models.Order{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalPrice,
		&o.ShippingAddress, &o.ShippingPhone, &o.ExternalSessionID,
		&o.ExternalPaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := s.loadOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *postgresStore) loadOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, 'Unavailable product'),
		        oi.quantity, oi.unit_price
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		var productID uuid.NullUUID
		if err := rows.Scan(&it.ID, &it.OrderID, &productID, &it.ProductName,
			&it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.UUID
			it.ProductID = &id
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *postgresStore) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, status, payment_status, total_price, shipping_address,
		        shipping_phone, external_session_id, external_payment_ref, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalPrice,
			&o.ShippingAddress, &o.ShippingPhone, &o.ExternalSessionID,
			&o.ExternalPaymentRef, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.loadOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *postgresStore) SetOrderCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET external_session_id = $2, updated_at = now() WHERE id = $1`,
		orderID, sessionID)
	if err != nil {
		return fmt.Errorf("set checkout session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order not found")
	}
	return nil
}

func (s *postgresStore) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentRef string) (bool, error) {
	// Single conditional update: the read-check-write is atomic per order
	// row, which is what makes duplicate completion events safe.
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $2, payment_status = $3, external_payment_ref = $4, updated_at = now()
		 WHERE id = $1 AND payment_status = $5`,
		orderID, models.StatusPaid, models.PaymentPaid, paymentRef, models.PaymentUnpaid)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	return false, s.orderExists(ctx, orderID)
}

func (s *postgresStore) MarkOrderPaymentFailed(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now()
		 WHERE id = $1 AND payment_status = $3`,
		orderID, models.PaymentFailed, models.PaymentUnpaid)
	if err != nil {
		return false, fmt.Errorf("mark order payment failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	return false, s.orderExists(ctx, orderID)
}

// orderExists distinguishes "already transitioned" (nil) from "no such
// order" after a zero-row conditional update.
func (s *postgresStore) orderExists(ctx context.Context, orderID uuid.UUID) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = $1`, orderID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("order not found")
	}
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	return nil
}
