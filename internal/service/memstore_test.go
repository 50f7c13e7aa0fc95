package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/models"
	"storefront_backend/internal/store"
)

// memStore is an in-memory Store with the same locking discipline as the
// Postgres implementation: one mutex plays the role of the product row
// locks, so checkout and the conditional payment updates are atomic.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	carts    map[string]*models.Cart // by user id
	items    map[uuid.UUID]*models.CartItem
	orders   map[uuid.UUID]*models.Order
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]*models.Product{},
		carts:    map[string]*models.Cart{},
		items:    map[uuid.UUID]*models.CartItem{},
		orders:   map[uuid.UUID]*models.Order{},
	}
}

func (m *memStore) seedProduct(name, price string, stock int) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	m.products[p.ID] = p
	return p
}

func (m *memStore) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, apperr.NotFound("product %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) UpsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) GetOrCreateCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		cart = &models.Cart{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
		m.carts[userID] = cart
	}
	out := *cart
	out.Items = m.cartItemsLocked(cart.ID)
	return &out, nil
}

func (m *memStore) cartItemsLocked(cartID uuid.UUID) []models.CartItem {
	items := []models.CartItem{}
	for _, it := range m.items {
		if it.CartID != cartID {
			continue
		}
		out := *it
		if p, ok := m.products[it.ProductID]; ok {
			out.ProductName = p.Name
			out.UnitPrice = p.Price
			out.Stock = p.Stock
		}
		items = append(items, out)
	}
	return items
}

func (m *memStore) FindCartItemByProduct(_ context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			out := *it
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetCartItemForUser(_ context.Context, userID string, itemID uuid.UUID) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return nil, apperr.NotFound("item not found in your cart")
	}
	cart, ok := m.carts[userID]
	if !ok || it.CartID != cart.ID {
		return nil, apperr.NotFound("item not found in your cart")
	}
	out := *it
	return &out, nil
}

func (m *memStore) AddCartItem(_ context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := &models.CartItem{ID: uuid.New(), CartID: cartID, ProductID: productID, Quantity: quantity}
	m.items[it.ID] = it
	out := *it
	if p, ok := m.products[productID]; ok {
		out.ProductName = p.Name
		out.UnitPrice = p.Price
		out.Stock = p.Stock
	}
	return &out, nil
}

func (m *memStore) UpdateCartItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return apperr.NotFound("item not found in your cart")
	}
	it.Quantity = quantity
	return nil
}

func (m *memStore) DeleteCartItem(_ context.Context, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[itemID]; !ok {
		return apperr.NotFound("item not found in your cart")
	}
	delete(m.items, itemID)
	return nil
}

func (m *memStore) CreateOrderFromCart(_ context.Context, userID, shippingAddress, shippingPhone string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[userID]
	if !ok {
		return nil, apperr.EmptyCart()
	}
	var lines []*models.CartItem
	for _, it := range m.items {
		if it.CartID == cart.ID {
			lines = append(lines, it)
		}
	}
	if len(lines) == 0 {
		return nil, apperr.EmptyCart()
	}

	// Validate everything before mutating anything: all-or-nothing.
	total := decimal.Zero
	for _, l := range lines {
		p, ok := m.products[l.ProductID]
		if !ok {
			return nil, apperr.NotFound("product %s not found", l.ProductID)
		}
		if l.Quantity > p.Stock {
			return nil, apperr.InsufficientStock(p.Name, l.Quantity, p.Stock)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		TotalPrice:      total.Round(2),
		ShippingAddress: shippingAddress,
		ShippingPhone:   shippingPhone,
		CreatedAt:       time.Now(),
	}
	for _, l := range lines {
		p := m.products[l.ProductID]
		productID := l.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
		})
		p.Stock -= l.Quantity
		delete(m.items, l.ID)
	}
	m.orders[order.ID] = order

	out := *order
	return &out, nil
}

func (m *memStore) GetOrder(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	out := *o
	return &out, nil
}

func (m *memStore) GetOrderForUser(_ context.Context, userID string, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	out := *o
	return &out, nil
}

func (m *memStore) ListOrdersForUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := []models.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *memStore) SetOrderCheckoutSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return apperr.NotFound("order not found")
	}
	o.ExternalSessionID = sessionID
	return nil
}

func (m *memStore) MarkOrderPaid(_ context.Context, orderID uuid.UUID, paymentRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, apperr.NotFound("order not found")
	}
	return o.MarkPaid(paymentRef), nil
}

func (m *memStore) MarkOrderPaymentFailed(_ context.Context, orderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, apperr.NotFound("order not found")
	}
	return o.MarkPaymentFailed(), nil
}
