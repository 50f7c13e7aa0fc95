// Package store holds persistence for the fulfillment pipeline. The
// Postgres implementation owns the one multi-row transaction in the system
// (order creation) and the conditional updates that make webhook
// reconciliation idempotent.
package store

import (
	"context"

	"github.com/google/uuid"

	"storefront_backend/internal/models"
)

type Store interface {
	// Products. Writes mirror the external catalog service's path; the
	// pipeline itself only reads and decrements stock at checkout.
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpsertProduct(ctx context.Context, p *models.Product) error

	// Carts.
	GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error)
	// FindCartItemByProduct returns (nil, nil) when the cart has no line
	// for the product.
	FindCartItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	// GetCartItemForUser scopes the lookup to the caller's cart; a foreign
	// item is indistinguishable from a missing one.
	GetCartItemForUser(ctx context.Context, userID string, itemID uuid.UUID) (*models.CartItem, error)
	AddCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) (*models.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteCartItem(ctx context.Context, itemID uuid.UUID) error

	// CreateOrderFromCart snapshots the user's cart into an order inside a
	// single transaction: re-check stock under product row locks, insert
	// order and items with captured unit prices, decrement stock, clear the
	// cart. All-or-nothing.
	CreateOrderFromCart(ctx context.Context, userID, shippingAddress, shippingPhone string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrderForUser(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error)
	// SetOrderCheckoutSession records the external session id, the checkout
	// broker's only write.
	SetOrderCheckoutSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	// MarkOrderPaid applies PENDING/UNPAID → PAID/PAID and records the
	// payment reference in one conditional update. Returns false without
	// error when the order already left UNPAID.
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentRef string) (bool, error)
	// MarkOrderPaymentFailed applies UNPAID → FAILED under the same guard;
	// a failure event never overrides a completed payment.
	MarkOrderPaymentFailed(ctx context.Context, orderID uuid.UUID) (bool, error)
}
