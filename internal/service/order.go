package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/models"
	"storefront_backend/internal/store"
)

type OrderService struct {
	store store.Store
	log   *logrus.Logger
}

func NewOrderService(st store.Store, logger *logrus.Logger) *OrderService {
	return &OrderService{store: st, log: logger}
}

// CreateFromCart snapshots the caller's cart into a PENDING/UNPAID order.
// Stock validation, price capture, stock decrement and cart clearing all
// happen inside one store transaction; a lost stock race surfaces as
// InsufficientStock with nothing changed.
func (s *OrderService) CreateFromCart(ctx context.Context, userID, shippingAddress, shippingPhone string) (*models.Order, error) {
	order, err := s.store.CreateOrderFromCart(ctx, userID, shippingAddress, shippingPhone)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalPrice.StringFixed(2),
		"items":    len(order.Items),
	}).Info("order created from cart")
	return order, nil
}

// List returns the caller's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.ListOrdersForUser(ctx, userID)
}

// Get returns one of the caller's orders.
func (s *OrderService) Get(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, error) {
	return s.store.GetOrderForUser(ctx, userID, orderID)
}
