// Package service implements the fulfillment pipeline's business rules
// over the store and the payment provider.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/models"
	"storefront_backend/internal/store"
)

type CartService struct {
	store store.Store
	log   *logrus.Logger
}

func NewCartService(st store.Store, logger *logrus.Logger) *CartService {
	return &CartService{store: st, log: logger}
}

// Get returns the caller's cart, creating an empty one on first access.
func (s *CartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	return s.store.GetOrCreateCart(ctx, userID)
}

// Add puts quantity units of a product into the cart. When the product is
// already in the cart the quantities are summed, not replaced, and the
// summed quantity is what gets checked against live stock. The check is
// advisory; enforcement happens at checkout under the transaction.
func (s *CartService) Add(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.InvalidArgument("quantity must be at least 1")
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindCartItemByProduct(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	if existing != nil {
		newQuantity += existing.Quantity
	}
	if newQuantity > product.Stock {
		return nil, apperr.InsufficientStock(product.Name, newQuantity, product.Stock)
	}

	if existing != nil {
		if err := s.store.UpdateCartItemQuantity(ctx, existing.ID, newQuantity); err != nil {
			return nil, err
		}
		existing.Quantity = newQuantity
		return existing, nil
	}

	item, err := s.store.AddCartItem(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Debug("cart item added")
	return item, nil
}

// SetQuantity replaces an item's quantity. The item must belong to the
// caller's cart; a foreign item reads as not found.
func (s *CartService) SetQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.InvalidArgument("quantity must be at least 1")
	}

	item, err := s.store.GetCartItemForUser(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, apperr.InsufficientStock(product.Name, quantity, product.Stock)
	}

	if err := s.store.UpdateCartItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

// Remove deletes an item from the caller's cart. Removing an already
// removed item fails not-found.
func (s *CartService) Remove(ctx context.Context, userID string, itemID uuid.UUID) error {
	item, err := s.store.GetCartItemForUser(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.store.DeleteCartItem(ctx, item.ID)
}
