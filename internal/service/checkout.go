package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/models"
	"storefront_backend/internal/payments"
	"storefront_backend/internal/store"
)

// CheckoutConfig carries the redirect targets and currency for sessions.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CheckoutService brokers one external payment session per PENDING order.
type CheckoutService struct {
	store    store.Store
	provider payments.Provider
	cfg      CheckoutConfig
	log      *logrus.Logger
}

func NewCheckoutService(st store.Store, provider payments.Provider, cfg CheckoutConfig, logger *logrus.Logger) *CheckoutService {
	return &CheckoutService{store: st, provider: provider, cfg: cfg, log: logger}
}

// CreateSession creates a payment session for the caller's order and
// returns the processor redirect URL. Line items use the order's captured
// unit prices, never live product prices. The session id is the only field
// written; status and payment_status stay untouched, and a provider error
// leaves the order exactly as it was.
func (s *CheckoutService) CreateSession(ctx context.Context, userID, email string, orderID uuid.UUID) (string, error) {
	order, err := s.store.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != models.StatusPending {
		return "", apperr.Conflict("order is %s, checkout requires a pending order", order.Status)
	}

	lineItems := make([]payments.LineItem, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		lineItems = append(lineItems, payments.LineItem{
			Name:       item.ProductName,
			UnitAmount: item.UnitPrice.Shift(2).IntPart(),
			Quantity:   int64(item.Quantity),
		})
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, payments.CheckoutParams{
		OrderID:    order.ID.String(),
		UserEmail:  email,
		Currency:   s.cfg.Currency,
		LineItems:  lineItems,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}

	if err := s.store.SetOrderCheckoutSession(ctx, order.ID, sess.ID); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"session_id": sess.ID,
	}).Info("checkout session created")
	return sess.URL, nil
}
