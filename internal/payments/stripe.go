package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/client"
	"github.com/stripe/stripe-go/v83/webhook"

	"storefront_backend/internal/apperr"
)

// StripeProvider talks to Stripe with its own client handle and a bounded
// HTTP timeout. The webhook secret stays inside the provider; handlers only
// ever see verified events.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string, timeout time.Duration) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, stripe.NewBackends(&http.Client{Timeout: timeout}))
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, cp CheckoutParams) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(cp.LineItems))
	for _, li := range cp.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(cp.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	metadata := map[string]string{
		"order_id": cp.OrderID,
		"email":    cp.UserEmail,
	}
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(cp.SuccessURL),
		CancelURL:          stripe.String(cp.CancelURL),
		Metadata:           metadata,
		// Mirror the metadata onto the payment intent so failure events can
		// be matched back to the order too.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if cp.UserEmail != "" {
		params.CustomerEmail = stripe.String(cp.UserEmail)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperr.PaymentProvider(err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, apperr.InvalidSignature(err)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, apperr.InvalidSignature(fmt.Errorf("malformed checkout session payload: %w", err))
		}
		paymentRef := ""
		if sess.PaymentIntent != nil {
			paymentRef = sess.PaymentIntent.ID
		}
		return &Event{
			ID:         event.ID,
			Type:       EventCheckoutCompleted,
			OrderID:    sess.Metadata["order_id"],
			PaymentRef: paymentRef,
			UserEmail:  sess.Metadata["email"],
		}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, apperr.InvalidSignature(fmt.Errorf("malformed payment intent payload: %w", err))
		}
		return &Event{
			ID:         event.ID,
			Type:       EventPaymentFailed,
			OrderID:    pi.Metadata["order_id"],
			PaymentRef: pi.ID,
			UserEmail:  pi.Metadata["email"],
		}, nil
	}

	return &Event{ID: event.ID, Type: EventIgnored}, nil
}
