// Package payments wraps the external payment processor behind an
// injectable handle. Services depend on Provider, never on SDK globals, so
// tests swap in fakes and the process owns the client's lifecycle.
package payments

import "context"

// LineItem is one priced line of a checkout session, built from the
// order's captured unit prices.
type LineItem struct {
	Name       string
	UnitAmount int64 // smallest currency unit
	Quantity   int64
}

type CheckoutParams struct {
	OrderID    string
	UserEmail  string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string
	URL string
}

type EventType string

const (
	// EventCheckoutCompleted reports a finished checkout session.
	EventCheckoutCompleted EventType = "checkout_completed"
	// EventPaymentFailed reports a failed payment attempt.
	EventPaymentFailed EventType = "payment_failed"
	// EventIgnored covers every recognized-but-irrelevant processor event;
	// the reconciler acknowledges these without looking further.
	EventIgnored EventType = "ignored"
)

// Event is a verified processor notification reduced to what the
// reconciler needs. OrderID comes from metadata set at session creation and
// may be empty on failure events.
type Event struct {
	ID         string
	Type       EventType
	OrderID    string
	PaymentRef string
	UserEmail  string
}

type Provider interface {
	// CreateCheckoutSession must respect ctx's deadline; on error the
	// caller leaves the order untouched so a retry is safe.
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error)
	// VerifyEvent authenticates the raw webhook body against its signature
	// header and fails closed: any verification or parse failure is a
	// permanent reject.
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
