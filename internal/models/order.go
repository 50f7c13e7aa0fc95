package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// Illegal transitions are rejected, never overwritten.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusShipped
	}
	return false
}

// PaymentStatus tracks the payment half of the state machine. UNPAID is the
// only state with outgoing transitions; PAID and FAILED are terminal.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
	PaymentFailed PaymentStatus = "FAILED"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return p == PaymentUnpaid && (next == PaymentPaid || next == PaymentFailed)
}

// Order is an immutable snapshot of a cart at checkout time. Only the state
// fields (Status, PaymentStatus, the external references) change after
// creation, and only through the transition methods below or their SQL
// equivalents.
type Order struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             string          `json:"user_id"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	ShippingAddress    string          `json:"shipping_address,omitempty"`
	ShippingPhone      string          `json:"shipping_phone,omitempty"`
	ExternalSessionID  string          `json:"external_session_id,omitempty"`
	ExternalPaymentRef string          `json:"external_payment_ref,omitempty"`
	Items              []OrderItem     `json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MarkPaid applies the UNPAID→PAID transition and records the external
// payment reference. Returns false when the order already left UNPAID, so a
// redelivered completion event is a no-op.
func (o *Order) MarkPaid(paymentRef string) bool {
	if !o.PaymentStatus.CanTransitionTo(PaymentPaid) {
		return false
	}
	o.PaymentStatus = PaymentPaid
	o.Status = StatusPaid
	o.ExternalPaymentRef = paymentRef
	return true
}

// MarkPaymentFailed applies UNPAID→FAILED. Guarded symmetrically with
// MarkPaid: a stale failure event never overrides a completed payment.
// Status is left untouched.
func (o *Order) MarkPaymentFailed() bool {
	if !o.PaymentStatus.CanTransitionTo(PaymentFailed) {
		return false
	}
	o.PaymentStatus = PaymentFailed
	return true
}

// OrderItem captures quantity and unit price at order time. ProductID goes
// nil if the product is later deleted; the line and its price survive.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"-"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is quantity × unit price as captured at creation, never the live
// product price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
