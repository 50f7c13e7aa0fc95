// Package apperr defines the error taxonomy shared by the fulfillment
// pipeline. Every failure surfaced to a client carries a machine-readable
// kind; internals (SQL errors, processor responses) stay wrapped and are
// never serialized.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInsufficientStock Kind = "insufficient_stock"
	KindEmptyCart         Kind = "empty_cart"
	KindPaymentProvider   Kind = "payment_provider_error"
	KindInvalidSignature  Kind = "invalid_signature"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause that is kept for logs but stripped from responses.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func InsufficientStock(product string, requested, available int) *Error {
	return New(KindInsufficientStock,
		"insufficient stock for %s: requested %d, available %d", product, requested, available)
}

func EmptyCart() *Error {
	return New(KindEmptyCart, "cart is empty")
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidSignature(err error) *Error {
	return Wrap(err, KindInvalidSignature, "webhook signature verification failed")
}

func PaymentProvider(err error) *Error {
	return Wrap(err, KindPaymentProvider, "payment provider request failed")
}

func Internal(err error) *Error {
	return Wrap(err, KindInternal, "internal error")
}

// KindOf reports the kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status the HTTP layer responds with.
// The webhook surface relies on this split: 4xx short of 404 means the
// processor must not redeliver, 404/500 invite a retry.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument, KindEmptyCart, KindInsufficientStock, KindInvalidSignature:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindPaymentProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
