package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create order: %w", InsufficientStock("Widget", 3, 1))
	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.True(t, IsKind(err, KindInsufficientStock))
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal error", MessageOf(err))
}

func TestWrappedCauseStaysOutOfMessage(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := Internal(cause)
	assert.NotContains(t, MessageOf(err), "password")
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("order not found"), http.StatusNotFound},
		{InvalidArgument("quantity must be at least 1"), http.StatusBadRequest},
		{InsufficientStock("Widget", 5, 2), http.StatusBadRequest},
		{EmptyCart(), http.StatusBadRequest},
		{InvalidSignature(errors.New("bad sig")), http.StatusBadRequest},
		{Conflict("order is PAID"), http.StatusConflict},
		{PaymentProvider(errors.New("timeout")), http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "for %v", tc.err)
	}
}

func TestInsufficientStockNamesProduct(t *testing.T) {
	err := InsufficientStock("Widget", 3, 1)
	assert.Contains(t, err.Message, "Widget")
	assert.Contains(t, err.Message, "requested 3")
	assert.Contains(t, err.Message, "available 1")
}
