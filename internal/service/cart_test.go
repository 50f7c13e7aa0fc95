package service

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_backend/internal/apperr"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCartGetCreatesLazily(t *testing.T) {
	st := newMemStore()
	carts := NewCartService(st, testLogger())

	cart, err := carts.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	again, err := carts.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartAddSumsQuantities(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 10)
	carts := NewCartService(st, testLogger())
	ctx := context.Background()

	_, err := carts.Add(ctx, "alice", p.ID, 2)
	require.NoError(t, err)
	item, err := carts.Add(ctx, "alice", p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	cart, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartAddUnknownProduct(t *testing.T) {
	st := newMemStore()
	carts := NewCartService(st, testLogger())

	_, err := carts.Add(context.Background(), "alice", uuid.New(), 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCartAddRejectsNonPositiveQuantity(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 10)
	carts := NewCartService(st, testLogger())

	_, err := carts.Add(context.Background(), "alice", p.ID, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestCartAddChecksSummedQuantityAgainstStock(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 5)
	carts := NewCartService(st, testLogger())
	ctx := context.Background()

	_, err := carts.Add(ctx, "alice", p.ID, 3)
	require.NoError(t, err)

	// 3 already in the cart, 3 more would exceed stock 5.
	_, err = carts.Add(ctx, "alice", p.ID, 3)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	cart, err := carts.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartSetQuantity(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 5)
	carts := NewCartService(st, testLogger())
	ctx := context.Background()

	item, err := carts.Add(ctx, "alice", p.ID, 1)
	require.NoError(t, err)

	updated, err := carts.SetQuantity(ctx, "alice", item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = carts.SetQuantity(ctx, "alice", item.ID, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = carts.SetQuantity(ctx, "alice", item.ID, 6)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
}

func TestCartCrossUserAccessReadsAsNotFound(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 5)
	carts := NewCartService(st, testLogger())
	ctx := context.Background()

	item, err := carts.Add(ctx, "alice", p.ID, 1)
	require.NoError(t, err)

	// Bob created a cart of his own; Alice's item must not resolve for him.
	_, err = carts.Get(ctx, "bob")
	require.NoError(t, err)

	_, err = carts.SetQuantity(ctx, "bob", item.ID, 2)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	err = carts.Remove(ctx, "bob", item.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCartRemoveTwice(t *testing.T) {
	st := newMemStore()
	p := st.seedProduct("Keyboard", "49.99", 5)
	carts := NewCartService(st, testLogger())
	ctx := context.Background()

	item, err := carts.Add(ctx, "alice", p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, carts.Remove(ctx, "alice", item.ID))
	err = carts.Remove(ctx, "alice", item.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
