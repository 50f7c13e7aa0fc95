package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/mailer"
	"storefront_backend/internal/payments"
	"storefront_backend/internal/store"
)

const eventSeenTTL = 24 * time.Hour

// EventCache remembers event ids that were fully applied, so redeliveries
// can be acknowledged without a database round-trip.
type EventCache interface {
	Seen(ctx context.Context, eventID string) bool
	MarkSeen(ctx context.Context, eventID string)
}

type redisEventCache struct {
	rdb *redis.Client
	log *logrus.Logger
}

// NewRedisEventCache backs the replay cache with Redis. Cache errors are
// swallowed: a Redis outage degrades to extra no-op database updates, it
// never drops or double-applies an event.
func NewRedisEventCache(rdb *redis.Client, logger *logrus.Logger) EventCache {
	return &redisEventCache{rdb: rdb, log: logger}
}

func (c *redisEventCache) Seen(ctx context.Context, eventID string) bool {
	n, err := c.rdb.Exists(ctx, "stripe_event:"+eventID).Result()
	if err != nil {
		c.log.WithError(err).Debug("event replay cache unavailable")
		return false
	}
	return n > 0
}

func (c *redisEventCache) MarkSeen(ctx context.Context, eventID string) {
	if err := c.rdb.SetNX(ctx, "stripe_event:"+eventID, 1, eventSeenTTL).Err(); err != nil {
		c.log.WithError(err).Debug("event replay cache unavailable")
	}
}

// ReconcilerService consumes untrusted, at-least-once-delivered processor
// events and applies them to orders idempotently. The authoritative guard
// is the store's conditional update; the replay cache only saves a
// round-trip on redelivered events and is skipped when Redis is down.
type ReconcilerService struct {
	store    store.Store
	provider payments.Provider
	cache    EventCache
	mail     mailer.Mailer
	log      *logrus.Logger
}

func NewReconcilerService(st store.Store, provider payments.Provider, cache EventCache, mail mailer.Mailer, logger *logrus.Logger) *ReconcilerService {
	return &ReconcilerService{store: st, provider: provider, cache: cache, mail: mail, log: logger}
}

// Process verifies and applies one raw webhook delivery. The returned
// error's kind decides the acknowledgment: InvalidSignature is a permanent
// reject (the processor must not retry), NotFound and internal errors are
// transient (the processor should redeliver), nil acknowledges the event —
// including no-ops on duplicates and ignored event types.
func (s *ReconcilerService) Process(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyEvent(payload, sigHeader)
	if err != nil {
		s.log.WithError(err).Warn("webhook rejected")
		return err
	}

	if event.Type == payments.EventIgnored {
		s.log.WithField("event_id", event.ID).Debug("webhook event type ignored")
		return nil
	}

	if s.cache != nil && event.ID != "" && s.cache.Seen(ctx, event.ID) {
		s.log.WithField("event_id", event.ID).Info("webhook event replayed, skipping")
		return nil
	}

	switch event.Type {
	case payments.EventCheckoutCompleted:
		err = s.applyCompleted(ctx, event)
	case payments.EventPaymentFailed:
		err = s.applyFailed(ctx, event)
	}
	if err != nil {
		// Leave the event uncached: the processor will redeliver it and
		// the retry must reach the store, not the replay cache.
		return err
	}

	if s.cache != nil && event.ID != "" {
		s.cache.MarkSeen(ctx, event.ID)
	}
	return nil
}

func (s *ReconcilerService) applyCompleted(ctx context.Context, event *payments.Event) error {
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		// Could be replication lag on a just-created order; ask for a retry.
		return apperr.NotFound("order %q not found", event.OrderID)
	}

	applied, err := s.store.MarkOrderPaid(ctx, orderID, event.PaymentRef)
	if err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Error("apply completed event")
		return err
	}
	if !applied {
		s.log.WithField("order_id", orderID).Info("order already paid, event acknowledged as no-op")
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"order_id":    orderID,
		"payment_ref": event.PaymentRef,
	}).Info("order marked paid")

	if s.mail != nil && event.UserEmail != "" {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			s.log.WithError(err).Warn("load order for confirmation mail")
			return nil
		}
		email := event.UserEmail
		go func() {
			if err := s.mail.SendOrderConfirmation(email, order); err != nil {
				s.log.WithError(err).WithField("order_id", order.ID).Error("send confirmation mail")
			}
		}()
	}
	return nil
}

// applyFailed sets payment_status FAILED without touching the lifecycle
// status, and only while the order is still UNPAID: a stale failure event
// never overrides a completed payment. Order-less or unmatched failure
// events are acknowledged silently.
func (s *ReconcilerService) applyFailed(ctx context.Context, event *payments.Event) error {
	if event.OrderID == "" {
		s.log.Debug("failure event without order id, acknowledged")
		return nil
	}
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		return nil
	}

	applied, err := s.store.MarkOrderPaymentFailed(ctx, orderID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		s.log.WithError(err).WithField("order_id", orderID).Error("apply failed event")
		return err
	}
	if applied {
		s.log.WithField("order_id", orderID).Warn("order payment failed")
	}
	return nil
}
