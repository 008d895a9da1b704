package reminder

import (
	"context"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"eventhub-backend/notify"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dedupTTL = 48 * time.Hour

// Store is the slice of the document store the sweep reads.
type Store interface {
	FindEventsStartingBetween(ctx context.Context, start, end time.Time) ([]model.Event, error)
	FindOrdersByEvent(ctx context.Context, eventID primitive.ObjectID) ([]model.Order, error)
	FindUserByID(ctx context.Context, userID primitive.ObjectID) (*model.User, bool, error)
}

// Dedup is the slice of the redis client the sweep uses to remember which
// (event, buyer) pairs were already reminded.
type Dedup interface {
	SetNX(key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type Service struct {
	store    Store
	notifier notify.Sender
	dedup    Dedup
	now      func() time.Time
}

func NewService(store Store, notifier notify.Sender, dedup Dedup) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		dedup:    dedup,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Sweep notifies every ticket holder of an approved event starting
// tomorrow. A redis SETNX per (event, buyer) keeps repeated sweeps from
// reminding the same ticket twice. Send failures are logged and skipped;
// the sweep carries on.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	tomorrow := s.now().AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)

	events, err := s.store.FindEventsStartingBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("sweep: error listing tomorrow's events: %w", err)
	}

	sent := 0
	for i := range events {
		event := events[i]
		orders, err := s.store.FindOrdersByEvent(ctx, event.ID)
		if err != nil {
			logger.Errorf(ctx, "sweep: error listing orders for event %s: %+v", event.ID.Hex(), err)
			continue
		}

		for _, order := range orders {
			key := fmt.Sprintf("reminder-%s-%s", order.Event.Hex(), order.Buyer.Hex())
			fresh, err := s.dedup.SetNX(key, 1, dedupTTL).Result()
			if err != nil {
				logger.Errorf(ctx, "sweep: error checking reminder dedup for %s: %+v", key, err)
				continue
			}
			if !fresh {
				continue
			}

			buyer, found, err := s.store.FindUserByID(ctx, order.Buyer)
			if err != nil || !found {
				logger.Errorf(ctx, "sweep: unable to resolve buyer %s: found: %t: %+v", order.Buyer.Hex(), found, err)
				continue
			}
			if buyer.Email == "" {
				continue
			}

			n := notify.TicketNotification(buyer, &event, notify.KindReminder)
			if err := s.notifier.Send(ctx, n); err != nil {
				logger.Errorf(ctx, "sweep: unable to send reminder for event %s to %s: %+v", event.ID.Hex(), buyer.Email, err)
				continue
			}
			sent++
		}
	}

	return sent, nil
}
