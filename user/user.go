package user

import (
	"context"
	"errors"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("user not found")

// Store is the slice of the document store the user workflows use.
type Store interface {
	FindUserByID(ctx context.Context, userID primitive.ObjectID) (*model.User, bool, error)
	UpdateUser(ctx context.Context, userID primitive.ObjectID, user *model.User) (*model.User, bool, error)
	FindOrdersByBuyer(ctx context.Context, buyerID primitive.ObjectID, page, limit int64) ([]model.Order, error)
	FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update *model.User) (*model.User, error) {
	updated, found, err := s.store.UpdateUser(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("updateProfile: error updating user %s: %w", userID.Hex(), err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return updated, nil
}

// Tickets lists the buyer's orders, newest first, each joined with its
// event. An order whose event was deleted still lists, without the event.
func (s *Service) Tickets(ctx context.Context, buyerID primitive.ObjectID, page, limit int64) ([]model.TicketSummary, error) {
	orders, err := s.store.FindOrdersByBuyer(ctx, buyerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("tickets: error listing orders for %s: %w", buyerID.Hex(), err)
	}

	summaries := make([]model.TicketSummary, 0, len(orders))
	for _, order := range orders {
		summary := model.TicketSummary{Order: order}
		event, found, err := s.store.FindEventByID(ctx, order.Event)
		if err != nil {
			logger.Errorf(ctx, "tickets: error fetching event %s for order %s: %+v", order.Event.Hex(), order.ID.Hex(), err)
		} else if found {
			summary.Event = event
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
