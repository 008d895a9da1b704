package store

import (
	"context"
	"eventhub-backend/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) FindOrderByEventAndBuyer(ctx context.Context, eventID, buyerID primitive.ObjectID) (*model.Order, bool, error) {
	var order model.Order
	err := s.orders().FindOne(ctx, bson.M{"event": eventID, "buyer": buyerID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findOrderByEventAndBuyer: error querying order: %w", err)
	}
	return &order, true, nil
}

func (s *Store) FindOrderByPaymentRef(ctx context.Context, paymentRef string) (*model.Order, bool, error) {
	var order model.Order
	err := s.orders().FindOne(ctx, bson.M{"payment_ref": paymentRef}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findOrderByPaymentRef: error querying order: %w", err)
	}
	return &order, true, nil
}

// CreateOrderIfAbsent inserts the order unless one already exists for the
// same (event, buyer) pair or the same payment session. The unique indexes
// decide the winner under concurrent requests; the loser gets the winning
// order back with created=false. Both the free and the paid path go through
// this single operation.
func (s *Store) CreateOrderIfAbsent(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	res, err := s.orders().InsertOne(ctx, order)
	if err != nil {
		if !isDuplicate(err) {
			return nil, false, fmt.Errorf("createOrderIfAbsent: error inserting order: %w", err)
		}

		if order.PaymentRef != "" {
			existing, found, ferr := s.FindOrderByPaymentRef(ctx, order.PaymentRef)
			if ferr != nil {
				return nil, false, fmt.Errorf("createOrderIfAbsent: duplicate session, error fetching existing order: %w", ferr)
			}
			if found {
				return existing, false, nil
			}
		}

		existing, found, ferr := s.FindOrderByEventAndBuyer(ctx, order.Event, order.Buyer)
		if ferr != nil {
			return nil, false, fmt.Errorf("createOrderIfAbsent: duplicate pair, error fetching existing order: %w", ferr)
		}
		if !found {
			return nil, false, fmt.Errorf("createOrderIfAbsent: duplicate rejected but no existing order found for event %s buyer %s", order.Event.Hex(), order.Buyer.Hex())
		}
		return existing, false, nil
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return order, true, nil
}

func (s *Store) FindOrdersByBuyer(ctx context.Context, buyerID primitive.ObjectID, page, limit int64) ([]model.Order, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := s.orders().Find(ctx, bson.M{"buyer": buyerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("findOrdersByBuyer: error querying orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []model.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("findOrdersByBuyer: error decoding orders: %w", err)
	}
	return orders, nil
}

func (s *Store) FindOrdersByEvent(ctx context.Context, eventID primitive.ObjectID) ([]model.Order, error) {
	cur, err := s.orders().Find(ctx, bson.M{"event": eventID})
	if err != nil {
		return nil, fmt.Errorf("findOrdersByEvent: error querying orders: %w", err)
	}
	defer cur.Close(ctx)

	var orders []model.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("findOrdersByEvent: error decoding orders: %w", err)
	}
	return orders, nil
}
