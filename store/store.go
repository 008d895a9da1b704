package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	eventsCollection = "events"
	usersCollection  = "users"
	ordersCollection = "orders"
)

// Store wraps the document database. All duplicate-ticket enforcement
// happens here, through the unique indexes declared in EnsureIndexes.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// EnsureIndexes creates the unique indexes the workflows rely on:
// one order per (event, buyer), one order per payment session, and one
// user per external identity. Must run before the store serves traffic.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.orders().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event", Value: 1}, {Key: "buyer", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "payment_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.D{{Key: "payment_ref", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$type", Value: "string"}}}},
			),
		},
	})
	if err != nil {
		return fmt.Errorf("ensureIndexes: unable to create order indexes: %w", err)
	}

	_, err = s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identity_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensureIndexes: unable to create user index: %w", err)
	}

	_, err = s.events().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "organizer", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "start_date_time", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ensureIndexes: unable to create event indexes: %w", err)
	}

	return nil
}

func (s *Store) events() *mongo.Collection {
	return s.db.Collection(eventsCollection)
}

func (s *Store) users() *mongo.Collection {
	return s.db.Collection(usersCollection)
}

func (s *Store) orders() *mongo.Collection {
	return s.db.Collection(ordersCollection)
}

// isDuplicate reports whether err is the store rejecting an insert that
// collides with a unique index. Callers treat this as "already exists",
// never as a failure.
func isDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
