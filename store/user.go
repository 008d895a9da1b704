package store

import (
	"context"
	"eventhub-backend/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *Store) FindUserByID(ctx context.Context, userID primitive.ObjectID) (*model.User, bool, error) {
	var user model.User
	err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findUserByID: error querying user: %w", err)
	}
	return &user, true, nil
}

func (s *Store) FindUserByIdentityID(ctx context.Context, identityID string) (*model.User, bool, error) {
	var user model.User
	err := s.users().FindOne(ctx, bson.M{"identity_id": identityID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findUserByIdentityID: error querying user: %w", err)
	}
	return &user, true, nil
}

// CreateUser inserts a user record. The unique index on identity_id makes
// concurrent first-contact provisioning safe: the loser fetches the record
// the winner inserted.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := s.users().InsertOne(ctx, user)
	if err != nil {
		if isDuplicate(err) {
			existing, found, ferr := s.FindUserByIdentityID(ctx, user.IdentityID)
			if ferr != nil {
				return nil, fmt.Errorf("createUser: duplicate identity, error fetching existing user: %w", ferr)
			}
			if found {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("createUser: error inserting user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, userID primitive.ObjectID, user *model.User) (*model.User, bool, error) {
	update := bson.M{"$set": bson.M{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"username":   user.Username,
		"photo":      user.Photo,
	}}

	res, err := s.users().UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return nil, false, fmt.Errorf("updateUser: error updating user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return nil, false, nil
	}
	return s.FindUserByID(ctx, userID)
}
