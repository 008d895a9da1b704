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

func (s *Store) CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	res, err := s.events().InsertOne(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("createEvent: error inserting event: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = id
	}
	return event, nil
}

func (s *Store) FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error) {
	var event model.Event
	err := s.events().FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findEventByID: error querying event: %w", err)
	}
	return &event, true, nil
}

// UpdateEvent replaces the mutable attributes of an event. Status is set
// explicitly by the caller; an organizer edit resets it to pending.
func (s *Store) UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	update := bson.M{"$set": bson.M{
		"title":           event.Title,
		"description":     event.Description,
		"category":        event.Category,
		"start_date_time": event.StartDateTime,
		"end_date_time":   event.EndDateTime,
		"location":        event.Location,
		"url":             event.URL,
		"is_free":         event.IsFree,
		"price":           event.Price,
		"image_url":       event.ImageURL,
		"status":          event.Status,
	}}

	res := s.events().FindOneAndUpdate(ctx, bson.M{"_id": event.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated model.Event
	if err := res.Decode(&updated); err != nil {
		return nil, fmt.Errorf("updateEvent: error updating event %s: %w", event.ID.Hex(), err)
	}
	return &updated, nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, eventID primitive.ObjectID, status model.EventStatus) (*model.Event, bool, error) {
	res := s.events().FindOneAndUpdate(ctx, bson.M{"_id": eventID},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated model.Event
	err := res.Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("updateEventStatus: error updating event %s: %w", eventID.Hex(), err)
	}
	return &updated, true, nil
}

// AttachModeration stores the moderation collaborator's advisory metadata
// on the event without touching its status.
func (s *Store) AttachModeration(ctx context.Context, eventID primitive.ObjectID, m *model.Moderation) (bool, error) {
	res, err := s.events().UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$set": bson.M{"moderation": m}})
	if err != nil {
		return false, fmt.Errorf("attachModeration: error updating event %s: %w", eventID.Hex(), err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID primitive.ObjectID) (bool, error) {
	res, err := s.events().DeleteOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		return false, fmt.Errorf("deleteEvent: error deleting event %s: %w", eventID.Hex(), err)
	}
	return res.DeletedCount > 0, nil
}

// FindPublicEvents lists approved events only, newest first, optionally
// filtered by a case-insensitive title query and a category.
func (s *Store) FindPublicEvents(ctx context.Context, query, category string, page, limit int64) ([]model.Event, int64, error) {
	conditions := bson.M{"status": model.StatusApproved}
	if query != "" {
		conditions["title"] = bson.M{"$regex": query, "$options": "i"}
	}
	if category != "" {
		conditions["category"] = bson.M{"$regex": category, "$options": "i"}
	}
	return s.findEvents(ctx, conditions, page, limit)
}

func (s *Store) FindEventsByOrganizer(ctx context.Context, organizerID primitive.ObjectID, page, limit int64) ([]model.Event, int64, error) {
	return s.findEvents(ctx, bson.M{"organizer": organizerID}, page, limit)
}

func (s *Store) FindRelatedEvents(ctx context.Context, category string, excludeID primitive.ObjectID, page, limit int64) ([]model.Event, int64, error) {
	conditions := bson.M{
		"category": category,
		"_id":      bson.M{"$ne": excludeID},
		"status":   model.StatusApproved,
	}
	return s.findEvents(ctx, conditions, page, limit)
}

func (s *Store) FindPendingEvents(ctx context.Context) ([]model.Event, error) {
	events, _, err := s.findEvents(ctx, bson.M{"status": model.StatusPending}, 1, 100)
	return events, err
}

// FindEventsStartingBetween returns approved events whose start timestamp
// falls inside [start, end]; the reminder sweep uses it for tomorrow's window.
func (s *Store) FindEventsStartingBetween(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	conditions := bson.M{
		"start_date_time": bson.M{"$gte": start, "$lte": end},
		"status":          model.StatusApproved,
	}
	events, _, err := s.findEvents(ctx, conditions, 1, 500)
	return events, err
}

func (s *Store) findEvents(ctx context.Context, conditions bson.M, page, limit int64) ([]model.Event, int64, error) {
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := s.events().Find(ctx, conditions, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("findEvents: error querying events: %w", err)
	}
	defer cur.Close(ctx)

	var events []model.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, 0, fmt.Errorf("findEvents: error decoding events: %w", err)
	}

	count, err := s.events().CountDocuments(ctx, conditions)
	if err != nil {
		return nil, 0, fmt.Errorf("findEvents: error counting events: %w", err)
	}

	totalPages := count / limit
	if count%limit > 0 {
		totalPages++
	}
	return events, totalPages, nil
}
