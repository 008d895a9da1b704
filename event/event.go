package event

import (
	"context"
	"errors"
	"eventhub-backend/identity"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"eventhub-backend/moderation"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound      = errors.New("event not found")
	ErrNotOrganizer  = errors.New("caller does not own this event")
	ErrInvalidStatus = errors.New("invalid publication status")
	ErrInvalidEvent  = errors.New("invalid event data")
)

// Store is the slice of the document store the event workflows use.
type Store interface {
	CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error)
	UpdateEvent(ctx context.Context, event *model.Event) (*model.Event, error)
	UpdateEventStatus(ctx context.Context, eventID primitive.ObjectID, status model.EventStatus) (*model.Event, bool, error)
	AttachModeration(ctx context.Context, eventID primitive.ObjectID, m *model.Moderation) (bool, error)
	DeleteEvent(ctx context.Context, eventID primitive.ObjectID) (bool, error)
	FindPublicEvents(ctx context.Context, query, category string, page, limit int64) ([]model.Event, int64, error)
	FindEventsByOrganizer(ctx context.Context, organizerID primitive.ObjectID, page, limit int64) ([]model.Event, int64, error)
	FindRelatedEvents(ctx context.Context, category string, excludeID primitive.ObjectID, page, limit int64) ([]model.Event, int64, error)
	FindPendingEvents(ctx context.Context) ([]model.Event, error)
}

type Service struct {
	store     Store
	moderator moderation.Submitter
	now       func() time.Time
	runAsync  func(func())
}

func NewService(store Store, moderator moderation.Submitter) *Service {
	return &Service{
		store:     store,
		moderator: moderator,
		now:       func() time.Time { return time.Now().UTC() },
		runAsync:  func(f func()) { go f() },
	}
}

// Create inserts a new event in pending state for the caller and submits
// it to the moderation collaborator off the request path.
func (s *Service) Create(ctx context.Context, caller *identity.Caller, e *model.Event) (*model.Event, error) {
	if err := validate(e); err != nil {
		return nil, err
	}

	e.ID = primitive.NilObjectID
	e.Organizer = caller.User.ID
	e.Status = model.StatusPending
	e.Moderation = nil
	e.CreatedAt = s.now()

	created, err := s.store.CreateEvent(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("create: error creating event: %w", err)
	}

	s.submitForModeration(ctx, created)
	return created, nil
}

// Update lets the organizer edit their event. An edit resets the status to
// pending, so the event goes back through moderation and admin review.
func (s *Service) Update(ctx context.Context, caller *identity.Caller, e *model.Event) (*model.Event, error) {
	if err := validate(e); err != nil {
		return nil, err
	}

	current, found, err := s.store.FindEventByID(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("update: error fetching event %s: %w", e.ID.Hex(), err)
	}
	if !found {
		return nil, ErrNotFound
	}
	if current.Organizer != caller.User.ID {
		return nil, ErrNotOrganizer
	}

	e.Organizer = current.Organizer
	e.Status = model.StatusPending

	updated, err := s.store.UpdateEvent(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("update: error updating event %s: %w", e.ID.Hex(), err)
	}

	s.submitForModeration(ctx, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller *identity.Caller, eventID primitive.ObjectID) error {
	current, found, err := s.store.FindEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("delete: error fetching event %s: %w", eventID.Hex(), err)
	}
	if !found {
		return ErrNotFound
	}
	if current.Organizer != caller.User.ID && !caller.Admin {
		return ErrNotOrganizer
	}

	if _, err := s.store.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete: error deleting event %s: %w", eventID.Hex(), err)
	}
	return nil
}

// Get returns an event subject to the visibility rule: pending and rejected
// events exist only for their organizer and for administrators.
func (s *Service) Get(ctx context.Context, caller *identity.Caller, eventID primitive.ObjectID) (*model.Event, error) {
	event, found, err := s.store.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get: error fetching event %s: %w", eventID.Hex(), err)
	}
	if !found || !VisibleTo(event, caller) {
		return nil, ErrNotFound
	}
	return event, nil
}

func (s *Service) Search(ctx context.Context, query, category string, page, limit int64) (*model.EventPage, error) {
	events, totalPages, err := s.store.FindPublicEvents(ctx, query, category, page, limit)
	if err != nil {
		return nil, fmt.Errorf("search: error listing events: %w", err)
	}
	return &model.EventPage{Events: events, TotalPages: totalPages}, nil
}

func (s *Service) ByOrganizer(ctx context.Context, organizerID primitive.ObjectID, page, limit int64) (*model.EventPage, error) {
	events, totalPages, err := s.store.FindEventsByOrganizer(ctx, organizerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("byOrganizer: error listing events for %s: %w", organizerID.Hex(), err)
	}
	return &model.EventPage{Events: events, TotalPages: totalPages}, nil
}

func (s *Service) Related(ctx context.Context, category string, excludeID primitive.ObjectID, page, limit int64) (*model.EventPage, error) {
	events, totalPages, err := s.store.FindRelatedEvents(ctx, category, excludeID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("related: error listing events: %w", err)
	}
	return &model.EventPage{Events: events, TotalPages: totalPages}, nil
}

func (s *Service) Pending(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.FindPendingEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending: error listing events: %w", err)
	}
	return events, nil
}

// SetStatus applies an administrator's decision. Only the two terminal
// states are reachable here; pending is re-entered only through an edit.
func (s *Service) SetStatus(ctx context.Context, eventID primitive.ObjectID, status model.EventStatus) (*model.Event, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, ErrInvalidStatus
	}

	updated, found, err := s.store.UpdateEventStatus(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("setStatus: error updating event %s: %w", eventID.Hex(), err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return updated, nil
}

// ApplyModeration persists the collaborator's advisory metadata on the
// event. Status is untouched; administrators read the metadata and decide.
func (s *Service) ApplyModeration(ctx context.Context, result *moderation.Result) error {
	eventID, err := primitive.ObjectIDFromHex(result.EventID)
	if err != nil {
		return fmt.Errorf("applyModeration: invalid event id %q: %w", result.EventID, ErrNotFound)
	}

	matched, err := s.store.AttachModeration(ctx, eventID, &model.Moderation{
		RiskScore: result.RiskScore,
		Reasoning: result.Reasoning,
		Flags:     result.Flags,
	})
	if err != nil {
		return fmt.Errorf("applyModeration: error attaching metadata to %s: %w", result.EventID, err)
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

// VisibleTo implements the publication gate: approved events are public,
// everything else is organizer- and admin-only.
func VisibleTo(event *model.Event, caller *identity.Caller) bool {
	if event.Status == model.StatusApproved {
		return true
	}
	if caller == nil || caller.User == nil {
		return false
	}
	return caller.Admin || event.Organizer == caller.User.ID
}

// submitForModeration is fire-and-forget; a collaborator outage leaves the
// event pending with no metadata and does not block the organizer.
func (s *Service) submitForModeration(ctx context.Context, event *model.Event) {
	id, title, description := event.ID.Hex(), event.Title, event.Description
	s.runAsync(func() {
		if err := s.moderator.Submit(context.Background(), id, title, description); err != nil {
			logger.Errorf(ctx, "submitForModeration: moderation unavailable for event %s: %+v", id, err)
		}
	})
}

func validate(e *model.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if e.EndDateTime.Before(e.StartDateTime) {
		return fmt.Errorf("%w: event ends before it starts", ErrInvalidEvent)
	}
	if !e.IsFree && e.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidEvent)
	}
	return nil
}
