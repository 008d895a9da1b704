package ticket

import (
	"context"
	"errors"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"eventhub-backend/notify"
	"eventhub-backend/payment"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OutcomeStatus string

const (
	AlreadyHasTicket  OutcomeStatus = "ALREADY_HAS_TICKET"
	FreeTicketIssued  OutcomeStatus = "FREE_TICKET_ISSUED"
	RedirectToPayment OutcomeStatus = "REDIRECT_TO_PAYMENT"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrBuyerNotFound = errors.New("buyer not found")
	ErrEventClosed   = errors.New("event has already ended")
	ErrInvalidPrice  = errors.New("invalid price for paid event")
	ErrPaymentSetup  = errors.New("unable to create payment session")
)

// Outcome is what a ticket request resolves to. RedirectURL is set only
// for RedirectToPayment; Order only for the other two statuses.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	Order       *model.Order  `json:"order,omitempty"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

// Store is the slice of the document store the workflow touches. The
// duplicate guarantee lives in CreateOrderIfAbsent: the storage layer's
// unique index decides races, and the loser receives the winning order
// with created=false.
type Store interface {
	FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error)
	FindUserByIdentityID(ctx context.Context, identityID string) (*model.User, bool, error)
	FindOrderByEventAndBuyer(ctx context.Context, eventID, buyerID primitive.ObjectID) (*model.Order, bool, error)
	FindOrderByPaymentRef(ctx context.Context, paymentRef string) (*model.Order, bool, error)
	CreateOrderIfAbsent(ctx context.Context, order *model.Order) (*model.Order, bool, error)
}

type Service struct {
	store    Store
	sessions payment.SessionCreator
	notifier notify.Sender
	now      func() time.Time
	runAsync func(func())
}

func NewService(store Store, sessions payment.SessionCreator, notifier notify.Sender) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		runAsync: func(f func()) { go f() },
	}
}

// Request decides the outcome for a buyer asking for a ticket on an event.
// A paid event whose price resolves to zero takes the free path. Retried or
// concurrent requests all converge on a single order per (event, buyer).
func (s *Service) Request(ctx context.Context, eventID primitive.ObjectID, buyer *model.User) (*Outcome, error) {
	event, found, err := s.store.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("request: error fetching event %s: %w", eventID.Hex(), err)
	}
	if !found {
		return nil, ErrEventNotFound
	}

	if !event.EndDateTime.After(s.now()) {
		return nil, ErrEventClosed
	}

	// Fast path only. The unique index on (event, buyer) is what actually
	// enforces the single-ticket invariant below.
	existing, found, err := s.store.FindOrderByEventAndBuyer(ctx, eventID, buyer.ID)
	if err != nil {
		return nil, fmt.Errorf("request: error checking existing order: %w", err)
	}
	if found {
		return &Outcome{Status: AlreadyHasTicket, Order: existing}, nil
	}

	price := event.Price
	if event.IsFree {
		price = 0
	}

	if price == 0 {
		return s.issueFree(ctx, event, buyer)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return nil, ErrInvalidPrice
	}

	session, err := s.sessions.CreateSession(ctx, payment.SessionParams{
		EventID: event.ID.Hex(),
		BuyerID: buyer.IdentityID,
		Title:   event.Title,
		Amount:  price,
	})
	if err != nil {
		return nil, fmt.Errorf("request: %v: %w", err, ErrPaymentSetup)
	}

	// No order yet. The payment confirmation webhook creates it once the
	// collaborator reports a settled payment.
	return &Outcome{Status: RedirectToPayment, RedirectURL: session.URL}, nil
}

func (s *Service) issueFree(ctx context.Context, event *model.Event, buyer *model.User) (*Outcome, error) {
	order := &model.Order{
		Event:       event.ID,
		Buyer:       buyer.ID,
		TotalAmount: 0,
		IsFree:      true,
		CreatedAt:   s.now(),
	}

	persisted, created, err := s.store.CreateOrderIfAbsent(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("issueFree: error creating order: %w", err)
	}
	if !created {
		return &Outcome{Status: AlreadyHasTicket, Order: persisted}, nil
	}

	s.notifyTicket(ctx, buyer, event, notify.KindRSVP)
	return &Outcome{Status: FreeTicketIssued, Order: persisted}, nil
}

// ConfirmPayment finalizes a paid order from a verified confirmation.
// Confirmations may be delivered more than once; the session id makes the
// operation idempotent, and a lost (event, buyer) race returns the order
// that won.
func (s *Service) ConfirmPayment(ctx context.Context, conf *payment.Confirmation) (*model.Order, error) {
	existing, found, err := s.store.FindOrderByPaymentRef(ctx, conf.SessionID)
	if err != nil {
		return nil, fmt.Errorf("confirmPayment: error checking session %s: %w", conf.SessionID, err)
	}
	if found {
		return existing, nil
	}

	eventID, err := primitive.ObjectIDFromHex(conf.EventID)
	if err != nil {
		return nil, fmt.Errorf("confirmPayment: invalid event id %q: %w", conf.EventID, ErrEventNotFound)
	}

	buyer, found, err := s.store.FindUserByIdentityID(ctx, conf.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("confirmPayment: error fetching buyer %s: %w", conf.BuyerID, err)
	}
	if !found {
		return nil, ErrBuyerNotFound
	}

	amount := conf.Amount
	if math.IsNaN(amount) || amount < 0 {
		amount = 0
	}

	order := &model.Order{
		Event:       eventID,
		Buyer:       buyer.ID,
		TotalAmount: amount,
		IsFree:      false,
		PaymentRef:  conf.SessionID,
		CreatedAt:   conf.CreatedAt,
	}

	persisted, created, err := s.store.CreateOrderIfAbsent(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("confirmPayment: error creating order: %w", err)
	}

	if created {
		if event, found, ferr := s.store.FindEventByID(ctx, eventID); ferr == nil && found {
			s.notifyTicket(ctx, buyer, event, notify.KindRSVP)
		}
	}
	return persisted, nil
}

// notifyTicket fires the rsvp/reminder webhook off the request path. Send
// failures are logged and swallowed; they never affect the ticket outcome.
func (s *Service) notifyTicket(ctx context.Context, buyer *model.User, event *model.Event, kind string) {
	n := notify.TicketNotification(buyer, event, kind)
	s.runAsync(func() {
		if err := s.notifier.Send(context.Background(), n); err != nil {
			logger.Errorf(ctx, "notifyTicket: unable to send %s notification for event %s: %+v", kind, event.ID.Hex(), err)
		}
	})
}
