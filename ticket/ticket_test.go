package ticket

import (
	"context"
	"errors"
	"eventhub-backend/model"
	"eventhub-backend/notify"
	"eventhub-backend/payment"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStore struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*model.Event
	users  map[string]*model.User
	orders []*model.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events: map[primitive.ObjectID]*model.Event{},
		users:  map[string]*model.User{},
	}
}

func (f *fakeStore) FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[eventID]
	return event, ok, nil
}

func (f *fakeStore) FindUserByIdentityID(ctx context.Context, identityID string) (*model.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[identityID]
	return user, ok, nil
}

func (f *fakeStore) FindOrderByEventAndBuyer(ctx context.Context, eventID, buyerID primitive.ObjectID) (*model.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.findByPair(eventID, buyerID)
	return order, ok, nil
}

func (f *fakeStore) FindOrderByPaymentRef(ctx context.Context, paymentRef string) (*model.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentRef != "" && o.PaymentRef == paymentRef {
			return o, true, nil
		}
	}
	return nil, false, nil
}

// CreateOrderIfAbsent mimics the unique indexes: one holder of the lock
// wins, everyone else gets the winning order back.
func (f *fakeStore) CreateOrderIfAbsent(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if order.PaymentRef != "" {
		for _, o := range f.orders {
			if o.PaymentRef == order.PaymentRef {
				return o, false, nil
			}
		}
	}
	if existing, ok := f.findByPair(order.Event, order.Buyer); ok {
		return existing, false, nil
	}

	order.ID = primitive.NewObjectID()
	f.orders = append(f.orders, order)
	return order, true, nil
}

func (f *fakeStore) findByPair(eventID, buyerID primitive.ObjectID) (*model.Order, bool) {
	for _, o := range f.orders {
		if o.Event == eventID && o.Buyer == buyerID {
			return o, true
		}
	}
	return nil, false
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type fakeSessions struct {
	mu     sync.Mutex
	err    error
	params []payment.SessionParams
}

func (f *fakeSessions) CreateSession(ctx context.Context, p payment.SessionParams) (*payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.params = append(f.params, p)
	return &payment.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []notify.Notification
}

func (f *fakeNotifier) Send(ctx context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestService(store *fakeStore) (*Service, *fakeSessions, *fakeNotifier) {
	sessions := &fakeSessions{}
	notifier := &fakeNotifier{}
	s := NewService(store, sessions, notifier)
	s.runAsync = func(f func()) { f() }
	return s, sessions, notifier
}

func seedEvent(store *fakeStore, isFree bool, price float64) *model.Event {
	event := &model.Event{
		ID:            primitive.NewObjectID(),
		Title:         "Community Picnic",
		Location:      "Central Park",
		StartDateTime: time.Now().UTC().Add(24 * time.Hour),
		EndDateTime:   time.Now().UTC().Add(30 * time.Hour),
		IsFree:        isFree,
		Price:         price,
		Status:        model.StatusApproved,
	}
	store.events[event.ID] = event
	return event
}

func seedBuyer(store *fakeStore) *model.User {
	buyer := &model.User{
		ID:         primitive.NewObjectID(),
		IdentityID: "idp|buyer-1",
		Email:      "buyer@example.com",
		FirstName:  "Jamie",
	}
	store.users[buyer.IdentityID] = buyer
	return buyer
}

func TestRequestFreeTicketIssued(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, true, 0)
	buyer := seedBuyer(store)
	service, _, notifier := newTestService(store)

	outcome, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)

	assert.Equal(t, FreeTicketIssued, outcome.Status)
	require.NotNil(t, outcome.Order)
	assert.Equal(t, 0.0, outcome.Order.TotalAmount)
	assert.True(t, outcome.Order.IsFree)
	assert.Empty(t, outcome.Order.PaymentRef)
	assert.Equal(t, 1, store.orderCount())

	require.Equal(t, 1, notifier.sentCount())
	assert.Equal(t, notify.KindRSVP, notifier.sent[0].Kind)
	assert.Equal(t, "buyer@example.com", notifier.sent[0].Email)
}

func TestRequestPaidRedirectsToPayment(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	buyer := seedBuyer(store)
	service, sessions, _ := newTestService(store)

	outcome, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)

	assert.Equal(t, RedirectToPayment, outcome.Status)
	assert.Equal(t, "https://pay.example.com/cs_test_1", outcome.RedirectURL)
	assert.Nil(t, outcome.Order)
	assert.Equal(t, 0, store.orderCount(), "no order until the payment confirmation arrives")

	require.Len(t, sessions.params, 1)
	assert.Equal(t, event.ID.Hex(), sessions.params[0].EventID)
	assert.Equal(t, buyer.IdentityID, sessions.params[0].BuyerID)
	assert.Equal(t, 25.0, sessions.params[0].Amount)
}

func TestRequestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, true, 0)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	first, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)
	require.Equal(t, FreeTicketIssued, first.Status)

	second, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)

	assert.Equal(t, AlreadyHasTicket, second.Status)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, 1, store.orderCount())
}

func TestRequestConcurrentFreeRequests(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, true, 0)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	const attempts = 8
	outcomes := make([]*Outcome, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = service.Request(context.Background(), event.ID, buyer)
		}(i)
	}
	wg.Wait()

	issued := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		switch outcomes[i].Status {
		case FreeTicketIssued:
			issued++
		case AlreadyHasTicket:
		default:
			t.Fatalf("unexpected outcome %q", outcomes[i].Status)
		}
	}

	assert.Equal(t, 1, issued, "exactly one request wins the ticket")
	assert.Equal(t, 1, store.orderCount())
}

func TestRequestClosedEvent(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, true, 0)
	event.EndDateTime = time.Now().UTC().Add(-time.Hour)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	_, err := service.Request(context.Background(), event.ID, buyer)

	assert.True(t, errors.Is(err, ErrEventClosed))
	assert.Equal(t, 0, store.orderCount())
}

func TestRequestZeroPricePaidEventIsFree(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 0)
	buyer := seedBuyer(store)
	service, sessions, _ := newTestService(store)

	outcome, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)

	assert.Equal(t, FreeTicketIssued, outcome.Status)
	assert.True(t, outcome.Order.IsFree)
	assert.Empty(t, sessions.params, "no payment session for a zero-price event")
}

func TestRequestNegativePrice(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, -5)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	_, err := service.Request(context.Background(), event.ID, buyer)

	assert.True(t, errors.Is(err, ErrInvalidPrice))
	assert.Equal(t, 0, store.orderCount())
}

func TestRequestUnknownEvent(t *testing.T) {
	store := newFakeStore()
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	_, err := service.Request(context.Background(), primitive.NewObjectID(), buyer)

	assert.True(t, errors.Is(err, ErrEventNotFound))
}

func TestRequestPaymentSetupFailure(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	buyer := seedBuyer(store)
	service, sessions, _ := newTestService(store)
	sessions.err = errors.New("collaborator unavailable")

	_, err := service.Request(context.Background(), event.ID, buyer)

	assert.True(t, errors.Is(err, ErrPaymentSetup))
	assert.Equal(t, 0, store.orderCount())
}

func TestRequestSucceedsWhenNotificationFails(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, true, 0)
	buyer := seedBuyer(store)
	service, _, notifier := newTestService(store)
	notifier.err = errors.New("webhook down")

	outcome, err := service.Request(context.Background(), event.ID, buyer)
	require.NoError(t, err)

	assert.Equal(t, FreeTicketIssued, outcome.Status)
	assert.Equal(t, 1, store.orderCount())
}

func TestConfirmPaymentCreatesOrder(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	buyer := seedBuyer(store)
	service, _, notifier := newTestService(store)

	order, err := service.ConfirmPayment(context.Background(), &payment.Confirmation{
		SessionID: "cs_test_42",
		EventID:   event.ID.Hex(),
		BuyerID:   buyer.IdentityID,
		Amount:    25,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_42", order.PaymentRef)
	assert.Equal(t, 25.0, order.TotalAmount)
	assert.False(t, order.IsFree)
	assert.Equal(t, buyer.ID, order.Buyer)
	assert.Equal(t, 1, store.orderCount())
	assert.Equal(t, 1, notifier.sentCount())
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	conf := &payment.Confirmation{
		SessionID: "cs_test_42",
		EventID:   event.ID.Hex(),
		BuyerID:   buyer.IdentityID,
		Amount:    25,
	}

	first, err := service.ConfirmPayment(context.Background(), conf)
	require.NoError(t, err)

	second, err := service.ConfirmPayment(context.Background(), conf)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.orderCount())
}

func TestConfirmPaymentReturnsExistingOrderOnPairConflict(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	buyer := seedBuyer(store)
	service, _, _ := newTestService(store)

	existing := &model.Order{
		ID:     primitive.NewObjectID(),
		Event:  event.ID,
		Buyer:  buyer.ID,
		IsFree: true,
	}
	store.orders = append(store.orders, existing)

	order, err := service.ConfirmPayment(context.Background(), &payment.Confirmation{
		SessionID: "cs_test_43",
		EventID:   event.ID.Hex(),
		BuyerID:   buyer.IdentityID,
		Amount:    25,
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, order.ID)
	assert.Equal(t, 1, store.orderCount())
}

func TestConfirmPaymentUnknownBuyer(t *testing.T) {
	store := newFakeStore()
	event := seedEvent(store, false, 25)
	service, _, _ := newTestService(store)

	_, err := service.ConfirmPayment(context.Background(), &payment.Confirmation{
		SessionID: "cs_test_44",
		EventID:   event.ID.Hex(),
		BuyerID:   "idp|stranger",
		Amount:    25,
	})

	assert.True(t, errors.Is(err, ErrBuyerNotFound))
	assert.Equal(t, 0, store.orderCount())
}
