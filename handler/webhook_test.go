package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"eventhub-backend/config"
	"eventhub-backend/model"
	"eventhub-backend/notify"
	"eventhub-backend/payment"
	"eventhub-backend/ticket"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTicketStore struct {
	event  *model.Event
	buyer  *model.User
	orders []*model.Order
}

func (f *fakeTicketStore) FindEventByID(ctx context.Context, eventID primitive.ObjectID) (*model.Event, bool, error) {
	if f.event != nil && f.event.ID == eventID {
		return f.event, true, nil
	}
	return nil, false, nil
}

func (f *fakeTicketStore) FindUserByIdentityID(ctx context.Context, identityID string) (*model.User, bool, error) {
	if f.buyer != nil && f.buyer.IdentityID == identityID {
		return f.buyer, true, nil
	}
	return nil, false, nil
}

func (f *fakeTicketStore) FindOrderByEventAndBuyer(ctx context.Context, eventID, buyerID primitive.ObjectID) (*model.Order, bool, error) {
	for _, o := range f.orders {
		if o.Event == eventID && o.Buyer == buyerID {
			return o, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeTicketStore) FindOrderByPaymentRef(ctx context.Context, paymentRef string) (*model.Order, bool, error) {
	for _, o := range f.orders {
		if o.PaymentRef == paymentRef {
			return o, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeTicketStore) CreateOrderIfAbsent(ctx context.Context, order *model.Order) (*model.Order, bool, error) {
	order.ID = primitive.NewObjectID()
	f.orders = append(f.orders, order)
	return order, true, nil
}

type noopSessions struct{}

func (noopSessions) CreateSession(ctx context.Context, p payment.SessionParams) (*payment.Session, error) {
	return &payment.Session{ID: "cs_test", URL: "https://pay.example.com/cs_test"}, nil
}

type noopNotifier struct{}

func (noopNotifier) Send(ctx context.Context, n notify.Notification) error { return nil }

func signedRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	timestamp := "1700000000"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s.%s", timestamp, string(payload))))

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func TestPaymentWebhookCreatesOrder(t *testing.T) {
	viper.Set(config.PaymentWebhookSecret, "whsec_test")
	defer viper.Set(config.PaymentWebhookSecret, "")

	store := &fakeTicketStore{
		event: &model.Event{ID: primitive.NewObjectID(), Title: "Harvest Fair"},
		buyer: &model.User{ID: primitive.NewObjectID(), IdentityID: "idp|buyer-1", Email: "buyer@example.com"},
	}
	service := ticket.NewService(store, noopSessions{}, noopNotifier{})

	payload := []byte(fmt.Sprintf(`{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_42", "amount_total": 2500,
			"metadata": {"eventId": %q, "buyerId": "idp|buyer-1"}}}
	}`, store.event.ID.Hex()))

	rec := httptest.NewRecorder()
	PaymentWebhook(service)(rec, signedRequest(t, payload, "whsec_test"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.orders, 1)
	assert.Equal(t, "cs_test_42", store.orders[0].PaymentRef)
	assert.Equal(t, 25.0, store.orders[0].TotalAmount)
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	viper.Set(config.PaymentWebhookSecret, "whsec_test")
	defer viper.Set(config.PaymentWebhookSecret, "")

	store := &fakeTicketStore{}
	service := ticket.NewService(store, noopSessions{}, noopNotifier{})

	payload := []byte(`{"type": "checkout.session.completed"}`)
	req := signedRequest(t, payload, "whsec_wrong")

	rec := httptest.NewRecorder()
	PaymentWebhook(service)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, store.orders)
}

func TestPaymentWebhookAcknowledgesOtherEventTypes(t *testing.T) {
	viper.Set(config.PaymentWebhookSecret, "whsec_test")
	defer viper.Set(config.PaymentWebhookSecret, "")

	store := &fakeTicketStore{}
	service := ticket.NewService(store, noopSessions{}, noopNotifier{})

	payload := []byte(`{"type": "payment_intent.created", "data": {"object": {"id": "pi_1"}}}`)

	rec := httptest.NewRecorder()
	PaymentWebhook(service)(rec, signedRequest(t, payload, "whsec_test"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "received")
	assert.Empty(t, store.orders)
}

func TestPaymentWebhookUnknownBuyer(t *testing.T) {
	viper.Set(config.PaymentWebhookSecret, "whsec_test")
	defer viper.Set(config.PaymentWebhookSecret, "")

	store := &fakeTicketStore{}
	service := ticket.NewService(store, noopSessions{}, noopNotifier{})

	payload := []byte(fmt.Sprintf(`{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_42", "amount_total": 2500,
			"metadata": {"eventId": %q, "buyerId": "idp|stranger"}}}
	}`, primitive.NewObjectID().Hex()))

	rec := httptest.NewRecorder()
	PaymentWebhook(service)(rec, signedRequest(t, payload, "whsec_test"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
