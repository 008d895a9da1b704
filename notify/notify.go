package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"eventhub-backend/model"
	"fmt"
	"net/http"
)

const (
	KindRSVP     = "rsvp"
	KindReminder = "reminder"

	accessPassHeader = "X-Access-Pass"
)

// Notification is the structured payload the notification collaborator
// accepts. Delivery is best-effort; callers never fail on a send error.
type Notification struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	EventTitle string `json:"event_title"`
	EventDate  string `json:"event_date"`
	EventTime  string `json:"event_time"`
	EventPlace string `json:"event_place"`
	Kind       string `json:"reminder_type"`
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type webhookSender struct {
	url        string
	accessPass string
	httpClient http.Client
}

func NewSender(url, accessPass string) Sender {
	return &webhookSender{url: url, accessPass: accessPass}
}

func (s *webhookSender) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("send: error marshalling notification: %s", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send: error building request: %s", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessPassHeader, s.accessPass)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send: error sending notification: %s", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("send: collaborator rejected notification: status code: %d", res.StatusCode)
	}
	return nil
}

// TicketNotification builds the payload for a buyer's ticket on an event.
func TicketNotification(buyer *model.User, event *model.Event, kind string) Notification {
	place := event.Location
	if place == "" {
		place = event.URL
	}
	start := event.StartDateTime.UTC()
	return Notification{
		Name:       buyer.DisplayName(),
		Email:      buyer.Email,
		EventTitle: event.Title,
		EventDate:  start.Format("2006-01-02"),
		EventTime:  start.Format("03:04 PM"),
		EventPlace: place,
		Kind:       kind,
	}
}
