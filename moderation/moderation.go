package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const accessPassHeader = "X-Access-Pass"

// Result is the advisory scoring the moderation collaborator posts back to
// the moderation webhook after an event is submitted.
type Result struct {
	EventID   string   `json:"event_id"`
	RiskScore *float64 `json:"risk_score,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Flags     []string `json:"flags,omitempty"`
}

type submission struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Submitter hands event content to the moderation collaborator for
// asynchronous scoring. Event creation never blocks on it.
type Submitter interface {
	Submit(ctx context.Context, eventID, title, description string) error
}

type webhookSubmitter struct {
	url        string
	accessPass string
	httpClient http.Client
}

func NewSubmitter(url, accessPass string) Submitter {
	return &webhookSubmitter{url: url, accessPass: accessPass}
}

func (s *webhookSubmitter) Submit(ctx context.Context, eventID, title, description string) error {
	body, err := json.Marshal(submission{EventID: eventID, Title: title, Description: description})
	if err != nil {
		return fmt.Errorf("submit: error marshalling submission: %s", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit: error building request: %s", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessPassHeader, s.accessPass)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit: error submitting event %s: %s", eventID, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("submit: collaborator rejected event %s: status code: %d", eventID, res.StatusCode)
	}
	return nil
}
