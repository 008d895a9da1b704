package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const checkoutCompleted = "checkout.session.completed"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Confirmation is a verified, parsed payment-confirmation event. BuyerID
// carries the external identity id the session was created with.
type Confirmation struct {
	SessionID string
	EventID   string
	BuyerID   string
	Amount    float64
	CreatedAt time.Time
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID          string            `json:"id"`
			AmountTotal int64             `json:"amount_total"`
			Metadata    map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
	Created int64 `json:"created"`
}

// VerifySignature checks the collaborator's signature header: HMAC-SHA256
// of "<timestamp>.<payload>" keyed by the shared webhook secret. The header
// may list several v1 candidates; any match passes.
func VerifySignature(payload []byte, sigHeader, secret string) error {
	sigHeader = strings.TrimSpace(sigHeader)
	if sigHeader == "" {
		return ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// ParseConfirmation decodes a verified payload. The second return value is
// false for event types other than a completed checkout; those are
// acknowledged and dropped.
func ParseConfirmation(payload []byte) (*Confirmation, bool, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, false, ErrInvalidPayload
	}

	if event.Type != checkoutCompleted {
		return nil, false, nil
	}

	object := event.Data.Object
	if object.ID == "" || object.Metadata["eventId"] == "" || object.Metadata["buyerId"] == "" {
		return nil, false, ErrInvalidPayload
	}

	createdAt := time.Now().UTC()
	if event.Created > 0 {
		createdAt = time.Unix(event.Created, 0).UTC()
	}

	return &Confirmation{
		SessionID: object.ID,
		EventID:   object.Metadata["eventId"],
		BuyerID:   object.Metadata["buyerId"],
		Amount:    float64(object.AmountTotal) / 100,
		CreatedAt: createdAt,
	}, true, nil
}

func parseSignatureHeader(header string) (timestamp string, signatures []string, err error) {
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			timestamp = pair[1]
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("parseSignatureHeader: missing timestamp or signature")
	}
	return timestamp, signatures, nil
}
