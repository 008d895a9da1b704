package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Session is a hosted checkout session created at the payment collaborator.
// The buyer is redirected to URL; the collaborator calls back with a signed
// confirmation once the payment settles.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type SessionParams struct {
	EventID string
	BuyerID string
	Title   string
	Amount  float64
}

type SessionCreator interface {
	CreateSession(ctx context.Context, p SessionParams) (*Session, error)
}

type client struct {
	apiURL     string
	secretKey  string
	successURL string
	cancelURL  string
	currency   string
	httpClient http.Client
}

func NewClient(apiURL, secretKey, successURL, cancelURL, currency string) SessionCreator {
	return &client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   currency,
	}
}

func (c *client) CreateSession(ctx context.Context, p SessionParams) (*Session, error) {
	v := url.Values{}
	v.Set("mode", "payment")
	v.Set("line_items[0][price_data][currency]", c.currency)
	v.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(math.Round(p.Amount*100)), 10))
	v.Set("line_items[0][price_data][product_data][name]", p.Title)
	v.Set("line_items[0][quantity]", "1")
	v.Set("metadata[eventId]", p.EventID)
	v.Set("metadata[buyerId]", p.BuyerID)
	v.Set("success_url", c.successURL)
	v.Set("cancel_url", c.cancelURL)

	session, statusCode, err := c.post(ctx, "/checkout/sessions", v)
	if err != nil {
		return nil, fmt.Errorf("createSession: error creating checkout session: status code: %d: err: %s", statusCode, err)
	}
	return session, nil
}

func (c *client) post(ctx context.Context, path string, values url.Values) (*Session, int, error) {
	req, err := http.NewRequest(http.MethodPost, c.apiURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req = req.WithContext(ctx)

	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, res.StatusCode, fmt.Errorf("post: collaborator rejected the request")
	}

	bodyBytes, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("post: error reading session body: %s", err)
	}

	var session Session
	if err := json.Unmarshal(bodyBytes, &session); err != nil {
		return nil, res.StatusCode, fmt.Errorf("post: error unmarshalling session body: %s", err)
	}
	if session.URL == "" {
		return nil, res.StatusCode, fmt.Errorf("post: session has no redirect url")
	}

	return &session, res.StatusCode, nil
}
