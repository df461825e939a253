package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the payment provider's REST API with the account secret
// key and verifies inbound webhooks with the webhook secret.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	http          *http.Client
}

func NewClient(baseURL, secretKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d on %s %s", ErrProvider, resp.StatusCode, method, path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ListActiveSubscriptions(ctx context.Context, teamID string) ([]Subscription, error) {
	q := url.Values{}
	q.Set("status", "active")
	q.Set("metadata[teamId]", teamID)

	var result struct {
		Data []Subscription `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/subscriptions?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) CreateCustomer(ctx context.Context, teamID, email string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[teamId]", teamID)

	var customer struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &customer); err != nil {
		return "", err
	}
	return customer.ID, nil
}

func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)

	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+subscriptionID, nil, nil)
}

// ConstructVerifiedEvent rejects the payload before any decoding when the
// signature does not match.
func (c *Client) ConstructVerifiedEvent(payload []byte, signature string) (*Event, error) {
	if err := VerifySignature(payload, signature, c.webhookSecret, time.Now()); err != nil {
		return nil, err
	}

	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID               string            `json:"id"`
				Subscription     string            `json:"subscription"`
				CurrentPeriodEnd int64             `json:"current_period_end"`
				PeriodEnd        int64             `json:"period_end"`
				Metadata         map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("billing: malformed event payload: %w", err)
	}

	event := &Event{
		Type:           raw.Type,
		SubscriptionID: raw.Data.Object.Subscription,
		PeriodEnd:      raw.Data.Object.CurrentPeriodEnd,
		Metadata:       raw.Data.Object.Metadata,
	}
	// Subscription events carry the subscription id as the object id;
	// invoice events reference it through the subscription field.
	if event.SubscriptionID == "" {
		event.SubscriptionID = raw.Data.Object.ID
	}
	if event.PeriodEnd == 0 {
		event.PeriodEnd = raw.Data.Object.PeriodEnd
	}
	return event, nil
}
