package billing

import (
	"context"
	"errors"
)

var (
	ErrSignatureInvalid = errors.New("billing: webhook signature invalid")
	ErrProvider         = errors.New("billing: provider request failed")
)

// Event type strings delivered by the payment provider.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
)

// Event is a verified billing notification. Events are transient and never
// persisted; the metadata map carries the originating team id.
type Event struct {
	Type           string
	SubscriptionID string
	PeriodEnd      int64
	Metadata       map[string]string
}

type Subscription struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// Provider is the payment-provider surface the membership engine depends
// on. One instance is constructed in main and injected everywhere it is
// needed; nothing in this module reaches for a global client.
type Provider interface {
	ListActiveSubscriptions(ctx context.Context, teamID string) ([]Subscription, error)
	CreateCustomer(ctx context.Context, teamID, email string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	ConstructVerifiedEvent(payload []byte, signature string) (*Event, error)
}
