package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/models"
)

func TestHandleRejectsInvalidSignature(t *testing.T) {
	store := newFakeTeamStore()
	team := store.addTeam(&models.Team{Name: "crew"})
	provider := &stubProvider{eventErr: billing.ErrSignatureInvalid}

	r := NewBillingReconciler(provider, NewMembership(store))
	err := r.Handle(context.Background(), []byte("{}"), "t=0,v1=bad")
	if !errors.Is(err, billing.ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	got, _ := store.GetTeam(context.Background(), team.ID.Hex())
	if got.MembershipType != models.MembershipFree {
		t.Fatal("rejected event must not change state")
	}
}

func TestHandleActivatesOnSubscriptionCreated(t *testing.T) {
	store := newFakeTeamStore()
	team := store.addTeam(&models.Team{Name: "crew"})
	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	provider := &stubProvider{event: &billing.Event{
		Type:           billing.EventSubscriptionCreated,
		SubscriptionID: "sub_1",
		PeriodEnd:      periodEnd,
		Metadata:       map[string]string{"teamId": team.ID.Hex()},
	}}

	r := NewBillingReconciler(provider, NewMembership(store))
	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := store.GetTeam(context.Background(), team.ID.Hex())
	if got.MembershipType != models.MembershipPro {
		t.Fatalf("expected pro, got %s", got.MembershipType)
	}
	if !got.MembershipExpiresAt.Equal(time.Unix(periodEnd, 0)) {
		t.Fatalf("expected expiry %v, got %v", time.Unix(periodEnd, 0), got.MembershipExpiresAt)
	}
}

func TestHandleDeletionClearsExpiryRegardlessOfRemainingTime(t *testing.T) {
	store := newFakeTeamStore()
	team := store.addTeam(&models.Team{
		Name:                "crew",
		MembershipType:      models.MembershipPro,
		MembershipExpiresAt: timePtr(time.Now().AddDate(0, 0, 20)),
	})
	provider := &stubProvider{event: &billing.Event{
		Type:     billing.EventSubscriptionDeleted,
		Metadata: map[string]string{"teamId": team.ID.Hex()},
	}}

	r := NewBillingReconciler(provider, NewMembership(store))
	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	got, _ := store.GetTeam(context.Background(), team.ID.Hex())
	if got.MembershipType != models.MembershipFree {
		t.Fatalf("expected free, got %s", got.MembershipType)
	}
	if got.MembershipExpiresAt != nil {
		t.Fatalf("expected cleared expiry, got %v", got.MembershipExpiresAt)
	}
}

func TestHandleRedeliveryIsIdempotent(t *testing.T) {
	store := newFakeTeamStore()
	team := store.addTeam(&models.Team{Name: "crew"})
	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	provider := &stubProvider{event: &billing.Event{
		Type:           billing.EventInvoicePaid,
		SubscriptionID: "sub_1",
		PeriodEnd:      periodEnd,
		Metadata:       map[string]string{"teamId": team.ID.Hex()},
	}}

	r := NewBillingReconciler(provider, NewMembership(store))
	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("first delivery returned error: %v", err)
	}
	first, _ := store.GetTeam(context.Background(), team.ID.Hex())

	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("second delivery returned error: %v", err)
	}
	second, _ := store.GetTeam(context.Background(), team.ID.Hex())

	if second.MembershipType != first.MembershipType ||
		!second.MembershipExpiresAt.Equal(*first.MembershipExpiresAt) {
		t.Fatalf("redelivery changed state: %+v then %+v", first, second)
	}
}

func TestHandleIgnoresUnknownEventTypes(t *testing.T) {
	store := newFakeTeamStore()
	team := store.addTeam(&models.Team{Name: "crew"})
	provider := &stubProvider{event: &billing.Event{
		Type:     "customer.updated",
		Metadata: map[string]string{"teamId": team.ID.Hex()},
	}}

	r := NewBillingReconciler(provider, NewMembership(store))
	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("unknown event type should be accepted, got %v", err)
	}

	got, _ := store.GetTeam(context.Background(), team.ID.Hex())
	if got.MembershipType != models.MembershipFree {
		t.Fatal("unknown event must not change state")
	}
}

func TestHandleMissingTeamIsNoop(t *testing.T) {
	store := newFakeTeamStore()
	provider := &stubProvider{event: &billing.Event{
		Type:      billing.EventSubscriptionCreated,
		PeriodEnd: time.Now().Unix(),
		Metadata:  map[string]string{"teamId": primitive.NewObjectID().Hex()},
	}}

	r := NewBillingReconciler(provider, NewMembership(store))
	if err := r.Handle(context.Background(), []byte("{}"), "sig"); err != nil {
		t.Fatalf("event for a deleted team should be accepted, got %v", err)
	}
}
