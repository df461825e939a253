package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/utils"
)

// BillingReconciler turns signed provider events into tier transitions.
type BillingReconciler struct {
	provider   billing.Provider
	membership *Membership
}

func NewBillingReconciler(provider billing.Provider, membership *Membership) *BillingReconciler {
	return &BillingReconciler{provider: provider, membership: membership}
}

// Handle verifies the payload and applies the event. Verification failure
// rejects before any state change. Redelivered events write the same
// absolute state and converge; unknown types and deleted teams are accepted
// without effect so the provider does not keep retrying them.
func (r *BillingReconciler) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := r.provider.ConstructVerifiedEvent(payload, signature)
	if err != nil {
		return err
	}

	teamID := event.Metadata["teamId"]
	if teamID == "" {
		utils.Logger.Warn("billing event without teamId metadata",
			zap.String("type", event.Type),
			zap.String("subscription", event.SubscriptionID))
		return nil
	}

	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated, billing.EventInvoicePaid:
		err = r.membership.Activate(ctx, teamID, time.Unix(event.PeriodEnd, 0))
	case billing.EventSubscriptionDeleted, billing.EventInvoiceFailed:
		err = r.membership.Deactivate(ctx, teamID)
	default:
		utils.Logger.Info("ignoring unrecognized billing event", zap.String("type", event.Type))
		return nil
	}

	if errors.Is(err, ErrNotFound) {
		// the team may have been deleted after the event was queued
		utils.Logger.Info("billing event for missing team",
			zap.String("team", teamID), zap.String("type", event.Type))
		return nil
	}
	return err
}
