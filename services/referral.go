package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/utils"
)

// RejectReason identifies which validation check turned a referral
// application down.
type RejectReason string

const (
	RejectInvalidCode     RejectReason = "InvalidCode"
	RejectSelfReferral    RejectReason = "SelfReferral"
	RejectThresholdNotMet RejectReason = "ThresholdNotMet"
	RejectAlreadyUsed     RejectReason = "AlreadyUsed"
	RejectCodeConsumed    RejectReason = "CodeAlreadyConsumed"
)

// ApplyResult is the business outcome of a referral application.
// Rejections are expected user outcomes, not faults; ExpiresAt carries the
// referring team's new expiry when the bonus landed.
type ApplyResult struct {
	Applied   bool         `json:"applied"`
	Reason    RejectReason `json:"reason,omitempty"`
	Message   string       `json:"message"`
	ExpiresAt *time.Time   `json:"membershipExpiresAt,omitempty"`
}

// ReferralLedger enforces the one-code-per-team, no-self-referral,
// threshold-gated referral economy.
type ReferralLedger struct {
	teams      TeamStore
	credits    CreditStore
	membership *Membership
}

func NewReferralLedger(teams TeamStore, credits CreditStore, membership *Membership) *ReferralLedger {
	return &ReferralLedger{teams: teams, credits: credits, membership: membership}
}

func rejected(reason RejectReason, message string) ApplyResult {
	return ApplyResult{Reason: reason, Message: message}
}

// ApplyCode runs the validation ladder in order; each check short-circuits
// with its own user-facing reason, so the order is load-bearing.
func (l *ReferralLedger) ApplyCode(ctx context.Context, applyingTeamID, code string) (ApplyResult, error) {
	referrer, err := l.teams.FindByReferralCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return rejected(RejectInvalidCode, "Referral code not found"), nil
	}
	if err != nil {
		return ApplyResult{}, err
	}

	if referrer.ID.Hex() == applyingTeamID {
		return rejected(RejectSelfReferral, "A team cannot apply its own referral code"), nil
	}

	count, err := l.teams.CountRegisteredMembers(ctx, applyingTeamID)
	if err != nil {
		return ApplyResult{}, err
	}
	if count < RegisteredMemberThreshold {
		return rejected(RejectThresholdNotMet, "Team needs at least 10 registered members to apply a referral code"), nil
	}

	applying, err := l.teams.GetTeam(ctx, applyingTeamID)
	if err != nil {
		return ApplyResult{}, err
	}
	if applying.ReferralCodeUsed != nil {
		return rejected(RejectAlreadyUsed, "Team has already used a referral code"), nil
	}

	if _, err := l.teams.FindByReferralCodeUsed(ctx, code); err == nil {
		return rejected(RejectCodeConsumed, "Referral code has already been consumed"), nil
	} else if !errors.Is(err, ErrNotFound) {
		return ApplyResult{}, err
	}

	// The mark is a set-only-if-unset write backed by a unique constraint
	// across all teams, so of two concurrent applications exactly one
	// reaches the credit below; the loser surfaces the mapped rejection.
	err = l.teams.MarkReferralCodeUsed(ctx, applyingTeamID, code)
	switch {
	case errors.Is(err, ErrReferralAlreadyUsed):
		return rejected(RejectAlreadyUsed, "Team has already used a referral code"), nil
	case errors.Is(err, ErrReferralCodeConsumed):
		return rejected(RejectCodeConsumed, "Referral code has already been consumed"), nil
	case err != nil:
		return ApplyResult{}, err
	}

	credit := models.ReferralCredit{
		Code:          code,
		ApplyingTeam:  applying.ID,
		ReferringTeam: referrer.ID,
		CreatedAt:     time.Now(),
	}
	if err := l.credits.InsertPending(ctx, credit); err != nil {
		return ApplyResult{}, err
	}

	claimed, err := l.credits.Claim(ctx, code, time.Now())
	if err != nil {
		return ApplyResult{}, err
	}
	if !claimed {
		// the sweep claimed it first; the bonus is already in flight
		return ApplyResult{Applied: true, Message: "Referral applied"}, nil
	}

	expires, err := l.membership.ReferralBonus(ctx, referrer.ID.Hex())
	if err != nil {
		utils.Logger.Warn("referral bonus write failed after claim",
			zap.String("code", code),
			zap.String("referringTeam", referrer.ID.Hex()),
			zap.Error(err))
		return ApplyResult{Applied: true, Message: "Referral applied"}, nil
	}
	return ApplyResult{Applied: true, Message: "Referral applied", ExpiresAt: expires}, nil
}
