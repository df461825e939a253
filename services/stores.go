package services

import (
	"context"
	"errors"
	"time"

	"github.com/arnavchokshi/sway-api/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrGenerationExhausted = errors.New("code generation attempts exhausted")

	// ErrCodeTaken is returned when a persisted code write loses to a
	// concurrent writer holding the same candidate.
	ErrCodeTaken = errors.New("code already taken")

	ErrReferralAlreadyUsed  = errors.New("team already used a referral code")
	ErrReferralCodeConsumed = errors.New("referral code already consumed by another team")
)

// TeamStore is the persistence surface of the membership engine. The
// generator's pre-checks are optimizations only: implementations must back
// every code write with a uniqueness constraint and every tier write with a
// current-state filter, so concurrent writers observe failures instead of
// clobbering each other.
type TeamStore interface {
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Team, error)
	FindByReferralCodeUsed(ctx context.Context, code string) (*models.Team, error)
	IsReferralCodeTaken(ctx context.Context, code string) (bool, error)
	IsJoinCodeTaken(ctx context.Context, code string) (bool, error)

	// SetReferralCode assigns a referral code to a team that has none.
	// ErrCodeTaken when another team holds the code; ErrNotFound when the
	// team is missing or already has one.
	SetReferralCode(ctx context.Context, teamID, code string) error

	// MarkReferralCodeUsed sets referralCodeUsed only if currently unset.
	// ErrReferralAlreadyUsed when this team already consumed a code;
	// ErrReferralCodeConsumed when another team already consumed this code.
	MarkReferralCodeUsed(ctx context.Context, teamID, code string) error

	// UpgradeIfFree flips a free team to pro with the given expiry and
	// reports whether the write happened.
	UpgradeIfFree(ctx context.Context, teamID string, expiresAt time.Time) (bool, error)

	// SetMembership writes the tier unconditionally; a nil expiry clears
	// the stored expiry.
	SetMembership(ctx context.Context, teamID, membershipType string, expiresAt *time.Time) error

	CountRegisteredMembers(ctx context.Context, teamID string) (int64, error)
}

// CreditStore tracks referral credits between the two writes of a referral
// application.
type CreditStore interface {
	InsertPending(ctx context.Context, credit models.ReferralCredit) error

	// Claim settles the credit for code iff it is unsettled, reporting
	// whether this caller won.
	Claim(ctx context.Context, code string, at time.Time) (bool, error)

	ListStale(ctx context.Context, olderThan time.Time) ([]models.ReferralCredit, error)
}
