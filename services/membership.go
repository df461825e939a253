package services

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/utils"
)

const (
	// RegisteredMemberThreshold gates both the growth upgrade and referral
	// eligibility. A member is registered iff their email is set.
	RegisteredMemberThreshold = 10

	autoUpgradeMonths   = 2
	referralBonusMonths = 1
	creationGrantMonths = 3
)

// Membership owns every tier transition for a team. There is no terminal
// state; teams move between free and pro indefinitely.
type Membership struct {
	teams TeamStore
}

func NewMembership(teams TeamStore) *Membership {
	return &Membership{teams: teams}
}

// EvaluateGrowth fires the growth upgrade when a free team has crossed the
// registered-member threshold. The tier write is filtered on the team still
// being free, so concurrent evaluations grant at most once.
func (m *Membership) EvaluateGrowth(ctx context.Context, teamID string) (bool, error) {
	count, err := m.teams.CountRegisteredMembers(ctx, teamID)
	if err != nil {
		return false, err
	}
	if count < RegisteredMemberThreshold {
		return false, nil
	}

	upgraded, err := m.teams.UpgradeIfFree(ctx, teamID, time.Now().AddDate(0, autoUpgradeMonths, 0))
	if err != nil || !upgraded {
		return false, err
	}

	if _, err := m.EnsureReferralCode(ctx, teamID); err != nil {
		utils.Logger.Warn("growth upgrade granted but referral code issuance failed",
			zap.String("team", teamID), zap.Error(err))
	}
	return true, nil
}

// EnsureReferralCode returns the team's referral code, issuing one first if
// the team has none. Codes are assigned at most once and never reassigned.
func (m *Membership) EnsureReferralCode(ctx context.Context, teamID string) (string, error) {
	team, err := m.teams.GetTeam(ctx, teamID)
	if err != nil {
		return "", err
	}
	if team.ReferralCode != nil {
		return *team.ReferralCode, nil
	}

	for attempt := 0; attempt < referralMaxAttempts; attempt++ {
		code, err := GenerateReferralCode(ctx, m.teams)
		if err != nil {
			return "", err
		}
		err = m.teams.SetReferralCode(ctx, teamID, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, ErrCodeTaken) {
			// another writer persisted the same candidate between our
			// check and the write
			continue
		}
		if errors.Is(err, ErrNotFound) {
			// a concurrent issuance for this team won; use theirs
			team, err = m.teams.GetTeam(ctx, teamID)
			if err != nil {
				return "", err
			}
			if team.ReferralCode != nil {
				return *team.ReferralCode, nil
			}
			return "", ErrNotFound
		}
		return "", err
	}
	return "", ErrGenerationExhausted
}

// ReferralBonus grants the referring team one month of pro. A team already
// pro has its expiry extended by a month; otherwise the month starts now.
func (m *Membership) ReferralBonus(ctx context.Context, teamID string) (*time.Time, error) {
	team, err := m.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	base := time.Now()
	if team.MembershipType == models.MembershipPro && team.MembershipExpiresAt != nil {
		base = *team.MembershipExpiresAt
	}
	expires := base.AddDate(0, referralBonusMonths, 0)

	if err := m.teams.SetMembership(ctx, teamID, models.MembershipPro, &expires); err != nil {
		return nil, err
	}
	return &expires, nil
}

// CreationGrant applies the team-creation promotion: three months of pro
// with a referral code issued immediately.
func (m *Membership) CreationGrant(ctx context.Context, teamID string) (string, *time.Time, error) {
	expires := time.Now().AddDate(0, creationGrantMonths, 0)
	if err := m.teams.SetMembership(ctx, teamID, models.MembershipPro, &expires); err != nil {
		return "", nil, err
	}
	code, err := m.EnsureReferralCode(ctx, teamID)
	if err != nil {
		return "", nil, err
	}
	return code, &expires, nil
}

// Activate moves a team to pro until the billing period end, regardless of
// prior state. Redelivery of the same period end converges on the same
// document.
func (m *Membership) Activate(ctx context.Context, teamID string, periodEnd time.Time) error {
	return m.teams.SetMembership(ctx, teamID, models.MembershipPro, &periodEnd)
}

// Deactivate returns a team to the free tier and clears the expiry.
func (m *Membership) Deactivate(ctx context.Context, teamID string) error {
	return m.teams.SetMembership(ctx, teamID, models.MembershipFree, nil)
}

// IsActive reports whether the team's tier is in force. Free is the
// baseline and always active; pro is active only while the expiry is
// strictly in the future.
func IsActive(team *models.Team, now time.Time) bool {
	if team.MembershipType != models.MembershipPro {
		return true
	}
	return team.MembershipExpiresAt != nil && team.MembershipExpiresAt.After(now)
}

// DaysUntilExpiry rounds the remaining time up to whole days. Zero when
// there is no expiry or it has passed.
func DaysUntilExpiry(team *models.Team, now time.Time) int {
	if team.MembershipExpiresAt == nil {
		return 0
	}
	remaining := team.MembershipExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
