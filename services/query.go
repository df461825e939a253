package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/utils"
)

// MembershipStatus is the read-side composition for a team's tier.
// PaidSubscription distinguishes a provider-backed subscription from a
// promotional or referral-granted pro period.
type MembershipStatus struct {
	TeamID            string     `json:"teamId"`
	MembershipType    string     `json:"membershipType"`
	Active            bool       `json:"active"`
	RegisteredMembers int64      `json:"registeredMembers"`
	DaysUntilExpiry   int        `json:"daysUntilExpiry"`
	ExpiresAt         *time.Time `json:"membershipExpiresAt,omitempty"`
	PaidSubscription  bool       `json:"paidSubscription"`
}

type MembershipQuery struct {
	teams    TeamStore
	provider billing.Provider
}

func NewMembershipQuery(teams TeamStore, provider billing.Provider) *MembershipQuery {
	return &MembershipQuery{teams: teams, provider: provider}
}

func (q *MembershipQuery) Status(ctx context.Context, teamID string) (*MembershipStatus, error) {
	team, err := q.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	count, err := q.teams.CountRegisteredMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := &MembershipStatus{
		TeamID:            teamID,
		MembershipType:    team.MembershipType,
		Active:            IsActive(team, now),
		RegisteredMembers: count,
		DaysUntilExpiry:   DaysUntilExpiry(team, now),
		ExpiresAt:         team.MembershipExpiresAt,
	}
	if team.MembershipType == models.MembershipPro {
		status.PaidSubscription = q.hasPaidSubscription(ctx, teamID)
	}
	return status, nil
}

// hasPaidSubscription is best-effort: a provider fault reads as "not paid"
// rather than failing the whole status call.
func (q *MembershipQuery) hasPaidSubscription(ctx context.Context, teamID string) bool {
	subs, err := q.provider.ListActiveSubscriptions(ctx, teamID)
	if err != nil {
		utils.Logger.Warn("paid subscription lookup failed",
			zap.String("team", teamID), zap.Error(err))
		return false
	}
	return len(subs) > 0
}
