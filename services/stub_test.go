package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/models"
)

// fakeTeamStore mirrors the conditional-write semantics of the Mongo store:
// unique codes, set-only-if-unset marks, tier writes filtered on current
// state.
type fakeTeamStore struct {
	mu      sync.Mutex
	teams   map[string]*models.Team
	members map[string]int64

	failSetMembership int
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{
		teams:   map[string]*models.Team{},
		members: map[string]int64{},
	}
}

func (s *fakeTeamStore) addTeam(team *models.Team) *models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team.ID.IsZero() {
		team.ID = primitive.NewObjectID()
	}
	if team.MembershipType == "" {
		team.MembershipType = models.MembershipFree
	}
	s.teams[team.ID.Hex()] = team
	return team
}

func (s *fakeTeamStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *team
	return &clone, nil
}

func (s *fakeTeamStore) FindByReferralCode(ctx context.Context, code string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, team := range s.teams {
		if team.ReferralCode != nil && *team.ReferralCode == code {
			clone := *team
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeTeamStore) FindByReferralCodeUsed(ctx context.Context, code string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, team := range s.teams {
		if team.ReferralCodeUsed != nil && *team.ReferralCodeUsed == code {
			clone := *team
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeTeamStore) IsReferralCodeTaken(ctx context.Context, code string) (bool, error) {
	_, err := s.FindByReferralCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *fakeTeamStore) IsJoinCodeTaken(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, team := range s.teams {
		if team.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeTeamStore) SetReferralCode(ctx context.Context, teamID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, team := range s.teams {
		if team.ReferralCode != nil && *team.ReferralCode == code {
			return ErrCodeTaken
		}
	}
	team, ok := s.teams[teamID]
	if !ok || team.ReferralCode != nil {
		return ErrNotFound
	}
	team.ReferralCode = &code
	return nil
}

func (s *fakeTeamStore) MarkReferralCodeUsed(ctx context.Context, teamID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, team := range s.teams {
		if id != teamID && team.ReferralCodeUsed != nil && *team.ReferralCodeUsed == code {
			return ErrReferralCodeConsumed
		}
	}
	team, ok := s.teams[teamID]
	if !ok {
		return ErrNotFound
	}
	if team.ReferralCodeUsed != nil {
		return ErrReferralAlreadyUsed
	}
	team.ReferralCodeUsed = &code
	return nil
}

func (s *fakeTeamStore) UpgradeIfFree(ctx context.Context, teamID string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok || team.MembershipType != models.MembershipFree {
		return false, nil
	}
	team.MembershipType = models.MembershipPro
	team.MembershipExpiresAt = &expiresAt
	return true, nil
}

func (s *fakeTeamStore) SetMembership(ctx context.Context, teamID, membershipType string, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSetMembership > 0 {
		s.failSetMembership--
		return errors.New("store write failed")
	}
	team, ok := s.teams[teamID]
	if !ok {
		return ErrNotFound
	}
	team.MembershipType = membershipType
	team.MembershipExpiresAt = expiresAt
	return nil
}

func (s *fakeTeamStore) CountRegisteredMembers(ctx context.Context, teamID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[teamID], nil
}

type fakeCreditStore struct {
	mu      sync.Mutex
	credits map[string]*models.ReferralCredit
}

func newFakeCreditStore() *fakeCreditStore {
	return &fakeCreditStore{credits: map[string]*models.ReferralCredit{}}
}

func (s *fakeCreditStore) InsertPending(ctx context.Context, credit models.ReferralCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[credit.Code]; ok {
		return nil
	}
	clone := credit
	s.credits[credit.Code] = &clone
	return nil
}

func (s *fakeCreditStore) Claim(ctx context.Context, code string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credit, ok := s.credits[code]
	if !ok || credit.SettledAt != nil {
		return false, nil
	}
	credit.SettledAt = &at
	return true, nil
}

func (s *fakeCreditStore) ListStale(ctx context.Context, olderThan time.Time) ([]models.ReferralCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReferralCredit
	for _, credit := range s.credits {
		if credit.SettledAt == nil && credit.CreatedAt.Before(olderThan) {
			out = append(out, *credit)
		}
	}
	return out, nil
}

type stubProvider struct {
	event     *billing.Event
	eventErr  error
	subs      []billing.Subscription
	subsErr   error
	listCalls int
}

func (p *stubProvider) ListActiveSubscriptions(ctx context.Context, teamID string) ([]billing.Subscription, error) {
	p.listCalls++
	return p.subs, p.subsErr
}

func (p *stubProvider) CreateCustomer(ctx context.Context, teamID, email string) (string, error) {
	return "cus_stub", nil
}

func (p *stubProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (*billing.Subscription, error) {
	return &billing.Subscription{ID: "sub_stub", CustomerID: customerID}, nil
}

func (p *stubProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

func (p *stubProvider) ConstructVerifiedEvent(payload []byte, signature string) (*billing.Event, error) {
	return p.event, p.eventErr
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
