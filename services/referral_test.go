package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arnavchokshi/sway-api/models"
)

func newLedgerFixture() (*fakeTeamStore, *fakeCreditStore, *ReferralLedger) {
	store := newFakeTeamStore()
	credits := newFakeCreditStore()
	return store, credits, NewReferralLedger(store, credits, NewMembership(store))
}

func TestApplyCodeInvalidCode(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	team := store.addTeam(&models.Team{Name: "crew"})

	result, err := ledger.ApplyCode(context.Background(), team.ID.Hex(), "NOPE42")
	if err != nil {
		t.Fatalf("ApplyCode returned error: %v", err)
	}
	if result.Applied || result.Reason != RejectInvalidCode {
		t.Fatalf("expected InvalidCode rejection, got %+v", result)
	}
}

func TestApplyCodeSelfReferral(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	team := store.addTeam(&models.Team{Name: "crew", ReferralCode: strPtr("ABC123")})
	store.members[team.ID.Hex()] = 12

	result, err := ledger.ApplyCode(context.Background(), team.ID.Hex(), "ABC123")
	if err != nil {
		t.Fatalf("ApplyCode returned error: %v", err)
	}
	if result.Applied || result.Reason != RejectSelfReferral {
		t.Fatalf("expected SelfReferral rejection, got %+v", result)
	}
}

func TestApplyCodeThresholdNotMet(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	store.addTeam(&models.Team{Name: "issuer", ReferralCode: strPtr("ABC123")})
	applying := store.addTeam(&models.Team{Name: "crew"})
	store.members[applying.ID.Hex()] = 5

	result, err := ledger.ApplyCode(context.Background(), applying.ID.Hex(), "ABC123")
	if err != nil {
		t.Fatalf("ApplyCode returned error: %v", err)
	}
	if result.Applied || result.Reason != RejectThresholdNotMet {
		t.Fatalf("expected ThresholdNotMet rejection, got %+v", result)
	}
}

func TestApplyCodeSuccessCreditsReferrer(t *testing.T) {
	store, credits, ledger := newLedgerFixture()
	referrer := store.addTeam(&models.Team{Name: "issuer", ReferralCode: strPtr("ABC123")})
	applying := store.addTeam(&models.Team{Name: "crew"})
	store.members[applying.ID.Hex()] = 12

	result, err := ledger.ApplyCode(context.Background(), applying.ID.Hex(), "ABC123")
	if err != nil {
		t.Fatalf("ApplyCode returned error: %v", err)
	}
	if !result.Applied {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ExpiresAt == nil {
		t.Fatal("expected the referring team's new expiry in the result")
	}
	expectClose(t, *result.ExpiresAt, time.Now().AddDate(0, 1, 0))

	gotApplying, _ := store.GetTeam(context.Background(), applying.ID.Hex())
	if gotApplying.ReferralCodeUsed == nil || *gotApplying.ReferralCodeUsed != "ABC123" {
		t.Fatalf("expected referralCodeUsed ABC123, got %v", gotApplying.ReferralCodeUsed)
	}

	gotReferrer, _ := store.GetTeam(context.Background(), referrer.ID.Hex())
	if gotReferrer.MembershipType != models.MembershipPro {
		t.Fatalf("expected referrer pro, got %s", gotReferrer.MembershipType)
	}

	credit := credits.credits["ABC123"]
	if credit == nil || credit.SettledAt == nil {
		t.Fatalf("expected a settled credit, got %+v", credit)
	}
}

func TestApplyCodeSecondAttemptRejectedAlreadyUsed(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	store.addTeam(&models.Team{Name: "issuer", ReferralCode: strPtr("ABC123")})
	store.addTeam(&models.Team{Name: "other", ReferralCode: strPtr("XYZ789")})
	applying := store.addTeam(&models.Team{Name: "crew"})
	store.members[applying.ID.Hex()] = 12

	if result, _ := ledger.ApplyCode(context.Background(), applying.ID.Hex(), "ABC123"); !result.Applied {
		t.Fatalf("setup apply failed: %+v", result)
	}

	// same code again, and a different code: one referral per team ever
	for _, code := range []string{"ABC123", "XYZ789"} {
		result, err := ledger.ApplyCode(context.Background(), applying.ID.Hex(), code)
		if err != nil {
			t.Fatalf("ApplyCode(%s) returned error: %v", code, err)
		}
		if result.Applied || result.Reason != RejectAlreadyUsed {
			t.Fatalf("expected AlreadyUsed for %s, got %+v", code, result)
		}
	}
}

func TestApplyCodeConsumedByAnotherTeam(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	store.addTeam(&models.Team{Name: "issuer", ReferralCode: strPtr("ABC123")})
	first := store.addTeam(&models.Team{Name: "crew-b"})
	second := store.addTeam(&models.Team{Name: "crew-c"})
	store.members[first.ID.Hex()] = 12
	store.members[second.ID.Hex()] = 11

	if result, _ := ledger.ApplyCode(context.Background(), first.ID.Hex(), "ABC123"); !result.Applied {
		t.Fatalf("setup apply failed: %+v", result)
	}

	result, err := ledger.ApplyCode(context.Background(), second.ID.Hex(), "ABC123")
	if err != nil {
		t.Fatalf("ApplyCode returned error: %v", err)
	}
	if result.Applied || result.Reason != RejectCodeConsumed {
		t.Fatalf("expected CodeAlreadyConsumed, got %+v", result)
	}
}

func TestApplyCodeConcurrentApplicationsCreditOnce(t *testing.T) {
	store, _, ledger := newLedgerFixture()
	referrer := store.addTeam(&models.Team{Name: "issuer", ReferralCode: strPtr("ABC123")})
	teamB := store.addTeam(&models.Team{Name: "crew-b"})
	teamC := store.addTeam(&models.Team{Name: "crew-c"})
	store.members[teamB.ID.Hex()] = 12
	store.members[teamC.ID.Hex()] = 12

	var wg sync.WaitGroup
	results := make([]ApplyResult, 2)
	for i, id := range []string{teamB.ID.Hex(), teamC.ID.Hex()} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			result, err := ledger.ApplyCode(context.Background(), id, "ABC123")
			if err != nil {
				t.Errorf("ApplyCode returned error: %v", err)
				return
			}
			results[i] = result
		}(i, id)
	}
	wg.Wait()

	applied := 0
	for _, result := range results {
		if result.Applied {
			applied++
		} else if result.Reason != RejectCodeConsumed {
			t.Fatalf("loser should see CodeAlreadyConsumed, got %+v", result)
		}
	}
	if applied != 1 {
		t.Fatalf("expected exactly one successful application, got %d", applied)
	}

	// a single month, not two
	gotReferrer, _ := store.GetTeam(context.Background(), referrer.ID.Hex())
	expectClose(t, *gotReferrer.MembershipExpiresAt, time.Now().AddDate(0, 1, 0))
}
