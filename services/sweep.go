package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/arnavchokshi/sway-api/utils"
)

const (
	sweepInterval = 5 * time.Minute

	// creditStaleAfter leaves the request that wrote a credit time to
	// finish before the sweep competes for the claim.
	creditStaleAfter = time.Minute
)

// CreditSweep re-applies referral bonuses whose second write was lost
// between marking the applying team and crediting the referrer.
type CreditSweep struct {
	scheduler  gocron.Scheduler
	credits    CreditStore
	membership *Membership
}

func NewCreditSweep(credits CreditStore, membership *Membership) (*CreditSweep, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &CreditSweep{scheduler: s, credits: credits, membership: membership}, nil
}

func (cs *CreditSweep) Start() error {
	_, err := cs.scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(cs.Run),
	)
	if err != nil {
		return err
	}
	cs.scheduler.Start()
	return nil
}

func (cs *CreditSweep) Stop() error {
	return cs.scheduler.Shutdown()
}

// Run claims every stale unsettled credit and applies its bonus. The claim
// is a compare-and-set, so a credit produces at most one bonus even when a
// sweep overlaps the original request.
func (cs *CreditSweep) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stale, err := cs.credits.ListStale(ctx, time.Now().Add(-creditStaleAfter))
	if err != nil {
		utils.Logger.Warn("credit sweep listing failed", zap.Error(err))
		return
	}

	for _, credit := range stale {
		claimed, err := cs.credits.Claim(ctx, credit.Code, time.Now())
		if err != nil {
			utils.Logger.Warn("credit sweep claim failed",
				zap.String("code", credit.Code), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}
		if _, err := cs.membership.ReferralBonus(ctx, credit.ReferringTeam.Hex()); err != nil {
			utils.Logger.Warn("credit sweep bonus failed",
				zap.String("code", credit.Code),
				zap.String("referringTeam", credit.ReferringTeam.Hex()),
				zap.Error(err))
		}
	}
}
