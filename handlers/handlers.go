package handlers

import (
	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/database"
	"github.com/arnavchokshi/sway-api/services"
)

var (
	teamStore   *database.TeamStore
	creditStore *database.CreditStore
	provider    billing.Provider
	membership  *services.Membership
	ledger      *services.ReferralLedger
	reconciler  *services.BillingReconciler
	query       *services.MembershipQuery
)

// Init wires the handler set to its stores and services. Called once from
// main after the database connection is up.
func Init(ts *database.TeamStore, cs *database.CreditStore, p billing.Provider) {
	teamStore = ts
	creditStore = cs
	provider = p
	membership = services.NewMembership(ts)
	ledger = services.NewReferralLedger(ts, cs, membership)
	reconciler = services.NewBillingReconciler(p, membership)
	query = services.NewMembershipQuery(ts, p)
}
