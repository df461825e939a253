package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralCredit records a consumed referral code while the bonus to the
// referring team is in flight. SettledAt is set by whichever writer wins
// the claim, so the bonus is applied at most once.
type ReferralCredit struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	ApplyingTeam  primitive.ObjectID `bson:"applyingTeam" json:"applyingTeam"`
	ReferringTeam primitive.ObjectID `bson:"referringTeam" json:"referringTeam"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	SettledAt     *time.Time         `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
}
