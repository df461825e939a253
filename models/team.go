package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MembershipFree = "free"
	MembershipPro  = "pro"
)

type Team struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                string             `bson:"name" json:"name"`
	JoinCode            string             `bson:"joinCode" json:"joinCode"`
	MembershipType      string             `bson:"membershipType" json:"membershipType"`
	MembershipExpiresAt *time.Time         `bson:"membershipExpiresAt,omitempty" json:"membershipExpiresAt,omitempty"`
	ReferralCode        *string            `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	ReferralCodeUsed    *string            `bson:"referralCodeUsed,omitempty" json:"referralCodeUsed,omitempty"`
	CreatedBy           string             `bson:"createdBy" json:"createdBy"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
}
