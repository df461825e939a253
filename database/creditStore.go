package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arnavchokshi/sway-api/models"
)

// CreditStore implements services.CreditStore on the referral-credits
// collection.
type CreditStore struct {
	db *mongo.Database
}

func NewCreditStore(db *mongo.Database) *CreditStore {
	return &CreditStore{db: db}
}

func (s *CreditStore) credits() *mongo.Collection {
	return s.db.Collection("referral-credits")
}

func (s *CreditStore) InsertPending(ctx context.Context, credit models.ReferralCredit) error {
	_, err := s.credits().InsertOne(ctx, credit)
	if mongo.IsDuplicateKeyError(err) {
		// the credit for this code is already recorded; a retry after a
		// partial failure lands here
		return nil
	}
	return err
}

func (s *CreditStore) Claim(ctx context.Context, code string, at time.Time) (bool, error) {
	res, err := s.credits().UpdateOne(ctx,
		bson.M{"code": code, "settledAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"settledAt": at}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *CreditStore) ListStale(ctx context.Context, olderThan time.Time) ([]models.ReferralCredit, error) {
	cur, err := s.credits().Find(ctx, bson.M{
		"settledAt": bson.M{"$exists": false},
		"createdAt": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return nil, err
	}

	var out []models.ReferralCredit
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
