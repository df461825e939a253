package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/services"
)

// TeamStore implements services.TeamStore on the teams collection. Every
// invariant-bearing write is a filtered UpdateOne backed by the unique
// indexes from ensureIndexes.
type TeamStore struct {
	db *mongo.Database
}

func NewTeamStore(db *mongo.Database) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) teams() *mongo.Collection {
	return s.db.Collection("teams")
}

func (s *TeamStore) InsertTeam(ctx context.Context, team *models.Team) error {
	_, err := s.teams().InsertOne(ctx, team)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, services.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": objID})
}

func (s *TeamStore) FindByReferralCode(ctx context.Context, code string) (*models.Team, error) {
	return s.findOne(ctx, bson.M{"referralCode": code})
}

func (s *TeamStore) FindByReferralCodeUsed(ctx context.Context, code string) (*models.Team, error) {
	return s.findOne(ctx, bson.M{"referralCodeUsed": code})
}

func (s *TeamStore) FindByJoinCode(ctx context.Context, code string) (*models.Team, error) {
	return s.findOne(ctx, bson.M{"joinCode": code})
}

func (s *TeamStore) findOne(ctx context.Context, filter bson.M) (*models.Team, error) {
	var team models.Team
	err := s.teams().FindOne(ctx, filter).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *TeamStore) IsReferralCodeTaken(ctx context.Context, code string) (bool, error) {
	n, err := s.teams().CountDocuments(ctx, bson.M{"referralCode": code})
	return n > 0, err
}

func (s *TeamStore) IsJoinCodeTaken(ctx context.Context, code string) (bool, error) {
	n, err := s.teams().CountDocuments(ctx, bson.M{"joinCode": code})
	return n > 0, err
}

func (s *TeamStore) SetReferralCode(ctx context.Context, teamID, code string) error {
	objID, err := primitive.ObjectIDFromHex(teamID)
	if err != nil {
		return services.ErrNotFound
	}

	res, err := s.teams().UpdateOne(ctx,
		bson.M{"_id": objID, "referralCode": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"referralCode": code}})
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrCodeTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// missing team, or a concurrent issuance already assigned one
		return services.ErrNotFound
	}
	return nil
}

func (s *TeamStore) MarkReferralCodeUsed(ctx context.Context, teamID, code string) error {
	objID, err := primitive.ObjectIDFromHex(teamID)
	if err != nil {
		return services.ErrNotFound
	}

	res, err := s.teams().UpdateOne(ctx,
		bson.M{"_id": objID, "referralCodeUsed": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"referralCodeUsed": code}})
	if mongo.IsDuplicateKeyError(err) {
		// the unique index across referralCodeUsed caught a concurrent
		// consumer of the same code
		return services.ErrReferralCodeConsumed
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrReferralAlreadyUsed
	}
	return nil
}

func (s *TeamStore) UpgradeIfFree(ctx context.Context, teamID string, expiresAt time.Time) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(teamID)
	if err != nil {
		return false, services.ErrNotFound
	}

	res, err := s.teams().UpdateOne(ctx,
		bson.M{"_id": objID, "membershipType": models.MembershipFree},
		bson.M{"$set": bson.M{
			"membershipType":      models.MembershipPro,
			"membershipExpiresAt": expiresAt,
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *TeamStore) SetMembership(ctx context.Context, teamID, membershipType string, expiresAt *time.Time) error {
	objID, err := primitive.ObjectIDFromHex(teamID)
	if err != nil {
		return services.ErrNotFound
	}

	set := bson.M{"membershipType": membershipType}
	update := bson.M{"$set": set}
	if expiresAt != nil {
		set["membershipExpiresAt"] = *expiresAt
	} else {
		update["$unset"] = bson.M{"membershipExpiresAt": ""}
	}

	res, err := s.teams().UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// CountRegisteredMembers counts the team's users holding an email address;
// only those count toward the growth threshold.
func (s *TeamStore) CountRegisteredMembers(ctx context.Context, teamID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(teamID)
	if err != nil {
		return 0, services.ErrNotFound
	}
	return s.db.Collection("users").CountDocuments(ctx, bson.M{
		"team":  objID,
		"email": bson.M{"$nin": bson.A{nil, ""}},
	})
}
