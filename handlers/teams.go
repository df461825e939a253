package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arnavchokshi/sway-api/database"
	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/services"
	"github.com/arnavchokshi/sway-api/utils"
)

func CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing User ID")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Team name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// The generator's pre-check narrows the race window; the unique index
	// on joinCode closes it. A duplicate insert just draws again.
	var team models.Team
	for {
		joinCode, err := services.GenerateJoinCode(ctx, teamStore, req.Name)
		if err != nil {
			utils.Logger.Warn("Failed to generate join code")
			utils.RespondWithError(w, http.StatusInternalServerError, "Error creating Team")
			return
		}

		team = models.Team{
			ID:             primitive.NewObjectID(),
			Name:           req.Name,
			JoinCode:       joinCode,
			MembershipType: models.MembershipFree,
			CreatedBy:      userID,
			CreatedAt:      time.Now(),
		}
		err = teamStore.InsertTeam(ctx, &team)
		if err == nil {
			break
		}
		if !mongo.IsDuplicateKeyError(err) {
			utils.Logger.Warn("Failed to create team")
			utils.RespondWithError(w, http.StatusInternalServerError, "Error creating Team")
			return
		}
	}

	userObjID, _ := primitive.ObjectIDFromHex(userID)
	_, err = database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userObjID},
		bson.M{"$set": bson.M{"team": team.ID, "role": "Admin"}})
	if err != nil {
		utils.Logger.Warn("Failed to attach creator to team")
	}

	// creation grant: three months of pro and a referral code up front
	referralCode, expiresAt, err := membership.CreationGrant(ctx, team.ID.Hex())
	if err != nil {
		utils.Logger.Warn("Creation grant failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error granting membership")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, "Team created Successfully", map[string]interface{}{
		"team_id":             team.ID.Hex(),
		"name":                team.Name,
		"joinCode":            team.JoinCode,
		"referralCode":        referralCode,
		"membershipExpiresAt": expiresAt,
	})
}

func JoinTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing User ID")
		return
	}

	var req struct {
		JoinCode string `json:"joinCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JoinCode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Join code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	team, err := teamStore.FindByJoinCode(ctx, req.JoinCode)
	if errors.Is(err, services.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Join code not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error finding team")
		return
	}

	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid User ID")
		return
	}

	// a user belongs to at most one team
	res, err := database.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userObjID, "team": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"team": team.ID, "role": "Member"}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error joining team")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusConflict, "User already belongs to a team")
		return
	}

	upgraded, err := membership.EvaluateGrowth(ctx, team.ID.Hex())
	if err != nil {
		utils.Logger.Warn("Growth evaluation failed after join")
	}

	utils.RespondWithJSON(w, http.StatusOK, "Joined team", map[string]interface{}{
		"team_id":  team.ID.Hex(),
		"name":     team.Name,
		"upgraded": upgraded,
	})
}
