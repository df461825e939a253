package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arnavchokshi/sway-api/database"
	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/utils"
)

func CreateSegment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing User ID")
		return
	}

	teamID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	var segment models.Segment
	if err := json.NewDecoder(r.Body).Decode(&segment); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid Json")
		return
	}

	segment.ID = primitive.NewObjectID()
	segment.TeamID = teamID
	segment.CreatedBy = userID
	segment.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := database.DB.Collection("segments").InsertOne(ctx, segment); err != nil {
		utils.Logger.Warn("Failed to add segment")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error adding segment")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, "Segment added", map[string]string{"id": segment.ID.Hex()})
}

func GetSegments(w http.ResponseWriter, r *http.Request) {
	teamID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cur, err := database.DB.Collection("segments").Find(ctx, bson.M{"teamId": teamID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching segments")
		return
	}

	segments := []models.Segment{}
	if err := cur.All(ctx, &segments); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error decoding segments")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "Segments fetched", map[string]interface{}{"segments": segments})
}
