package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/arnavchokshi/sway-api/database"
	"github.com/arnavchokshi/sway-api/models"
	"github.com/arnavchokshi/sway-api/utils"
)

func RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
		Password string `json:"password"`
		JoinCode string `json:"joinCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hashedPass, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Logger.Warn("Failed to hash password")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	newUser := models.User{
		ID:        primitive.NewObjectID(),
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  hashedPass,
		CreatedAt: time.Now(),
	}

	var team *models.Team
	if req.JoinCode != "" {
		team, err = teamStore.FindByJoinCode(ctx, req.JoinCode)
		if err != nil {
			utils.RespondWithError(w, http.StatusNotFound, "Join code not found")
			return
		}
		newUser.Team = &team.ID
		newUser.Role = "Member"
	}

	collection := database.DB.Collection("users")
	if _, err = collection.InsertOne(ctx, newUser); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "Email already registered")
			return
		}
		utils.Logger.Warn("Failed to register user")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error while registering new user")
		return
	}

	// a new registered member may push the team over the growth threshold
	if team != nil {
		if _, err := membership.EvaluateGrowth(ctx, team.ID.Hex()); err != nil {
			utils.Logger.Warn("Growth evaluation failed after registration")
		}
	}

	utils.RespondWithJSON(w, http.StatusCreated, "Registration successful", map[string]interface{}{
		"id": newUser.ID.Hex(),
	})
}

func LoginUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	collection := database.DB.Collection("users")

	var user models.User
	if err := collection.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user); err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.ComparePassword(req.Password, user.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to login")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID.Hex(),
			"email":    user.Email,
			"fullname": user.FullName,
			"role":     user.Role,
			"team":     user.Team,
		},
	})
}

func Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing User ID")
		return
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid User ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.DB.Collection("users").FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
		} else {
			utils.RespondWithError(w, http.StatusInternalServerError, "Error finding user")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "User fetched", map[string]interface{}{"user": user})
}
