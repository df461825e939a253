package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/arnavchokshi/sway-api/services"
	"github.com/arnavchokshi/sway-api/utils"
)

func ApplyReferral(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]

	var req struct {
		ReferralCode string `json:"referralCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReferralCode == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Referral code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := ledger.ApplyCode(ctx, teamID, req.ReferralCode)
	if errors.Is(err, services.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		utils.Logger.Warn("Referral application failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error applying referral code")
		return
	}

	payload := map[string]interface{}{
		"applied": result.Applied,
		"message": result.Message,
	}
	if result.ExpiresAt != nil {
		payload["membershipExpiresAt"] = result.ExpiresAt
	}
	utils.RespondWithJSON(w, http.StatusOK, result.Message, payload)
}

func GetMembership(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := query.Status(ctx, teamID)
	if errors.Is(err, services.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Team not found")
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching membership")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "Membership fetched", status)
}
