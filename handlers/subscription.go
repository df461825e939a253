package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/arnavchokshi/sway-api/utils"
)

// CreateSubscription sets up a paying subscription with the billing
// provider. The tier change itself arrives later through the webhook; a
// provider fault here means no state changed anywhere.
func CreateSubscription(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]

	var req struct {
		Email   string `json:"email"`
		PriceID string `json:"priceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.PriceID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and priceId are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	customerID, err := provider.CreateCustomer(ctx, teamID, req.Email)
	if err != nil {
		utils.Logger.Warn("Provider customer creation failed")
		utils.RespondWithError(w, http.StatusBadGateway, "Billing provider unavailable")
		return
	}

	sub, err := provider.CreateSubscription(ctx, customerID, req.PriceID)
	if err != nil {
		utils.Logger.Warn("Provider subscription creation failed")
		utils.RespondWithError(w, http.StatusBadGateway, "Billing provider unavailable")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, "Subscription created", map[string]interface{}{
		"subscriptionId": sub.ID,
		"status":         sub.Status,
	})
}

func CancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SubscriptionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "subscriptionId is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := provider.CancelSubscription(ctx, req.SubscriptionID); err != nil {
		utils.Logger.Warn("Provider subscription cancel failed")
		utils.RespondWithError(w, http.StatusBadGateway, "Billing provider unavailable")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "Subscription canceled", nil)
}
