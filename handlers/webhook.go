package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/utils"
)

const maxWebhookBody = 1 << 16

// BillingWebhook receives signed provider events. A non-2xx response makes
// the provider redeliver, so transient faults return 500 and only signature
// failures reject outright.
func BillingWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unreadable payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err = reconciler.Handle(ctx, payload, r.Header.Get("Webhook-Signature"))
	if errors.Is(err, billing.ErrSignatureInvalid) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid signature")
		return
	}
	if err != nil {
		utils.Logger.Warn("Billing event handling failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Error handling event")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, "Received", nil)
}
