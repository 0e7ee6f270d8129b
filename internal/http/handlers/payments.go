package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"headshot-server/internal/middleware"
	"headshot-server/internal/payments"
)

// maxWebhookBody bounds how much of a webhook delivery is read.
const maxWebhookBody = 1 << 20

type checkoutRequest struct {
	PackageID string `json:"package_id"`
}

func (a *App) CheckoutCreate(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	country := middleware.CountryFromContext(r.Context())
	url, err := a.Payments.InitiateCheckout(r.Context(), accountID, req.PackageID, country)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"checkout_url": url})
}

// CheckoutWebhook settles completed checkout sessions. The signature is
// verified over the raw body before anything is parsed; a delivery that
// fails verification is rejected and never reaches the reconciler.
func (a *App) CheckoutWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}
	sigHeader := r.Header.Get("Webhook-Signature")
	if sigHeader == "" {
		sigHeader = r.Header.Get("Stripe-Signature")
	}
	err = payments.VerifySignature(payload, sigHeader, a.Config.WebhookSecret, payments.DefaultSignatureTolerance, time.Now())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("webhook signature rejected")
		a.error(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	event, err := payments.ParseEvent(payload)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "malformed event")
		return
	}
	if event.Type != payments.EventCheckoutCompleted {
		// Unknown event types are acknowledged so the sender stops retrying.
		a.json(w, http.StatusOK, map[string]any{"received": true})
		return
	}
	session, err := payments.CheckoutSessionFrom(event)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "malformed session")
		return
	}
	credits, err := strconv.ParseInt(session.Metadata["credits"], 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "missing credits metadata")
		return
	}
	applyErr := a.Payments.ApplyPayment(r.Context(), session.ID, session.Metadata["account_id"], credits)
	if applyErr != nil {
		a.domainError(w, r, applyErr)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"received": true})
}
