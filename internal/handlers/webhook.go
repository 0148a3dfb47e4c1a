package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/service/deposit"
	"github.com/nkurilenko/walletd/internal/service/paystack"
)

// signatureHeader carries the HMAC-SHA512 hex digest of the raw body
const signatureHeader = "X-Paystack-Signature"

// maxEventAge is how old an event may claim to be before it is dropped
const maxEventAge = 5 * time.Minute

const maxWebhookBody = 1 << 20 // 1 MiB

func handleGatewayWebhook(depositService depositService, verifier webhookVerifier, l logger.Logger) http.Handler {
	type eventData struct {
		Reference      string `json:"reference"`
		CreatedAt      string `json:"created_at"`
		CreatedAtCamel string `json:"createdAt"`
	}

	type event struct {
		Event string    `json:"event"`
		Data  eventData `json:"data"`
	}

	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			render.ServiceError(w, "Failed to read body", http.StatusBadRequest)
			return
		}

		// Verification runs over the raw bytes, before any parsing. The
		// rejection carries no detail: the caller is not a trusted party yet.
		if !verifier.VerifySignature(body, r.Header.Get(signatureHeader)) {
			l.Warn("Webhook signature mismatch", "remote_addr", r.RemoteAddr)
			render.ServiceError(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		var ev event
		if err := json.Unmarshal(body, &ev); err != nil {
			render.ServiceError(w, "Malformed event payload", http.StatusBadRequest)
			return
		}

		createdAt := ev.Data.CreatedAt
		if createdAt == "" {
			createdAt = ev.Data.CreatedAtCamel
		}

		fresh, parsed := paystack.IsFresh(createdAt, time.Now(), maxEventAge)
		if !fresh {
			l.Warn("Stale webhook event dropped", "event", ev.Event, "reference", ev.Data.Reference, "created_at", createdAt)
			render.ServiceError(w, "Event is too old", http.StatusBadRequest)
			return
		}
		if !parsed && createdAt != "" {
			l.Warn("Webhook event timestamp unparsable, accepting", "event", ev.Event, "created_at", createdAt)
		}

		var outcome string
		switch ev.Event {
		case "charge.success":
			outcome = deposit.OutcomeSuccess
		case "charge.failed":
			outcome = deposit.OutcomeFailed
		default:
			// Unrecognized event types are acked so the gateway stops retrying
			l.Info("Ignoring webhook event", "event", ev.Event)
			render.JSON(w, response{Message: "Event ignored"})
			return
		}

		if ev.Data.Reference == "" {
			render.ServiceError(w, "Missing reference", http.StatusBadRequest)
			return
		}

		result, err := depositService.Finalize(r.Context(), ev.Data.Reference, outcome)

		switch {
		case err == nil && !result.Found:
			l.Info("Webhook for unknown reference acked", "reference", ev.Data.Reference)
			render.JSON(w, response{Message: "Event acknowledged"})
		case err == nil && !result.Applied:
			render.JSON(w, response{Message: "Event already processed"})
		case err == nil:
			l.Info("Deposit finalized", "reference", result.Reference, "status", result.Status)
			render.JSON(w, response{Message: "Event processed"})
		case errors.Is(err, apperrors.ErrDepositConflict):
			l.Error("Webhook contradicts settled deposit", "reference", ev.Data.Reference, "outcome", outcome)
			render.ServiceError(w, "Conflicting event for settled transaction", http.StatusConflict)
		case errors.Is(err, apperrors.ErrTransactionSettled):
			render.ServiceError(w, "Conflicting event for settled transaction", http.StatusConflict)
		default:
			l.Error("Failed to finalize deposit", "reference", ev.Data.Reference, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
