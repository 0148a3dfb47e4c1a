package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/logger"
)

func handleInitiateDeposit(depositService depositService, l logger.Logger) http.Handler {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
	}

	type response struct {
		Reference  string `json:"reference"`
		PaymentURL string `json:"payment_url"`
		Status     string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		initiation, err := depositService.Initiate(r.Context(), user.ID, req.Amount)

		switch {
		case err == nil:
			render.JSON(w, response{
				Reference:  initiation.Reference,
				PaymentURL: initiation.PaymentURL,
				Status:     "pending",
			})
		case errors.Is(err, apperrors.ErrAmountNotPositive),
			errors.Is(err, apperrors.ErrAmountPrecision):
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to initiate deposit", "error", err)
			render.ServiceError(w, "Payment gateway unavailable", http.StatusBadGateway)
		}
	})
}

func handleDepositStatus(depositService depositService, l logger.Logger) http.Handler {
	type response struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		Amount    string     `json:"amount"`
		SettledAt *time.Time `json:"settled_at,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		txn, err := depositService.Status(r.Context(), user.ID, r.PathValue("reference"))

		switch {
		case err == nil:
			render.JSON(w, response{
				Reference: txn.Reference,
				Status:    txn.Status,
				Amount:    txn.Amount.StringFixed(2),
				SettledAt: txn.SettledAt,
			})
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.ServiceError(w, "Transaction not found", http.StatusNotFound)
		default:
			l.Error("Failed to get deposit status", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handlePaymentCallback is the browser redirect target after checkout. The
// ledger is updated by the gateway webhook only, so this simply acknowledges
// the visit and echoes the reference for the frontend to poll on.
func handlePaymentCallback() http.Handler {
	type response struct {
		Message   string `json:"message"`
		Reference string `json:"reference,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reference := r.URL.Query().Get("reference")
		if reference == "" {
			reference = r.URL.Query().Get("trxref")
		}

		render.JSON(w, response{
			Message:   "Payment received, confirmation is in progress",
			Reference: reference,
		})
	})
}
