package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/logger"
)

func handleWalletBalance(walletService walletService, l logger.Logger) http.Handler {
	type response struct {
		WalletNumber string `json:"wallet_number"`
		Balance      string `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		wallet, err := walletService.GetWallet(r.Context(), user.ID)

		switch {
		case err == nil:
			render.JSON(w, response{
				WalletNumber: wallet.WalletNumber,
				Balance:      wallet.Balance.StringFixed(2),
			})
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to get wallet", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTransfer(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		WalletNumber string          `json:"wallet_number" validate:"required,walletnumber"`
		Amount       decimal.Decimal `json:"amount" validate:"required"`
	}

	type response struct {
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		Amount          string `json:"amount"`
		RecipientWallet string `json:"recipient_wallet"`
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

		wallet, err := walletService.GetWallet(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get sender wallet", "error", err)
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
			return
		}

		out, _, err := walletService.Transfer(r.Context(), wallet.WalletNumber, req.WalletNumber, req.Amount)

		switch {
		case err == nil:
			render.JSON(w, response{
				Status:          out.Status,
				Reference:       out.Reference,
				Amount:          out.Amount.StringFixed(2),
				RecipientWallet: req.WalletNumber,
			})
		case errors.Is(err, apperrors.ErrAmountNotPositive),
			errors.Is(err, apperrors.ErrAmountPrecision),
			errors.Is(err, apperrors.ErrSelfTransfer):
			render.ServiceError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Recipient wallet not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		default:
			l.Error("Transfer failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListTransactions(walletService walletService, l logger.Logger) http.Handler {
	type transaction struct {
		ID        string     `json:"id"`
		Type      string     `json:"type"`
		Amount    string     `json:"amount"`
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		CreatedAt time.Time  `json:"created_at"`
		SettledAt *time.Time `json:"settled_at,omitempty"`
	}

	type response struct {
		Transactions []transaction `json:"transactions"`
		Count        int           `json:"count"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		txns, err := walletService.ListTransactions(r.Context(), user.ID, limit)

		switch {
		case err == nil:
			resp := response{Transactions: make([]transaction, 0, len(txns))}
			for _, txn := range txns {
				resp.Transactions = append(resp.Transactions, transaction{
					ID:        txn.ID.String(),
					Type:      txn.Type,
					Amount:    txn.Amount.StringFixed(2),
					Reference: txn.Reference,
					Status:    txn.Status,
					CreatedAt: txn.CreatedAt,
					SettledAt: txn.SettledAt,
				})
			}
			resp.Count = len(resp.Transactions)
			render.JSON(w, resp)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "Wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
