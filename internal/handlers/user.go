package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/logger"
)

func handleCreateUser(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}

	type response struct {
		ID           uuid.UUID `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		WalletNumber string    `json:"wallet_number"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, wallet, err := userService.CreateUser(r.Context(), req.Email, req.Name)

		switch {
		case err == nil:
			render.JSON(w, response{
				ID:           user.ID,
				Email:        user.Email,
				Name:         user.Name,
				WalletNumber: wallet.WalletNumber,
			})
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			l.Error("Failed to create user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUserMe() http.Handler {
	type response struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
		Name  string    `json:"name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{ID: user.ID, Email: user.Email, Name: user.Name})
	})
}
