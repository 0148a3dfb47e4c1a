package middleware

import (
	"context"
	"net/http"

	"github.com/nkurilenko/walletd/internal/handlers/render"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/models"
)

type authenticator interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

func AuthMiddleware(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
