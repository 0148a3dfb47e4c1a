package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/handlers/middleware"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/models"
	"github.com/nkurilenko/walletd/internal/ratelimit"
	"github.com/nkurilenko/walletd/internal/service/auth"
	"github.com/nkurilenko/walletd/internal/service/deposit"
)

// Deposit initiation talks to the payment gateway, keep it on a short leash
const (
	depositRateMax    = 5
	depositRateWindow = time.Minute
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	userService userService,
	walletService walletService,
	depositService depositService,
	verifier webhookVerifier,
	authenticator auth.Authenticator,
	limiter ratelimit.Limiter,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authenticator)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withDepositLimit := func(h http.Handler) http.Handler {
		return authMiddleware(middleware.RateLimitMiddleware(limiter, "deposit", depositRateMax, depositRateWindow, logger)(h))
	}

	api := http.NewServeMux()

	api.Handle("POST /user", handleCreateUser(userService, logger))
	api.Handle("GET /user/me", withAuth(handleUserMe()))

	api.Handle("GET /wallet/balance", withAuth(handleWalletBalance(walletService, logger)))
	api.Handle("POST /wallet/transfer", withAuth(handleTransfer(walletService, logger)))
	api.Handle("GET /wallet/transactions", withAuth(handleListTransactions(walletService, logger)))

	api.Handle("POST /wallet/deposit", withDepositLimit(handleInitiateDeposit(depositService, logger)))
	api.Handle("GET /wallet/deposit/{reference}/status", withAuth(handleDepositStatus(depositService, logger)))
	api.Handle("GET /wallet/payment/callback", handlePaymentCallback())
	api.Handle("POST /wallet/paystack/webhook", handleGatewayWebhook(depositService, verifier, logger))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type userService interface {
	// Create user together with their wallet
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	CreateUser(ctx context.Context, email string, name string) (models.User, models.Wallet, error)
}

type walletService interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Transfer amount between wallets addressed by wallet number
	// Validation errors surface before any ledger mutation
	Transfer(ctx context.Context, senderNumber string, recipientNumber string, amount decimal.Decimal) (models.Transaction, models.Transaction, error)

	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

type depositService interface {
	Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (deposit.Initiation, error)

	// Finalize must be idempotent per reference; unknown references are a
	// benign ack, not an error
	Finalize(ctx context.Context, reference string, outcome string) (deposit.FinalizationResult, error)

	Status(ctx context.Context, userID uuid.UUID, reference string) (models.Transaction, error)
}

type webhookVerifier interface {
	VerifySignature(body []byte, signature string) bool
}
