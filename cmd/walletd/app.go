package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkurilenko/walletd/internal/db"
	"github.com/nkurilenko/walletd/internal/handlers"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/ratelimit"
	"github.com/nkurilenko/walletd/internal/repository/postgres"
	"github.com/nkurilenko/walletd/internal/service/auth"
	"github.com/nkurilenko/walletd/internal/service/deposit"
	"github.com/nkurilenko/walletd/internal/service/paystack"
	"github.com/nkurilenko/walletd/internal/service/user"
	"github.com/nkurilenko/walletd/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	gateway := paystack.NewClient(c.PaystackSecretKey, logger)
	callbackURL := c.BaseURL + "/api/wallet/payment/callback"

	userService := user.NewService(storage)
	walletService := wallet.NewService(storage, logger)
	depositService := deposit.NewService(storage, gateway, callbackURL, logger)
	authenticator := auth.NewHeaderAuthenticator(userService)

	// Rate limiting lives in redis so every replica shares the same window
	redisClient := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	limiter := ratelimit.NewRedisLimiter(redisClient)

	mux := handlers.NewRouter(
		userService,
		walletService,
		depositService,
		gateway,
		authenticator,
		limiter,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
