package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/handlers/userctx"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/models"
)

type fakeWalletService struct {
	getWallet        func(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	transfer         func(ctx context.Context, senderNumber string, recipientNumber string, amount decimal.Decimal) (models.Transaction, models.Transaction, error)
	listTransactions func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
}

func (f *fakeWalletService) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return f.getWallet(ctx, userID)
}

func (f *fakeWalletService) Transfer(ctx context.Context, senderNumber string, recipientNumber string, amount decimal.Decimal) (models.Transaction, models.Transaction, error) {
	return f.transfer(ctx, senderNumber, recipientNumber, amount)
}

func (f *fakeWalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	return f.listTransactions(ctx, userID, limit)
}

// asUser injects the user the way the auth middleware would
func asUser(u models.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), u)))
	})
}

func Test_WalletBalanceHandler(t *testing.T) {
	t.Parallel()

	l := logger.NewLogger(logger.LevelError)
	user := models.User{ID: uuid.New(), Email: "nk@example.com", Name: "nk"}

	serve := func(t *testing.T, svc *fakeWalletService) string {
		t.Helper()

		srv := httptest.NewServer(asUser(user, handleWalletBalance(svc, l)))
		t.Cleanup(srv.Close)
		return srv.URL
	}

	t.Run("balance ok", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: func(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
				require.Equal(t, user.ID, userID)
				return models.Wallet{
					WalletNumber: "1234567890123",
					Balance:      decimal.RequireFromString("512.30"),
				}, nil
			},
		}

		resp, err := http.Get(serve(t, svc))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.JSONEq(t, `
			{
				"wallet_number": "1234567890123",
				"balance": "512.30"
			}`, string(body))
	})

	t.Run("wallet missing", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: func(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
				return models.Wallet{}, apperrors.ErrWalletNotFound
			},
		}

		resp, err := http.Get(serve(t, svc))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func Test_TransferHandler(t *testing.T) {
	t.Parallel()

	l := logger.NewLogger(logger.LevelError)
	user := models.User{ID: uuid.New(), Email: "nk@example.com", Name: "nk"}
	senderWallet := models.Wallet{
		ID:           uuid.New(),
		UserID:       user.ID,
		WalletNumber: "1111111111111",
		Balance:      decimal.RequireFromString("1000.00"),
	}

	serve := func(t *testing.T, svc *fakeWalletService) string {
		t.Helper()

		srv := httptest.NewServer(asUser(user, handleTransfer(svc, l)))
		t.Cleanup(srv.Close)
		return srv.URL
	}

	post := func(t *testing.T, url string, body string) (*http.Response, string) {
		t.Helper()

		resp, err := http.Post(url, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		return resp, string(raw)
	}

	ownWallet := func(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
		return senderWallet, nil
	}

	t.Run("transfer ok", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, senderNumber string, recipientNumber string, amount decimal.Decimal) (models.Transaction, models.Transaction, error) {
				require.Equal(t, "1111111111111", senderNumber)
				require.Equal(t, "2222222222222", recipientNumber)
				require.True(t, amount.Equal(decimal.RequireFromString("250.00")))

				out := models.Transaction{
					Type:      models.TransactionTypeTransferOut,
					Amount:    amount,
					Reference: "TRF_AB12CD34EF56_OUT",
					Status:    models.TransactionStatusSuccess,
				}
				in := out
				in.Type = models.TransactionTypeTransferIn
				in.Reference = "TRF_AB12CD34EF56_IN"
				return out, in, nil
			},
		}

		resp, body := post(t, serve(t, svc), `{"wallet_number": "2222222222222", "amount": "250.00"}`)

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
		require.JSONEq(t, `
			{
				"status": "success",
				"reference": "TRF_AB12CD34EF56_OUT",
				"amount": "250.00",
				"recipient_wallet": "2222222222222"
			}`, body)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, _, _ string, _ decimal.Decimal) (models.Transaction, models.Transaction, error) {
				return models.Transaction{}, models.Transaction{}, apperrors.ErrBalanceInsufficient
			},
		}

		resp, body := post(t, serve(t, svc), `{"wallet_number": "2222222222222", "amount": "9999.00"}`)

		require.Equalf(t, http.StatusPaymentRequired, resp.StatusCode, "not expected code. Body: %s", body)
	})

	t.Run("recipient not found", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, _, _ string, _ decimal.Decimal) (models.Transaction, models.Transaction, error) {
				return models.Transaction{}, models.Transaction{}, apperrors.ErrWalletNotFound
			},
		}

		resp, _ := post(t, serve(t, svc), `{"wallet_number": "9999999999999", "amount": "10.00"}`)

		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, _, _ string, _ decimal.Decimal) (models.Transaction, models.Transaction, error) {
				return models.Transaction{}, models.Transaction{}, apperrors.ErrSelfTransfer
			},
		}

		resp, _ := post(t, serve(t, svc), `{"wallet_number": "1111111111111", "amount": "10.00"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad amount precision rejected", func(t *testing.T) {
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, _, _ string, _ decimal.Decimal) (models.Transaction, models.Transaction, error) {
				return models.Transaction{}, models.Transaction{}, apperrors.ErrAmountPrecision
			},
		}

		resp, _ := post(t, serve(t, svc), `{"wallet_number": "2222222222222", "amount": "10.005"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed wallet number fails validation", func(t *testing.T) {
		transferCalled := false
		svc := &fakeWalletService{
			getWallet: ownWallet,
			transfer: func(ctx context.Context, _, _ string, _ decimal.Decimal) (models.Transaction, models.Transaction, error) {
				transferCalled = true
				return models.Transaction{}, models.Transaction{}, nil
			},
		}

		resp, _ := post(t, serve(t, svc), `{"wallet_number": "not-a-number", "amount": "10.00"}`)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.False(t, transferCalled, "validation errors should short-circuit before the service")
	})
}

func Test_ListTransactionsHandler(t *testing.T) {
	t.Parallel()

	l := logger.NewLogger(logger.LevelError)
	user := models.User{ID: uuid.New(), Email: "nk@example.com", Name: "nk"}

	serve := func(t *testing.T, svc *fakeWalletService) string {
		t.Helper()

		srv := httptest.NewServer(asUser(user, handleListTransactions(svc, l)))
		t.Cleanup(srv.Close)
		return srv.URL
	}

	t.Run("list ok", func(t *testing.T) {
		now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
		svc := &fakeWalletService{
			listTransactions: func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
				require.Equal(t, user.ID, userID)
				require.Equal(t, 0, limit)
				return []models.Transaction{
					{
						ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
						Type:      models.TransactionTypeDeposit,
						Amount:    decimal.RequireFromString("100.00"),
						Reference: "DEP_AB12CD34EF56",
						Status:    models.TransactionStatusSuccess,
						CreatedAt: now,
						SettledAt: &now,
					},
				}, nil
			},
		}

		resp, err := http.Get(serve(t, svc))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))
		require.JSONEq(t, `
			{
				"count": 1,
				"transactions": [
					{
						"id": "11111111-1111-1111-1111-111111111111",
						"type": "deposit",
						"amount": "100.00",
						"reference": "DEP_AB12CD34EF56",
						"status": "success",
						"created_at": "2025-08-01T12:00:00Z",
						"settled_at": "2025-08-01T12:00:00Z"
					}
				]
			}`, string(body))
	})

	t.Run("limit passed through", func(t *testing.T) {
		var gotLimit int
		svc := &fakeWalletService{
			listTransactions: func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
				gotLimit = limit
				return nil, nil
			},
		}

		resp, err := http.Get(serve(t, svc) + "?limit=7")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 7, gotLimit)
	})

	t.Run("bad limit rejected", func(t *testing.T) {
		svc := &fakeWalletService{
			listTransactions: func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
				t.Fatal("service should not be reached")
				return nil, nil
			},
		}

		resp, err := http.Get(serve(t, svc) + "?limit=minus-five")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty history serializes as empty array", func(t *testing.T) {
		svc := &fakeWalletService{
			listTransactions: func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
				return nil, nil
			},
		}

		resp, err := http.Get(serve(t, svc))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.JSONEq(t, `{"count": 0, "transactions": []}`, string(body))
	})
}
