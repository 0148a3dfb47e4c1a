package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/repository"
	"github.com/nkurilenko/walletd/internal/testutil"
)

func TestWallet(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	t.Run("CreateWallet", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "owner@example.com", "Owner")
			require.NoError(t, err)

			t.Run("create ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					wallet, err := storage.Wallet().CreateWallet(t.Context(), user.ID, "1234567890123")

					require.NoError(t, err, "wallet has to be created ok")
					require.NotEmpty(t, wallet.ID)
					require.Equal(t, user.ID, wallet.UserID)
					require.Equal(t, "1234567890123", wallet.WalletNumber)
					require.True(t, wallet.Balance.IsZero(), "new wallet balance should be zero")
				})
			})

			t.Run("duplicate wallet number", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().CreateWallet(t.Context(), user.ID, "1234567890123")
					require.NoError(t, err, "first wallet creation should be ok")

					other, err := storage.User().CreateUser(t.Context(), "other@example.com", "Other")
					require.NoError(t, err)

					_, err = storage.Wallet().CreateWallet(t.Context(), other.ID, "1234567890123")

					require.ErrorIs(t, err, apperrors.ErrWalletNumberTaken)
				})
			})
		})
	})

	t.Run("GetWalletByNumber", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "owner@example.com", "Owner")
			require.NoError(t, err)

			created, err := storage.Wallet().CreateWallet(t.Context(), user.ID, "1234567890123")
			require.NoError(t, err)

			t.Run("get existing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					wallet, err := storage.Wallet().GetWalletByNumber(t.Context(), "1234567890123", false)

					require.NoError(t, err)
					require.Equal(t, created.ID, wallet.ID)
				})
			})

			t.Run("get with lock", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					wallet, err := storage.Wallet().GetWalletByNumber(t.Context(), "1234567890123", true)

					require.NoError(t, err)
					require.Equal(t, created.ID, wallet.ID)
				})
			})

			t.Run("get missing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().GetWalletByNumber(t.Context(), "0000000000000", false)

					require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
				})
			})

			t.Run("get by user id", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					wallet, err := storage.Wallet().GetWalletByUserID(t.Context(), user.ID, false)

					require.NoError(t, err)
					require.Equal(t, created.ID, wallet.ID)
				})
			})
		})
	})

	t.Run("UpdateBalance", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "owner@example.com", "Owner")
			require.NoError(t, err)

			created, err := storage.Wallet().CreateWallet(t.Context(), user.ID, "1234567890123")
			require.NoError(t, err)

			t.Run("update ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					wallet, err := storage.Wallet().UpdateBalance(t.Context(), created.ID, decimal.RequireFromString("150.25"))

					require.NoError(t, err)
					require.True(t, wallet.Balance.Equal(decimal.RequireFromString("150.25")))
				})
			})

			t.Run("negative balance rejected by schema", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().UpdateBalance(t.Context(), created.ID, decimal.RequireFromString("-1.00"))

					require.Error(t, err, "check constraint should reject negative balances")
				})
			})

			t.Run("missing wallet", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().UpdateBalance(t.Context(), uuid.New(), decimal.RequireFromString("1.00"))

					require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
				})
			})
		})
	})
}
