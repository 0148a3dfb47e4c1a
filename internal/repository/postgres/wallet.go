package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (id, user_id, wallet_number, balance)
VALUES ($1, $2, $3, 0)
RETURNING id, created_at, user_id, wallet_number, balance
`

func (r *WalletRepo) CreateWallet(ctx context.Context, userID uuid.UUID, walletNumber string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, uuid.New(), userID, walletNumber)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, apperrors.ErrWalletNumberTaken
		}

		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: getWallet
SELECT id, created_at, user_id, wallet_number, balance FROM wallets
WHERE %s = $1
`

// get fetches one wallet by the given column, optionally locking the row.
// FOR UPDATE blocks until a concurrent transaction holding the row finishes,
// which is the only synchronization primitive wallet state relies on.
func (r *WalletRepo) get(ctx context.Context, column string, value any, forUpdate bool) (models.Wallet, error) {
	query := fmt.Sprintf(getWallet, column)
	if forUpdate {
		query += "FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, value)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func (r *WalletRepo) GetWallet(ctx context.Context, walletID uuid.UUID, forUpdate bool) (models.Wallet, error) {
	return r.get(ctx, "id", walletID, forUpdate)
}

func (r *WalletRepo) GetWalletByUserID(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Wallet, error) {
	return r.get(ctx, "user_id", userID, forUpdate)
}

func (r *WalletRepo) GetWalletByNumber(ctx context.Context, walletNumber string, forUpdate bool) (models.Wallet, error) {
	return r.get(ctx, "wallet_number", walletNumber, forUpdate)
}

const updateBalance = `-- name: UpdateBalance
UPDATE wallets
SET balance = $2
WHERE id = $1
RETURNING id, created_at, user_id, wallet_number, balance
`

func (r *WalletRepo) UpdateBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, updateBalance, walletID, balance)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.CreatedAt, &w.UserID, &w.WalletNumber, &w.Balance)
	return w, err
}
