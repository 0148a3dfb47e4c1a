package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/models"
	"github.com/nkurilenko/walletd/internal/repository"
)

const defaultListLimit = 50

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, wallet_id, type, amount, reference, status, meta)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, settled_at, wallet_id, type, amount, reference, status, meta
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	status := txn.Status
	if status == "" {
		status = models.TransactionStatusPending
	}

	rows, _ := r.DB.Query(ctx, createTransaction,
		uuid.New(), txn.WalletID, txn.Type, txn.Amount, txn.Reference, status, txn.Meta)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrReferenceTaken
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getByReference = `-- name: getByReference
SELECT id, created_at, settled_at, wallet_id, type, amount, reference, status, meta
FROM transactions
WHERE reference = $1
`

func (r *TransactionRepo) GetByReference(ctx context.Context, reference string, forUpdate bool) (models.Transaction, error) {
	query := getByReference
	if forUpdate {
		query += "FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, reference)
	txn, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return txn, nil
	case errors.Is(err, pgx.ErrNoRows):
		return txn, apperrors.ErrTransactionNotFound
	default:
		return txn, fmt.Errorf("db error: %w", err)
	}
}

// Settle moves a pending transaction to the given terminal status.
// The WHERE guard makes the transition monotonic: a transaction that is
// already 'success' or 'failed' matches no row and is reported as settled.
const settleTransaction = `-- name: Settle
UPDATE transactions
SET status = $2, settled_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING id, created_at, settled_at, wallet_id, type, amount, reference, status, meta
`

func (r *TransactionRepo) Settle(ctx context.Context, txnID uuid.UUID, status string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, settleTransaction, txnID, status)
	txn, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return txn, nil
	case errors.Is(err, pgx.ErrNoRows):
		return txn, apperrors.ErrTransactionSettled
	default:
		return txn, fmt.Errorf("db error: %w", err)
	}
}

const listByWallet = `-- name: ListByWallet
SELECT id, created_at, settled_at, wallet_id, type, amount, reference, status, meta
FROM transactions
WHERE wallet_id = $1 AND ($2::text[] IS NULL OR status = ANY($2))
ORDER BY created_at DESC
LIMIT $3
`

func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, opts repository.ListTransactionsOpts) ([]models.Transaction, error) {
	limit := opts.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	var statuses []string
	if len(opts.Statuses) > 0 {
		statuses = opts.Statuses
	}

	rows, _ := r.DB.Query(ctx, listByWallet, walletID, statuses, limit)
	txns, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return txns, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.SettledAt, &t.WalletID, &t.Type, &t.Amount, &t.Reference, &t.Status, &t.Meta)
	return t, err
}
