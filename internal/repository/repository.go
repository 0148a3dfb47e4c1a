package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, name string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Wallet repository interface
//
// Reads with forUpdate=true acquire an exclusive row lock and are only
// meaningful inside Storage.InTx. The lock blocks until the holding
// transaction commits or rolls back.
type WalletRepo interface {
	// Create wallet with zero balance
	// Returns apperrors.ErrWalletNumberTaken if the number is already used
	CreateWallet(ctx context.Context, userID uuid.UUID, walletNumber string) (models.Wallet, error)

	// Get wallet, apperrors.ErrWalletNotFound if missing
	GetWallet(ctx context.Context, walletID uuid.UUID, forUpdate bool) (models.Wallet, error)
	GetWalletByUserID(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Wallet, error)
	GetWalletByNumber(ctx context.Context, walletNumber string, forUpdate bool) (models.Wallet, error)

	// Set the wallet balance to the given value
	// Must be called with the wallet row locked
	UpdateBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) (models.Wallet, error)
}

// Options to list wallet transactions
type ListTransactionsOpts struct {
	// Max rows to return, newest first. Zero means repository default
	Limit int

	// Restrict to these statuses. Empty means all
	Statuses []string
}

// Transaction repository interface
type TransactionRepo interface {
	// Create transaction as given (id and created_at set by the repo)
	// Returns apperrors.ErrReferenceTaken if the reference already exists
	CreateTransaction(ctx context.Context, txn models.Transaction) (models.Transaction, error)

	// Get transaction by its unique reference
	// Returns apperrors.ErrTransactionNotFound if missing
	GetByReference(ctx context.Context, reference string, forUpdate bool) (models.Transaction, error)

	// Move transaction from 'pending' to the given terminal status and
	// stamp settled_at. Returns apperrors.ErrTransactionSettled when the
	// transaction is not pending anymore: terminal states are never
	// overwritten.
	Settle(ctx context.Context, txnID uuid.UUID, status string) (models.Transaction, error)

	// List wallet transactions, newest first
	ListByWallet(ctx context.Context, walletID uuid.UUID, opts ListTransactionsOpts) ([]models.Transaction, error)
}

// Storage aggregates all repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Wallet() WalletRepo
	Transaction() TransactionRepo

	// Run fn against a Storage bound to one database transaction.
	// Commits if fn returns nil, rolls everything back otherwise.
	// Every balance mutation must happen inside exactly one InTx unit.
	InTx(ctx context.Context, fn func(s Storage) error) error
}
