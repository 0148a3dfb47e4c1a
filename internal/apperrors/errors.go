package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletNumberTaken   = errors.New("wallet number already exists")
	ErrBalanceInsufficient = errors.New("insufficient balance")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReferenceTaken      = errors.New("transaction reference already exists")
	// Returned when a guarded status transition matched no pending row,
	// i.e. the transaction is already terminal
	ErrTransactionSettled = errors.New("transaction already settled")

	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountPrecision   = errors.New("amount must have at most two decimal places")
	ErrSelfTransfer      = errors.New("cannot transfer to own wallet")

	// A 'failed' notification arrived for a deposit that was already
	// credited. The credit is never reversed; operators should investigate.
	ErrDepositConflict = errors.New("deposit already succeeded, cannot mark failed")
)
