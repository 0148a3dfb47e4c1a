package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeDeposit     = "deposit"
	TransactionTypeTransferIn  = "transfer_in"
	TransactionTypeTransferOut = "transfer_out"
)

const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Meta keys used for transfer legs: each leg points at its counterparty.
const (
	MetaRecipientWallet = "recipient_wallet"
	MetaSenderWallet    = "sender_wallet"
)

type Transaction struct {
	ID        uuid.UUID
	CreatedAt time.Time
	// SettledAt is set once, when the transaction reaches a terminal status
	SettledAt *time.Time
	WalletID  uuid.UUID
	Type      string
	Amount    decimal.Decimal
	Reference string
	Status    string
	Meta      map[string]string
}

// Terminal reports whether the transaction reached a final status.
// Terminal transactions never transition again.
func (t Transaction) Terminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}

// SignedAmount is the transaction's contribution to the wallet balance:
// positive for deposits and incoming transfers, negative for outgoing ones.
// Only 'success' transactions contribute to a balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeTransferOut {
		return t.Amount.Neg()
	}
	return t.Amount
}
