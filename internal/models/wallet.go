package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletNumberLength is the length of the externally visible wallet number.
// Wallet numbers are numeric strings and unique across all wallets.
const WalletNumberLength = 13

type Wallet struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UserID       uuid.UUID
	WalletNumber string
	Balance      decimal.Decimal
}
