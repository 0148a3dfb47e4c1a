package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/models"
	"github.com/nkurilenko/walletd/internal/repository"
)

// TransferRefPrefix marks the shared reference of a transfer pair.
// Legs are distinguished by the _OUT/_IN suffix; the prefix part is shared.
const TransferRefPrefix = "TRF_"

type WalletService struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *WalletService {
	return &WalletService{
		storage: storage,
		logger:  l,
	}
}

// NewReference builds a reference like TRF_A1B2C3D4E5F6 from a fresh uuid
func NewReference(prefix string) string {
	u := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(u[:6]))
}

// ValidateAmount checks an amount before any lock is taken: it must be
// positive and must not carry more than two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.ErrAmountNotPositive
	}
	if amount.Exponent() < -2 {
		return apperrors.ErrAmountPrecision
	}

	return nil
}

// Transfer moves amount from the sender's wallet to the recipient's wallet.
//
// Both wallet rows are locked in lexical wallet-number order, so two
// concurrent transfers over the same pair acquire locks in the same sequence
// whichever direction they run in, and cannot deadlock. The balance check
// runs after the lock is held. Debit, credit and both transaction legs
// commit in a single database transaction; on any error nothing is applied.
func (s *WalletService) Transfer(ctx context.Context, senderNumber string, recipientNumber string, amount decimal.Decimal) (out models.Transaction, in models.Transaction, err error) {
	if err := ValidateAmount(amount); err != nil {
		return out, in, err
	}
	if senderNumber == recipientNumber {
		return out, in, apperrors.ErrSelfTransfer
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		firstNum, secondNum := senderNumber, recipientNumber
		if firstNum > secondNum {
			firstNum, secondNum = secondNum, firstNum
		}

		first, err := st.Wallet().GetWalletByNumber(ctx, firstNum, true)
		if err != nil {
			return err
		}
		second, err := st.Wallet().GetWalletByNumber(ctx, secondNum, true)
		if err != nil {
			return err
		}

		sender, recipient := first, second
		if sender.WalletNumber != senderNumber {
			sender, recipient = second, first
		}

		// Re-check under the lock: the balance may have changed since any
		// unlocked read the caller did
		if sender.Balance.LessThan(amount) {
			return apperrors.ErrBalanceInsufficient
		}

		reference := NewReference(TransferRefPrefix)

		out, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			WalletID:  sender.ID,
			Type:      models.TransactionTypeTransferOut,
			Amount:    amount,
			Reference: reference + "_OUT",
			Meta:      map[string]string{models.MetaRecipientWallet: recipient.WalletNumber},
		})
		if err != nil {
			return err
		}

		in, err = st.Transaction().CreateTransaction(ctx, models.Transaction{
			WalletID:  recipient.ID,
			Type:      models.TransactionTypeTransferIn,
			Amount:    amount,
			Reference: reference + "_IN",
			Meta:      map[string]string{models.MetaSenderWallet: sender.WalletNumber},
		})
		if err != nil {
			return err
		}

		if _, err := st.Wallet().UpdateBalance(ctx, sender.ID, sender.Balance.Sub(amount)); err != nil {
			return err
		}
		if _, err := st.Wallet().UpdateBalance(ctx, recipient.ID, recipient.Balance.Add(amount)); err != nil {
			return err
		}

		// Both legs settle together or not at all
		out, err = st.Transaction().Settle(ctx, out.ID, models.TransactionStatusSuccess)
		if err != nil {
			return err
		}
		in, err = st.Transaction().Settle(ctx, in.ID, models.TransactionStatusSuccess)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return models.Transaction{}, models.Transaction{}, err
	}

	s.logger.Info("Transfer complete",
		"reference", strings.TrimSuffix(out.Reference, "_OUT"),
		"sender", senderNumber,
		"recipient", recipientNumber,
		"amount", amount.StringFixed(2),
	)

	return out, in, nil
}

// GetWallet returns the user's wallet
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	wallet, err := s.storage.Wallet().GetWalletByUserID(ctx, userID, false)
	if err != nil {
		return wallet, fmt.Errorf("can't get wallet. Err: %w", err)
	}

	return wallet, nil
}

// ListTransactions returns the newest transactions of the user's wallet
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	wallet, err := s.storage.Wallet().GetWalletByUserID(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	return s.storage.Transaction().ListByWallet(ctx, wallet.ID, repository.ListTransactionsOpts{Limit: limit})
}
