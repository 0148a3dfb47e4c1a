package deposit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/logger"
	"github.com/nkurilenko/walletd/internal/models"
	"github.com/nkurilenko/walletd/internal/repository"
	"github.com/nkurilenko/walletd/internal/service/paystack"
	"github.com/nkurilenko/walletd/internal/service/wallet"
)

// DepositRefPrefix marks references of gateway-initiated deposits
const DepositRefPrefix = "DEP_"

// Outcome of a gateway notification
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

type gatewayClient interface {
	InitializeCharge(ctx context.Context, email string, amount decimal.Decimal, reference string, callbackURL string) (paystack.Charge, error)
}

// Initiation is what the caller needs to complete a deposit out of band
type Initiation struct {
	Reference  string
	PaymentURL string
}

// FinalizationResult reports what a notification did to the ledger
type FinalizationResult struct {
	// Reference the notification carried
	Reference string

	// Found is false when no transaction matches the reference. Such events
	// are acked as a no-op: the reference may belong to another system.
	Found bool

	// Applied is true only when this call moved the transaction to a
	// terminal state. Duplicate deliveries observe the terminal state and
	// report Applied=false.
	Applied bool

	// Status of the transaction after the call
	Status string
}

type DepositService struct {
	storage     repository.Storage
	gateway     gatewayClient
	callbackURL string
	logger      logger.Logger
}

func NewService(storage repository.Storage, gateway gatewayClient, callbackURL string, l logger.Logger) *DepositService {
	return &DepositService{
		storage:     storage,
		gateway:     gateway,
		callbackURL: callbackURL,
		logger:      l,
	}
}

// Initiate creates a pending deposit transaction and asks the gateway for a
// payment authorization URL.
//
// The pending row and the gateway call share one database transaction: if
// the gateway call fails the row is rolled back, so a deposit that will
// never receive a callback does not linger as pending.
func (s *DepositService) Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (Initiation, error) {
	var result Initiation

	if err := wallet.ValidateAmount(amount); err != nil {
		return result, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return result, err
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		w, err := st.Wallet().GetWalletByUserID(ctx, userID, false)
		if err != nil {
			return err
		}

		reference := wallet.NewReference(DepositRefPrefix)

		if _, err := st.Transaction().CreateTransaction(ctx, models.Transaction{
			WalletID:  w.ID,
			Type:      models.TransactionTypeDeposit,
			Amount:    amount,
			Reference: reference,
		}); err != nil {
			return err
		}

		charge, err := s.gateway.InitializeCharge(ctx, user.Email, amount, reference, s.callbackURL)
		if err != nil {
			return fmt.Errorf("gateway initialization failed: %w", err)
		}

		result = Initiation{
			Reference:  reference,
			PaymentURL: charge.AuthorizationURL,
		}

		return nil
	})
	if err != nil {
		return Initiation{}, err
	}

	s.logger.Info("Deposit initiated", "reference", result.Reference, "amount", amount.StringFixed(2))
	return result, nil
}

// Finalize applies a gateway notification to the deposit it references.
//
// Finalization is idempotent per reference: the transaction row is locked
// first, so concurrent duplicate deliveries serialize and the second one
// observes the terminal state and short-circuits. A 'failed' notification
// for an already credited deposit is a conflict; the credit is not reversed.
func (s *DepositService) Finalize(ctx context.Context, reference string, outcome string) (FinalizationResult, error) {
	result := FinalizationResult{Reference: reference}

	if outcome != OutcomeSuccess && outcomeToStatus(outcome) == "" {
		return result, fmt.Errorf("unknown outcome %q", outcome)
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		txn, err := st.Transaction().GetByReference(ctx, reference, true)
		switch {
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			// Possibly not ours: ack without touching anything and without
			// telling the sender whether the reference exists
			s.logger.Warn("Notification for unknown reference", "reference", reference)
			return nil
		case err != nil:
			return err
		}

		result.Found = true
		result.Status = txn.Status

		if txn.Terminal() {
			if txn.Status == outcomeToStatus(outcome) {
				// Duplicate delivery: already settled the same way
				s.logger.Info("Duplicate notification ignored", "reference", reference, "status", txn.Status)
				return nil
			}
			if txn.Status == models.TransactionStatusSuccess {
				// Contradictory late 'failed': a credited deposit is never
				// silently reversed
				return apperrors.ErrDepositConflict
			}

			// failed -> success is equally impossible to apply
			return apperrors.ErrTransactionSettled
		}

		if outcome == OutcomeSuccess {
			w, err := st.Wallet().GetWallet(ctx, txn.WalletID, true)
			if err != nil {
				return err
			}

			if _, err := st.Wallet().UpdateBalance(ctx, w.ID, w.Balance.Add(txn.Amount)); err != nil {
				return err
			}
		}

		settled, err := st.Transaction().Settle(ctx, txn.ID, outcomeToStatus(outcome))
		if err != nil {
			return err
		}

		result.Applied = true
		result.Status = settled.Status

		return nil
	})
	if err != nil {
		return FinalizationResult{Reference: reference, Found: result.Found, Status: result.Status}, err
	}

	if result.Applied {
		s.logger.Info("Deposit finalized", "reference", reference, "status", result.Status)
	}

	return result, nil
}

// Status returns the deposit state for the owning user.
// Read only, never credits; transactions of other wallets read as not found.
func (s *DepositService) Status(ctx context.Context, userID uuid.UUID, reference string) (models.Transaction, error) {
	txn, err := s.storage.Transaction().GetByReference(ctx, reference, false)
	if err != nil {
		return txn, err
	}

	w, err := s.storage.Wallet().GetWalletByUserID(ctx, userID, false)
	if err != nil {
		return models.Transaction{}, err
	}

	if txn.WalletID != w.ID {
		return models.Transaction{}, apperrors.ErrTransactionNotFound
	}

	return txn, nil
}

func outcomeToStatus(outcome string) string {
	switch outcome {
	case OutcomeSuccess:
		return models.TransactionStatusSuccess
	case OutcomeFailed:
		return models.TransactionStatusFailed
	default:
		return ""
	}
}
