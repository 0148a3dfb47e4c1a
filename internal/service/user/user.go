package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/nkurilenko/walletd/internal/apperrors"
	"github.com/nkurilenko/walletd/internal/models"
	"github.com/nkurilenko/walletd/internal/repository"
)

// How many times to retry wallet number generation on a unique collision
const maxNumberAttempts = 5

type UserService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *UserService {
	return &UserService{storage: storage}
}

// CreateUser registers a user and creates their wallet in the same database
// transaction: an account never exists without a wallet.
func (s *UserService) CreateUser(ctx context.Context, email string, name string) (models.User, models.Wallet, error) {
	var user models.User
	var wallet models.Wallet

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		user, err = st.User().CreateUser(ctx, email, name)
		if err != nil {
			return err
		}

		wallet, err = createWalletWithFreshNumber(ctx, st, user.ID)
		return err
	})
	if err != nil {
		return models.User{}, models.Wallet{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, wallet, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.storage.User().GetUserByEmail(ctx, email)
}

// createWalletWithFreshNumber retries on the rare wallet number collision
func createWalletWithFreshNumber(ctx context.Context, st repository.Storage, userID uuid.UUID) (models.Wallet, error) {
	var wallet models.Wallet

	for range maxNumberAttempts {
		number, err := NewWalletNumber()
		if err != nil {
			return wallet, err
		}

		wallet, err = st.Wallet().CreateWallet(ctx, userID, number)
		if errors.Is(err, apperrors.ErrWalletNumberTaken) {
			continue
		}

		return wallet, err
	}

	return wallet, fmt.Errorf("can't generate unique wallet number after %d attempts", maxNumberAttempts)
}

// NewWalletNumber generates a random 13-digit numeric wallet number.
// The first digit is never zero so the number keeps its length everywhere.
func NewWalletNumber() (string, error) {
	digits := make([]byte, 0, models.WalletNumberLength)

	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", fmt.Errorf("can't generate wallet number: %w", err)
	}
	digits = append(digits, byte('1'+first.Int64()))

	for len(digits) < models.WalletNumberLength {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("can't generate wallet number: %w", err)
		}
		digits = append(digits, byte('0'+d.Int64()))
	}

	return string(digits), nil
}
