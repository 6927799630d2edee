package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billvault/billvault/internal/ledger"
)

const (
	statusActive    = "active"
	defaultCurrency = "NGN"
)

var (
	// ErrInvalidTransfer covers transfer requests that fail basic validation.
	ErrInvalidTransfer = errors.New("invalid transfer")

	// ErrInvalidOwner rejects wallet creation for a malformed owner id.
	ErrInvalidOwner = errors.New("invalid owner id")
)

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
}

// NewService builds a wallet service instance.
func NewService(repo Repository, ledger ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID  string
	Currency string
}

// Create provisions a wallet and associated ledger account.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, fmt.Errorf("%w: %q", ErrInvalidOwner, input.OwnerID)
	}

	walletID := uuid.New().String()
	accountCode := fmt.Sprintf("wallet:%s", walletID)

	if err := s.ledger.EnsureAccount(ctx, accountCode); err != nil {
		return Wallet{}, err
	}

	currency := input.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	wallet := Wallet{
		ID:          walletID,
		OwnerID:     input.OwnerID,
		AccountCode: accountCode,
		Currency:    currency,
		Status:      statusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner retrieves the wallet provisioned for an owner.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Balance returns the ledger balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.ledger.Balance(ctx, wallet.AccountCode)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: wallet.ID, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// TransferInput captures a wallet-to-wallet money movement request.
type TransferInput struct {
	FromWalletID string
	ToWalletID   string
	ClientTxID   string
	Amount       int64
}

// Transfer posts a balanced movement between two wallets. The client
// transaction id makes retries idempotent at the ledger level.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (ledger.TransactionResult, error) {
	if input.Amount <= 0 || input.ClientTxID == "" || input.FromWalletID == input.ToWalletID {
		return ledger.TransactionResult{}, ErrInvalidTransfer
	}

	from, err := s.repo.Get(ctx, input.FromWalletID)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	to, err := s.repo.Get(ctx, input.ToWalletID)
	if err != nil {
		return ledger.TransactionResult{}, err
	}

	return s.ledger.Transfer(ctx, from.AccountCode, to.AccountCode, ledger.TransferKindP2P, input.ClientTxID, input.Amount)
}
