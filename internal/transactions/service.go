package transactions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/models"
)

var (
	// ErrInvalidTransition: the request is not in the state the
	// operation requires. Covers double-confirms and stale admin tabs.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNetworkUnavailable: the named crypto network does not exist or
	// is disabled.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrBelowMinimum: amount is under the network's configured floor.
	ErrBelowMinimum = errors.New("amount below network minimum")
	// ErrMissingAddress: withdrawal without a destination address.
	ErrMissingAddress = errors.New("wallet address required")
)

// Store is the persistence surface the processor drives. Transition
// methods report whether the conditional update applied.
type Store interface {
	CreateDeposit(ctx context.Context, d *models.Deposit) error
	GetDepositForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Deposit, error)
	TransitionDeposit(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)

	CreateWithdrawalTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	GetWithdrawalForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error)
	TransitionWithdrawal(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)
	TransitionWithdrawalFromEither(ctx context.Context, tx pgx.Tx, id uuid.UUID, fromA, fromB, to string) (bool, error)
}

// NetworkResolver looks up the payment rail a request names.
type NetworkResolver interface {
	GetBySymbol(ctx context.Context, symbol string) (*models.CryptoNetwork, error)
}

// WalletResolver maps a user to their wallet inside the transaction.
type WalletResolver interface {
	WalletIDByUserID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (uuid.UUID, error)
}

// Ledger is the balance surface the processor needs.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, counter ledger.Counter, reason string, actor uuid.UUID) (int64, error)
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64, reason string, actor uuid.UUID) (int64, error)
	MarkWithdrawn(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amountCents int64) error
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service runs the deposit and withdrawal state machines. Withdrawals
// debit the balance at request time; rejection is the compensating
// credit. Deposits only touch the wallet on admin confirmation.
type Service struct {
	Pool     TxBeginner
	Store    Store
	Networks NetworkResolver
	Wallets  WalletResolver
	Ledger   Ledger
}

func NewService(pool TxBeginner, store Store, networks NetworkResolver, wallets WalletResolver, led Ledger) *Service {
	return &Service{Pool: pool, Store: store, Networks: networks, Wallets: wallets, Ledger: led}
}

func (s *Service) resolveNetwork(ctx context.Context, symbol string) (*models.CryptoNetwork, error) {
	network, err := s.Networks.GetBySymbol(ctx, strings.TrimSpace(symbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNetworkUnavailable
		}
		return nil, err
	}
	if !network.IsActive {
		return nil, ErrNetworkUnavailable
	}
	return network, nil
}

// SubmitDeposit records a user's claim of an on-chain transfer. Nothing
// is credited until an admin confirms it.
func (s *Service) SubmitDeposit(ctx context.Context, userID uuid.UUID, amountCents int64, networkSymbol string, txHash *string) (*models.Deposit, error) {
	if amountCents <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	network, err := s.resolveNetwork(ctx, networkSymbol)
	if err != nil {
		return nil, err
	}
	if amountCents < network.MinDepositCents {
		return nil, ErrBelowMinimum
	}

	deposit := &models.Deposit{
		ID:          uuid.New(),
		UserID:      userID,
		AmountCents: amountCents,
		Currency:    network.Currency,
		Network:     network.Symbol,
		TxHash:      txHash,
		Status:      models.DepositStatusPending,
	}
	if err := s.Store.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

// ConfirmDeposit moves a pending deposit to confirmed and credits the
// wallet, bumping total_deposited. actorID is the confirming admin and
// lands on the ledger entry.
func (s *Service) ConfirmDeposit(ctx context.Context, actorID, depositID uuid.UUID) (*models.Deposit, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	deposit, err := s.Store.GetDepositForUpdate(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Store.TransitionDeposit(ctx, tx, depositID, models.DepositStatusPending, models.DepositStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}

	walletID, err := s.Wallets.WalletIDByUserID(ctx, tx, deposit.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.Credit(ctx, tx, walletID, deposit.AmountCents, ledger.CounterDeposited, models.DepositReason(depositID), actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	deposit.Status = models.DepositStatusConfirmed
	return deposit, nil
}

// RejectDeposit moves a pending deposit to rejected. No wallet
// mutation; nothing was ever credited.
func (s *Service) RejectDeposit(ctx context.Context, actorID, depositID uuid.UUID) (*models.Deposit, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	deposit, err := s.Store.GetDepositForUpdate(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Store.TransitionDeposit(ctx, tx, depositID, models.DepositStatusPending, models.DepositStatusRejected)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	deposit.Status = models.DepositStatusRejected
	return deposit, nil
}

// RequestWithdrawal creates the request and debits the balance in one
// transaction. An uncovered balance fails the whole operation with
// ledger.ErrInsufficientFunds and leaves no request behind.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amountCents int64, networkSymbol, walletAddress string) (*models.Withdrawal, error) {
	if amountCents <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if strings.TrimSpace(walletAddress) == "" {
		return nil, ErrMissingAddress
	}
	network, err := s.resolveNetwork(ctx, networkSymbol)
	if err != nil {
		return nil, err
	}
	if amountCents < network.MinWithdrawalCents {
		return nil, ErrBelowMinimum
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	withdrawal := &models.Withdrawal{
		ID:            uuid.New(),
		UserID:        userID,
		AmountCents:   amountCents,
		Currency:      network.Currency,
		Network:       network.Symbol,
		WalletAddress: strings.TrimSpace(walletAddress),
		Status:        models.WithdrawalStatusPending,
	}
	if err := s.Store.CreateWithdrawalTx(ctx, tx, withdrawal); err != nil {
		return nil, err
	}

	walletID, err := s.Wallets.WalletIDByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.Debit(ctx, tx, walletID, amountCents, models.WithdrawalReason(withdrawal.ID), userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ApproveWithdrawal moves pending to approved. The money already left
// the balance at request time, so this is bookkeeping only.
func (s *Service) ApproveWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	withdrawal, err := s.Store.GetWithdrawalForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Store.TransitionWithdrawal(ctx, tx, withdrawalID, models.WithdrawalStatusPending, models.WithdrawalStatusApproved)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	withdrawal.Status = models.WithdrawalStatusApproved
	return withdrawal, nil
}

// MarkWithdrawalPaid records the off-platform payout: approved to paid,
// plus the total_withdrawn bump. The balance is untouched.
func (s *Service) MarkWithdrawalPaid(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	withdrawal, err := s.Store.GetWithdrawalForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Store.TransitionWithdrawal(ctx, tx, withdrawalID, models.WithdrawalStatusApproved, models.WithdrawalStatusPaid)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}

	walletID, err := s.Wallets.WalletIDByUserID(ctx, tx, withdrawal.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.Ledger.MarkWithdrawn(ctx, tx, walletID, withdrawal.AmountCents); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	withdrawal.Status = models.WithdrawalStatusPaid
	return withdrawal, nil
}

// RejectWithdrawal refuses a pending or approved request and re-credits
// the debited amount. The refund entry references the withdrawal so the
// pair nets to zero in the ledger.
func (s *Service) RejectWithdrawal(ctx context.Context, actorID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	withdrawal, err := s.Store.GetWithdrawalForUpdate(ctx, tx, withdrawalID)
	if err != nil {
		return nil, err
	}
	applied, err := s.Store.TransitionWithdrawalFromEither(ctx, tx, withdrawalID,
		models.WithdrawalStatusPending, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}

	walletID, err := s.Wallets.WalletIDByUserID(ctx, tx, withdrawal.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Ledger.Credit(ctx, tx, walletID, withdrawal.AmountCents, ledger.CounterNone, models.WithdrawalRefundReason(withdrawalID), actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	withdrawal.Status = models.WithdrawalStatusRejected
	return withdrawal, nil
}
