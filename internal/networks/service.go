package networks

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clickwage/backend/internal/models"
)

var (
	// ErrDuplicateSymbol: a network with this symbol already exists.
	ErrDuplicateSymbol = errors.New("network symbol already exists")
	// ErrValidation is returned for malformed network configs.
	ErrValidation = errors.New("invalid network")
	// ErrNotFound: no network with that ID.
	ErrNotFound = errors.New("network not found")
)

type Params struct {
	Name               string
	Symbol             string
	Currency           string
	WalletAddress      string
	IsActive           bool
	MinDepositCents    int64
	MinWithdrawalCents int64
	DepositFeeCents    int64
	WithdrawalFeeCents int64
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func validate(p *Params) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.WalletAddress = strings.TrimSpace(p.WalletAddress)
	switch {
	case p.Name == "" || p.Symbol == "" || p.Currency == "":
		return ErrValidation
	case p.WalletAddress == "":
		return ErrValidation
	case p.MinDepositCents < 0 || p.MinWithdrawalCents < 0:
		return ErrValidation
	case p.DepositFeeCents < 0 || p.WithdrawalFeeCents < 0:
		return ErrValidation
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p Params) (*models.CryptoNetwork, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	n := &models.CryptoNetwork{
		ID:                 uuid.New(),
		Name:               p.Name,
		Symbol:             p.Symbol,
		Currency:           p.Currency,
		WalletAddress:      p.WalletAddress,
		IsActive:           p.IsActive,
		MinDepositCents:    p.MinDepositCents,
		MinWithdrawalCents: p.MinWithdrawalCents,
		DepositFeeCents:    p.DepositFeeCents,
		WithdrawalFeeCents: p.WithdrawalFeeCents,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateSymbol
		}
		return nil, err
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p Params) (*models.CryptoNetwork, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	n := &models.CryptoNetwork{
		ID:                 id,
		Name:               p.Name,
		Symbol:             p.Symbol,
		Currency:           p.Currency,
		WalletAddress:      p.WalletAddress,
		IsActive:           p.IsActive,
		MinDepositCents:    p.MinDepositCents,
		MinWithdrawalCents: p.MinWithdrawalCents,
		DepositFeeCents:    p.DepositFeeCents,
		WithdrawalFeeCents: p.WithdrawalFeeCents,
	}
	applied, err := s.repo.Update(ctx, n)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateSymbol
		}
		return nil, err
	}
	if !applied {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetBySymbol(ctx context.Context, symbol string) (*models.CryptoNetwork, error) {
	return s.repo.GetBySymbol(ctx, symbol)
}

func (s *Service) ListActive(ctx context.Context) ([]*models.CryptoNetwork, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]*models.CryptoNetwork, error) {
	return s.repo.ListAll(ctx)
}
