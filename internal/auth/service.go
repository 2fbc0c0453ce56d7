package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/clickwage/backend/internal/models"
)

var (
	// ErrDuplicateEmail is returned when registering an email or
	// username that already exists.
	ErrDuplicateEmail = errors.New("email or username already registered")
	// ErrInvalidCredentials covers both unknown email and wrong
	// password, so login probing can't distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSuspended is returned when a suspended user tries to log in.
	ErrSuspended = errors.New("account suspended")
)

type UserStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type WalletStore interface {
	CreateWallet(ctx context.Context, tx pgx.Tx, w *models.Wallet) error
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service interface {
	Register(ctx context.Context, email, username, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (uuid.UUID, bool, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, updated string) error
}

type service struct {
	pool    TxBeginner
	users   UserStore
	wallets WalletStore
	secret  []byte
}

func NewService(pool TxBeginner, users UserStore, wallets WalletStore) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "clickwage-dev-secret"
	}
	return &service{pool: pool, users: users, wallets: wallets, secret: []byte(secret)}
}

var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	IsAdmin bool `json:"is_admin"`
}

// Register creates the user and its wallet in one transaction; a user
// without a wallet can never exist.
func (s *service) Register(ctx context.Context, email, username, password string) (*models.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", err
	}
	defer tx.Rollback(ctx)

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
	}
	if err := s.users.CreateTx(ctx, tx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", err
	}
	wallet := &models.Wallet{ID: uuid.New(), UserID: user.ID}
	if err := s.wallets.CreateWallet(ctx, tx, wallet); err != nil {
		return nil, "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if user.IsSuspended {
		return nil, "", ErrSuspended
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *service) issueToken(user *models.User) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		IsAdmin: user.IsAdmin,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

// ValidateToken returns the subject user ID and the admin flag baked
// into the token. Suspension is checked per request against the
// database, not here; a token outlives a suspension.
func (s *service) ValidateToken(token string) (uuid.UUID, bool, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, false, errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, c.IsAdmin, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, current, updated string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(updated), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hash))
}
