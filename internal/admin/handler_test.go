package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clickwage/backend/internal/ledger"
	"github.com/clickwage/backend/internal/middleware"
	"github.com/clickwage/backend/internal/models"
	"github.com/clickwage/backend/internal/tasks"
	"github.com/clickwage/backend/internal/transactions"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

type stubAdjuster struct {
	walletID uuid.UUID
}

func (s *stubAdjuster) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (s *stubAdjuster) WalletIDByUserID(_ context.Context, _ pgx.Tx, _ uuid.UUID) (uuid.UUID, error) {
	return s.walletID, nil
}

type stubLedger struct {
	walletID uuid.UUID
	signed   int64
	reason   string
	actor    uuid.UUID
	balance  int64
	err      error
}

func (s *stubLedger) Adjust(_ context.Context, _ pgx.Tx, walletID uuid.UUID, signedCents int64, reason string, actor uuid.UUID) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.walletID, s.signed, s.reason, s.actor = walletID, signedCents, reason, actor
	return s.balance, nil
}

type stubTaskModeration struct {
	approveErr error
	approved   []uuid.UUID
	rejected   map[uuid.UUID]string
}

func (s *stubTaskModeration) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	return &models.Task{ID: id}, nil
}
func (s *stubTaskModeration) Approve(_ context.Context, id uuid.UUID) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	s.approved = append(s.approved, id)
	return nil
}
func (s *stubTaskModeration) Reject(_ context.Context, id uuid.UUID, reason string) error {
	if s.rejected == nil {
		s.rejected = make(map[uuid.UUID]string)
	}
	s.rejected[id] = reason
	return nil
}
func (s *stubTaskModeration) Activate(context.Context, uuid.UUID) error { return nil }
func (s *stubTaskModeration) Pause(context.Context, uuid.UUID) error    { return nil }
func (s *stubTaskModeration) UpdateDetails(context.Context, uuid.UUID, string, string, string, int) error {
	return nil
}

type stubTxModeration struct {
	confirmActor uuid.UUID
	confirmErr   error
}

func (s *stubTxModeration) ConfirmDeposit(_ context.Context, actorID, id uuid.UUID) (*models.Deposit, error) {
	if s.confirmErr != nil {
		return nil, s.confirmErr
	}
	s.confirmActor = actorID
	return &models.Deposit{ID: id, Status: models.DepositStatusConfirmed}, nil
}
func (s *stubTxModeration) RejectDeposit(_ context.Context, _, id uuid.UUID) (*models.Deposit, error) {
	return &models.Deposit{ID: id, Status: models.DepositStatusRejected}, nil
}
func (s *stubTxModeration) ApproveWithdrawal(_ context.Context, _, id uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: id, Status: models.WithdrawalStatusApproved}, nil
}
func (s *stubTxModeration) MarkWithdrawalPaid(_ context.Context, _, id uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: id, Status: models.WithdrawalStatusPaid}, nil
}
func (s *stubTxModeration) RejectWithdrawal(_ context.Context, _, id uuid.UUID) (*models.Withdrawal, error) {
	return &models.Withdrawal{ID: id, Status: models.WithdrawalStatusRejected}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func adminUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
}

func asAdmin(r *http.Request, admin *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), admin))
}

func withID(r *http.Request, id uuid.UUID) *http.Request {
	r.SetPathValue("id", id.String())
	return r
}

// ---------------------------------------------------------------------------
// Adjust balance
// ---------------------------------------------------------------------------

func TestAdjustBalance_StampsActor(t *testing.T) {
	admin := adminUser()
	userID := uuid.New()
	adjuster := &stubAdjuster{walletID: uuid.New()}
	led := &stubLedger{balance: 700}
	h := &Handler{Adjuster: adjuster, Ledger: led, Logger: slog.Default()}

	body := `{"amount_cents": 200, "note": "goodwill bonus"}`
	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/users/x/adjust-balance", strings.NewReader(body)), admin), userID)
	rec := httptest.NewRecorder()

	h.AdjustBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if led.actor != admin.ID {
		t.Error("acting admin must be stamped on the adjustment")
	}
	if led.signed != 200 {
		t.Errorf("signed amount: got %d, want 200", led.signed)
	}
	if led.reason != models.AdjustmentReason("goodwill bonus") {
		t.Errorf("reason: got %q", led.reason)
	}
	if led.walletID != adjuster.walletID {
		t.Error("adjustment must target the resolved wallet")
	}

	var resp adjustBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BalanceCents != 700 {
		t.Errorf("balance_cents: got %d, want 700", resp.BalanceCents)
	}
}

func TestAdjustBalance_Overdraw(t *testing.T) {
	admin := adminUser()
	led := &stubLedger{err: ledger.ErrInsufficientFunds}
	h := &Handler{Adjuster: &stubAdjuster{walletID: uuid.New()}, Ledger: led, Logger: slog.Default()}

	body := `{"amount_cents": -999999}`
	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/users/x/adjust-balance", strings.NewReader(body)), admin), uuid.New())
	rec := httptest.NewRecorder()

	h.AdjustBalance(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Task moderation
// ---------------------------------------------------------------------------

func TestApproveTask(t *testing.T) {
	admin := adminUser()
	mod := &stubTaskModeration{}
	h := &Handler{Tasks: mod, Logger: slog.Default()}
	taskID := uuid.New()

	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/tasks/x/approve", nil), admin), taskID)
	rec := httptest.NewRecorder()
	h.ApproveTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mod.approved) != 1 || mod.approved[0] != taskID {
		t.Error("approve not dispatched to the task registry")
	}
}

func TestApproveTask_AlreadyApproved(t *testing.T) {
	admin := adminUser()
	mod := &stubTaskModeration{approveErr: tasks.ErrInvalidTransition}
	h := &Handler{Tasks: mod, Logger: slog.Default()}

	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/tasks/x/approve", nil), admin), uuid.New())
	rec := httptest.NewRecorder()
	h.ApproveTask(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRejectTask_PassesReason(t *testing.T) {
	admin := adminUser()
	mod := &stubTaskModeration{}
	h := &Handler{Tasks: mod, Logger: slog.Default()}
	taskID := uuid.New()

	body := `{"reason": "dead link"}`
	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/tasks/x/reject", strings.NewReader(body)), admin), taskID)
	rec := httptest.NewRecorder()
	h.RejectTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mod.rejected[taskID] != "dead link" {
		t.Errorf("reject reason: got %q, want %q", mod.rejected[taskID], "dead link")
	}
}

// ---------------------------------------------------------------------------
// Deposit moderation
// ---------------------------------------------------------------------------

func TestConfirmDeposit_StampsActor(t *testing.T) {
	admin := adminUser()
	mod := &stubTxModeration{}
	h := &Handler{Transactions: mod, Logger: slog.Default()}

	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/deposits/x/confirm", nil), admin), uuid.New())
	rec := httptest.NewRecorder()
	h.ConfirmDeposit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mod.confirmActor != admin.ID {
		t.Error("confirming admin must be passed as the actor")
	}
}

func TestConfirmDeposit_DoubleClick(t *testing.T) {
	admin := adminUser()
	mod := &stubTxModeration{confirmErr: transactions.ErrInvalidTransition}
	h := &Handler{Transactions: mod, Logger: slog.Default()}

	req := withID(asAdmin(httptest.NewRequest(http.MethodPost, "/admin/deposits/x/confirm", nil), admin), uuid.New())
	rec := httptest.NewRecorder()
	h.ConfirmDeposit(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}
