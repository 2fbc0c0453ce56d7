package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clickwage/backend/internal/models"
)

// injectUser wraps a handler to pre-set the user in context, simulating
// what Authenticate would do upstream.
func injectUser(u *models.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// publish200 proves the middleware let the request through.
var publish200 = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withSettings(t *testing.T, values map[string]int64) {
	t.Helper()
	original := settingCentsFn
	settingCentsFn = func(_ *http.Request, _ *pgxpool.Pool, key string) (int64, error) {
		return values[key], nil
	}
	t.Cleanup(func() { settingCentsFn = original })
}

func publishRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

// ---------------------------------------------------------------------------
// 1. Request within limits -> 200 OK
// ---------------------------------------------------------------------------

func TestPublishLimits_WithinLimits(t *testing.T) {
	withSettings(t, map[string]int64{
		SettingMaxTaskBudgetCents: 100000,
		SettingMinRewardCents:     10,
	})

	handler := injectUser(&models.User{ID: uuid.New()}, PublishLimits(nil)(publish200))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{"reward_per_click_cents":500,"total_budget_cents":5000}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 2. Budget over the platform ceiling -> 403
// ---------------------------------------------------------------------------

func TestPublishLimits_BudgetOverCeiling(t *testing.T) {
	withSettings(t, map[string]int64{SettingMaxTaskBudgetCents: 1000})

	handler := injectUser(&models.User{ID: uuid.New()}, PublishLimits(nil)(publish200))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{"reward_per_click_cents":100,"total_budget_cents":5000}`))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "exceeds platform limit") {
		t.Errorf("expected ceiling error message, got: %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 3. Reward under the platform floor -> 403
// ---------------------------------------------------------------------------

func TestPublishLimits_RewardUnderFloor(t *testing.T) {
	withSettings(t, map[string]int64{SettingMinRewardCents: 50})

	handler := injectUser(&models.User{ID: uuid.New()}, PublishLimits(nil)(publish200))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{"reward_per_click_cents":10,"total_budget_cents":5000}`))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "below platform minimum") {
		t.Errorf("expected floor error message, got: %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 4. Unset limits mean no limit
// ---------------------------------------------------------------------------

func TestPublishLimits_NoLimitsConfigured(t *testing.T) {
	withSettings(t, map[string]int64{})

	handler := injectUser(&models.User{ID: uuid.New()}, PublishLimits(nil)(publish200))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{"reward_per_click_cents":1,"total_budget_cents":100000000}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 5. Unauthenticated or malformed requests
// ---------------------------------------------------------------------------

func TestPublishLimits_Unauthorized(t *testing.T) {
	handler := PublishLimits(nil)(publish200)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{"total_budget_cents":100}`))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestPublishLimits_InvalidJSON(t *testing.T) {
	withSettings(t, map[string]int64{})
	handler := injectUser(&models.User{ID: uuid.New()}, PublishLimits(nil)(publish200))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, publishRequest(`{not json`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
