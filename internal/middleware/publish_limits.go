package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Platform settings keys consulted when a task is published.
const (
	SettingMaxTaskBudgetCents = "max_task_budget_cents"
	SettingMinRewardCents     = "min_reward_per_click_cents"
)

// publishPeek is the slice of the publish request body the guard needs.
type publishPeek struct {
	RewardPerClickCents int64 `json:"reward_per_click_cents"`
	TotalBudgetCents    int64 `json:"total_budget_cents"`
}

// PublishLimits enforces the admin-configured budget ceiling and reward
// floor on task publication. Reads the body to peek at the amounts,
// then replaces r.Body so the handler can re-read it.
func PublishLimits(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromCtx(r.Context()) == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var peek publishPeek
			if err := json.Unmarshal(bodyBytes, &peek); err != nil {
				http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
				return
			}

			maxBudget, err := settingCentsFn(r, pool, SettingMaxTaskBudgetCents)
			if err != nil {
				http.Error(w, `{"error":"failed to load platform limits"}`, http.StatusInternalServerError)
				return
			}
			if maxBudget > 0 && peek.TotalBudgetCents > maxBudget {
				http.Error(w, fmt.Sprintf(`{"error":"budget %d exceeds platform limit %d"}`, peek.TotalBudgetCents, maxBudget), http.StatusForbidden)
				return
			}

			minReward, err := settingCentsFn(r, pool, SettingMinRewardCents)
			if err != nil {
				http.Error(w, `{"error":"failed to load platform limits"}`, http.StatusInternalServerError)
				return
			}
			if minReward > 0 && peek.RewardPerClickCents < minReward {
				http.Error(w, fmt.Sprintf(`{"error":"reward %d is below platform minimum %d"}`, peek.RewardPerClickCents, minReward), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// settingCentsFn loads one cents-valued setting. Tests can replace this
// to avoid hitting a real database. A missing key means no limit.
var settingCentsFn = defaultSettingCents

func defaultSettingCents(r *http.Request, pool *pgxpool.Pool, key string) (int64, error) {
	var value string
	err := pool.QueryRow(r.Context(), `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}
