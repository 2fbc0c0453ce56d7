package router

import (
	"net/http"

	"github.com/clickwage/backend/internal/auth"
	"github.com/clickwage/backend/internal/dashboard"
	"github.com/clickwage/backend/internal/handlers"
	"github.com/clickwage/backend/internal/networks"
)

// Middleware is a standard handler wrapper.
type Middleware func(http.Handler) http.Handler

// Deps carries the handlers and middleware the user-facing API mounts.
type Deps struct {
	Auth         *auth.Handler
	Tasks        *handlers.TaskHandler
	Wallet       *handlers.WalletHandler
	Transactions *handlers.TransactionHandler
	Networks     *networks.Handler
	Dashboard    *dashboard.Handler

	Authenticate  Middleware
	PublishLimits Middleware
}

// New returns an http.Handler serving the user API under /api/v1.
// Admin routes are registered separately behind RequireAdmin.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"

	authed := func(h http.HandlerFunc) http.Handler {
		return d.Authenticate(h)
	}

	// Session
	mux.HandleFunc("POST "+base+"/auth/register", d.Auth.Register)
	mux.HandleFunc("POST "+base+"/auth/login", d.Auth.Login)
	mux.Handle("POST "+base+"/auth/verify-token", authed(d.Auth.Me))
	mux.Handle("POST "+base+"/auth/change-password", authed(d.Auth.ChangePassword))

	// Dashboard
	mux.Handle("GET "+base+"/dashboard", authed(d.Dashboard.UserDashboard))

	// Tasks
	mux.Handle("POST "+base+"/tasks", d.Authenticate(d.PublishLimits(http.HandlerFunc(d.Tasks.PublishTask))))
	mux.Handle("GET "+base+"/tasks/available", authed(d.Tasks.ListAvailable))
	mux.Handle("GET "+base+"/tasks/mine", authed(d.Tasks.ListMine))
	mux.Handle("GET "+base+"/tasks/{id}", authed(d.Tasks.GetTask))
	mux.Handle("POST "+base+"/tasks/{id}/complete", authed(d.Tasks.CompleteTask))

	// Wallet
	mux.Handle("GET "+base+"/wallet", authed(d.Wallet.GetWallet))

	// Payment rails
	mux.HandleFunc("GET "+base+"/networks", d.Networks.ListActive)
	mux.Handle("POST "+base+"/deposits", authed(d.Transactions.SubmitDeposit))
	mux.Handle("GET "+base+"/deposits/mine", authed(d.Transactions.MyDeposits))
	mux.Handle("POST "+base+"/withdrawals", authed(d.Transactions.RequestWithdrawal))
	mux.Handle("GET "+base+"/withdrawals/mine", authed(d.Transactions.MyWithdrawals))

	return mux
}
