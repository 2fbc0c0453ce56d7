package main

import (
	"net/http"

	"github.com/clickwage/backend/internal/admin"
	"github.com/clickwage/backend/internal/dashboard"
	"github.com/clickwage/backend/internal/networks"
	"github.com/clickwage/backend/internal/router"
)

// RegisterAdminRoutes mounts the moderation gateway under
// /api/v1/admin. Every route runs Authenticate then RequireAdmin, so
// handlers can assume an admin user in context.
func RegisterAdminRoutes(
	mux *http.ServeMux,
	adminHandler *admin.Handler,
	networksHandler *networks.Handler,
	dashHandler *dashboard.Handler,
	authenticate router.Middleware,
	requireAdmin router.Middleware,
) {
	base := "/api/v1/admin"
	guard := func(h http.HandlerFunc) http.Handler {
		return authenticate(requireAdmin(h))
	}

	mux.Handle("GET "+base+"/dashboard", guard(dashHandler.AdminDashboard))

	// Users
	mux.Handle("GET "+base+"/users", guard(adminHandler.ListUsers))
	mux.Handle("GET "+base+"/users/{id}", guard(adminHandler.GetUser))
	mux.Handle("POST "+base+"/users/{id}/suspend", guard(adminHandler.SetSuspended(true)))
	mux.Handle("POST "+base+"/users/{id}/unsuspend", guard(adminHandler.SetSuspended(false)))
	mux.Handle("POST "+base+"/users/{id}/make-admin", guard(adminHandler.SetAdmin(true)))
	mux.Handle("POST "+base+"/users/{id}/remove-admin", guard(adminHandler.SetAdmin(false)))
	mux.Handle("POST "+base+"/users/{id}/adjust-balance", guard(adminHandler.AdjustBalance))

	// Tasks
	mux.Handle("GET "+base+"/tasks", guard(adminHandler.ListTasks))
	mux.Handle("GET "+base+"/tasks/{id}", guard(adminHandler.GetTask))
	mux.Handle("PUT "+base+"/tasks/{id}", guard(adminHandler.UpdateTask))
	mux.Handle("POST "+base+"/tasks/{id}/approve", guard(adminHandler.ApproveTask))
	mux.Handle("POST "+base+"/tasks/{id}/reject", guard(adminHandler.RejectTask))
	mux.Handle("POST "+base+"/tasks/{id}/pause", guard(adminHandler.PauseTask))
	mux.Handle("POST "+base+"/tasks/{id}/activate", guard(adminHandler.ActivateTask))

	// Deposits
	mux.Handle("GET "+base+"/deposits", guard(adminHandler.ListDeposits))
	mux.Handle("GET "+base+"/deposits/{id}", guard(adminHandler.GetDeposit))
	mux.Handle("POST "+base+"/deposits/{id}/confirm", guard(adminHandler.ConfirmDeposit))
	mux.Handle("POST "+base+"/deposits/{id}/reject", guard(adminHandler.RejectDeposit))

	// Withdrawals
	mux.Handle("GET "+base+"/withdrawals", guard(adminHandler.ListWithdrawals))
	mux.Handle("GET "+base+"/withdrawals/{id}", guard(adminHandler.GetWithdrawal))
	mux.Handle("POST "+base+"/withdrawals/{id}/approve", guard(adminHandler.ApproveWithdrawal))
	mux.Handle("POST "+base+"/withdrawals/{id}/mark-paid", guard(adminHandler.MarkWithdrawalPaid))
	mux.Handle("POST "+base+"/withdrawals/{id}/reject", guard(adminHandler.RejectWithdrawal))

	// Platform settings
	mux.Handle("GET "+base+"/settings", guard(adminHandler.GetSettings))
	mux.Handle("PUT "+base+"/settings", guard(adminHandler.PutSettings))

	// Crypto networks
	mux.Handle("GET "+base+"/crypto-networks", guard(networksHandler.ListAll))
	mux.Handle("POST "+base+"/crypto-networks", guard(networksHandler.Create))
	mux.Handle("PUT "+base+"/crypto-networks/{id}", guard(networksHandler.Update))
	mux.Handle("DELETE "+base+"/crypto-networks/{id}", guard(networksHandler.Delete))
}
