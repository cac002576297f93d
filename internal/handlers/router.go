package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
)

func NewRouter(service *app.Service) *http.ServeMux {
	mux := http.NewServeMux()

	authHandler := NewAuthHandler(service)
	employeeHandler := NewEmployeeHandler(service)
	raffleHandler := NewRaffleHandler(service)
	adminHandler := NewAdminHandler(service)

	viewer := func(h http.HandlerFunc) http.HandlerFunc {
		return instrument(requireRole(service.Auth, models.RoleViewer, h))
	}
	manager := func(h http.HandlerFunc) http.HandlerFunc {
		return instrument(requireRole(service.Auth, models.RoleManager, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return instrument(requireRole(service.Auth, models.RoleAdmin, h))
	}

	mux.HandleFunc("GET /health", instrument(HandleHealth))
	mux.HandleFunc("POST /login", instrument(authHandler.HandleLogin))
	mux.HandleFunc("POST /logout", viewer(authHandler.HandleLogout))

	mux.HandleFunc("GET /api/employees", viewer(employeeHandler.HandleList))
	mux.HandleFunc("POST /api/employee", manager(employeeHandler.HandleAdd))
	mux.HandleFunc("DELETE /api/employee/{id}", admin(employeeHandler.HandleDelete))
	mux.HandleFunc("POST /api/employee/{id}/add_entry", manager(employeeHandler.HandleAddEntry))
	mux.HandleFunc("POST /api/employee/{id}/reset_points", admin(employeeHandler.HandleResetPoints))
	mux.HandleFunc("POST /api/import_excel", manager(employeeHandler.HandleImport))

	mux.HandleFunc("POST /api/raffle/conduct", manager(raffleHandler.HandleConduct))
	mux.HandleFunc("POST /api/raffle/draw", manager(raffleHandler.HandleDraw))
	mux.HandleFunc("POST /api/raffle/record_winner", manager(raffleHandler.HandleRecordWinner))
	mux.HandleFunc("GET /api/raffle/history", viewer(raffleHandler.HandleHistory))
	mux.HandleFunc("GET /api/raffle/history.csv", viewer(raffleHandler.HandleHistoryCSV))

	mux.HandleFunc("GET /api/analytics/dashboard", viewer(adminHandler.HandleDashboard))
	mux.HandleFunc("POST /api/backup", admin(adminHandler.HandleBackup))
	mux.HandleFunc("POST /api/reset_all", admin(adminHandler.HandleResetAll))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
