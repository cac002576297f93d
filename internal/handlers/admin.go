package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/dragning/internal/app"
)

type AdminHandler struct {
	service *app.Service
}

func NewAdminHandler(service *app.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"dashboard": dashboard,
	})
}

func (h *AdminHandler) HandleBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.Backup(r.Context(), actorFor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Backup created",
		"backup_path": path,
	})
}

func (h *AdminHandler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.ResetAll(r.Context(), actorFor(r), req.Confirmation)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"message":         "All employee data has been reset",
		"employees_reset": report.Deactivated,
		"backup_path":     report.BackupPath,
	})
}
