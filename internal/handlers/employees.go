package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/models"
)

type EmployeeHandler struct {
	service *app.Service
}

func NewEmployeeHandler(service *app.Service) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

func (h *EmployeeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"employees": employees,
	})
}

func (h *EmployeeHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req models.NewEmployee
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	employee, err := h.service.AddEmployee(r.Context(), actorFor(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"message":  fmt.Sprintf("Added %s", employee.Name),
		"employee": employee,
	})
}

func (h *EmployeeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	employee, err := h.service.DeleteEmployee(r.Context(), actorFor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Removed %s", employee.Name),
	})
}

func (h *EmployeeHandler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	req := models.AwardRequest{EntriesAwarded: 1}
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newTotal, err := h.service.AwardEntries(r.Context(), actorFor(r), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Added %d entries for %s", req.EntriesAwarded, req.ActivityName),
		"new_total": newTotal,
	})
}

func (h *EmployeeHandler) HandleResetPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeFailure(w, http.StatusBadRequest, "Invalid employee id")
		return
	}

	oldTotal, err := h.service.ResetEntries(r.Context(), actorFor(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Reset %d entries", oldTotal),
		"old_total": oldTotal,
	})
}

func (h *EmployeeHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.Config.Server.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %d byte upload limit", tooLarge.Limit))
			return
		}
		writeFailure(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeFailure(w, http.StatusBadRequest, "No file selected")
		return
	}

	report, err := h.service.ImportSpreadsheet(r.Context(), actorFor(r), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Success {
		logger.Info.Printf("Import of %s failed: %v", header.Filename, report.Errors)
		status = http.StatusBadRequest
	}
	writeJSON(w, status, report)
}
