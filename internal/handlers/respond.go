package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/raffle"
	"github.com/shrimpsizemoose/dragning/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// writeError maps a service error to a status code. Anything unrecognised
// is logged and reported as a generic failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, raffle.ErrEmptyPool):
		writeFailure(w, http.StatusBadRequest, "No eligible employees found")
	case errors.Is(err, app.ErrValidation):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrUnauthorized):
		writeFailure(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeFailure(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrInvalidWinner):
		writeFailure(w, http.StatusNotFound, "Winner is not an active employee")
	case errors.Is(err, store.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Employee not found")
	case errors.Is(err, store.ErrConflict):
		writeFailure(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrBackupUnsupported):
		writeFailure(w, http.StatusNotImplemented, "Backups are not supported for this database")
	default:
		logger.Error.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func actorFor(r *http.Request) app.Actor {
	claims, _ := app.ClaimsFrom(r.Context())
	return app.ActorFromClaims(claims, clientIP(r), r.UserAgent())
}
