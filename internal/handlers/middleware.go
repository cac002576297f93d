package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/metrics"
	"github.com/shrimpsizemoose/dragning/internal/models"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request duration per route pattern and logs the call.
func instrument(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		next(rec, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.APIRequestDuration.WithLabelValues(
			route,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(duration.Seconds())
		logger.Debug.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, duration)
	}
}

// requireRole rejects requests without a valid bearer token for at least
// the given role, and stores the token claims in the request context.
func requireRole(auth *app.Auth, role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := app.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := auth.ParseToken(r.Context(), raw)
		if err != nil {
			logger.Debug.Printf("Rejected token from %s: %v", clientIP(r), err)
			writeFailure(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		if err := app.Authorize(claims, role); err != nil {
			writeError(w, r, err)
			return
		}

		next(w, r.WithContext(app.WithClaims(r.Context(), claims)))
	}
}
