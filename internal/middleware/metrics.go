package middleware

import (
	"net/http"
	"time"

	"github.com/dukerupert/pagequest/internal/metrics"
)

// Metrics records request counts and latency per route pattern. It must
// wrap the ServeMux directly so the matched pattern is visible afterwards.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
	})
}
