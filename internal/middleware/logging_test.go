package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})))
		req := httptest.NewRequest("GET", "/api/me", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		if line["level"] != tt.level {
			t.Errorf("status %d: level = %v, want %s", tt.status, line["level"], tt.level)
		}
		if line["status"] != float64(tt.status) {
			t.Errorf("status = %v, want %d", line["status"], tt.status)
		}
		if line["path"] != "/api/me" {
			t.Errorf("path = %v, want /api/me", line["path"])
		}
		if id, _ := line["request_id"].(string); id == "" {
			t.Error("expected request_id in log line")
		}
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Metrics(mux)

	req := httptest.NewRequest("GET", "/api/books/12", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if req.Pattern != "GET /api/books/{id}" {
		t.Errorf("pattern = %q, want %q", req.Pattern, "GET /api/books/{id}")
	}

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "pagequest_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n < 1 {
		t.Errorf("series = %d, want at least 1", n)
	}
}
