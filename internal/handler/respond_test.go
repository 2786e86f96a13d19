package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/pagequest/internal/reading"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{reading.ErrInvalidInput, http.StatusBadRequest},
		{reading.ErrPreconditionFailed, http.StatusBadRequest},
		{reading.ErrOnCooldown, http.StatusBadRequest},
		{reading.ErrInsufficientPoints, http.StatusBadRequest},
		{reading.ErrNotFound, http.StatusNotFound},
		{reading.ErrForbidden, http.StatusForbidden},
		{reading.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteErrorDetail(t *testing.T) {
	retry := time.Date(2026, 6, 10, 6, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	writeError(rec, discardLogger(), &reading.Error{Kind: reading.ErrOnCooldown, Message: "quiz on cooldown", RetryAt: &retry})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "quiz on cooldown" {
		t.Errorf("error = %v", body["error"])
	}
	if body["retry_at"] != "2026-06-10T06:00:00Z" {
		t.Errorf("retry_at = %v", body["retry_at"])
	}

	rec = httptest.NewRecorder()
	writeError(rec, discardLogger(), &reading.Error{Kind: reading.ErrInsufficientPoints, Message: "not enough points", Shortfall: 12})
	body = nil
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["shortfall"] != float64(12) {
		t.Errorf("shortfall = %v, want 12", body["shortfall"])
	}
}

func TestWriteErrorHidesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, discardLogger(), errors.New("sqlite: disk I/O error"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "sqlite") {
		t.Errorf("body leaks internal error: %s", rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		body string
		ok   bool
		msg  string
	}{
		{`{"title":"Matilda","page_count":240}`, true, ""},
		{`{"title":`, false, "invalid JSON"},
		{`{"page_count":10}`, false, "title is required"},
		{`{"title":"Matilda","page_count":-1}`, false, "page_count must be at least 0"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		var br bookRequest
		ok := decodeJSON(rec, req, &br)
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, want %v", tt.body, ok, tt.ok)
			continue
		}
		if tt.ok {
			continue
		}
		var body map[string]string
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body["error"] != tt.msg {
			t.Errorf("%s: error = %q, want %q", tt.body, body["error"], tt.msg)
		}
	}
}
