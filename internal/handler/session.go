package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/reading"
)

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 500
)

type SessionHandler struct {
	svc    *reading.Service
	logger *slog.Logger
}

func NewSessionHandler(svc *reading.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logger}
}

// List returns reading history, newest first. ?user_id= lets a parent read
// a child's history.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID := auth.UserID(r.Context())
	userID, err := queryID(r, "user_id")
	if err != nil {
		badRequest(w, "invalid user_id")
		return
	}
	if userID == 0 {
		userID = actorID
	}

	limit := defaultSessionLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := h.svc.ListSessions(r.Context(), actorID, userID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sessions == nil {
		sessions = []model.ReadingSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type sessionRequest struct {
	BookID          int64     `json:"book_id" validate:"required,gt=0"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

// Create records a manually timed session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.CreateSession(r.Context(), auth.UserID(r.Context()), reading.CreateSessionInput{
		BookID:          req.BookID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := h.svc.DeleteSession(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
