package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/reading"
)

type QuizHandler struct {
	svc    *reading.Service
	logger *slog.Logger
}

func NewQuizHandler(svc *reading.Service, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{svc: svc, logger: logger}
}

func (h *QuizHandler) Status(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	qs, err := h.svc.QuizStatus(r.Context(), auth.UserID(r.Context()), bookID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

type quizRequest struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"total_questions"`
}

// Submit grades an attempt. Range checks are left to the quiz gate so the
// error kinds match the other entry points.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req quizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.svc.SubmitQuiz(r.Context(), auth.UserID(r.Context()), bookID, req.Score, req.TotalQuestions)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}
