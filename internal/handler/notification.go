package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type NotificationHandler struct {
	store  *store.NotificationStore
	logger *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{store: ns, logger: logger}
}

// List returns the caller's notifications; ?unread=true filters to unread.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	list, err := h.store.ListByUser(auth.UserID(r.Context()), unread)
	if err != nil {
		internalError(w, h.logger, "failed to list notifications", err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	ok, err := h.store.MarkRead(id, auth.UserID(r.Context()), time.Now())
	if err != nil {
		internalError(w, h.logger, "failed to update notification", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
