package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type AchievementHandler struct {
	stores *store.Stores
	logger *slog.Logger
}

func NewAchievementHandler(st *store.Stores, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{stores: st, logger: logger}
}

type catalogEntry struct {
	model.Achievement
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// List returns the whole catalog with the caller's earned flags.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.stores.Achievements.List()
	if err != nil {
		internalError(w, h.logger, "failed to list achievements", err)
		return
	}
	earned, err := h.stores.Achievements.ListEarned(auth.UserID(r.Context()))
	if err != nil {
		internalError(w, h.logger, "failed to list achievements", err)
		return
	}

	at := make(map[int64]time.Time, len(earned))
	for _, e := range earned {
		at[e.ID] = e.EarnedAt
	}

	out := make([]catalogEntry, 0, len(catalog))
	for _, a := range catalog {
		entry := catalogEntry{Achievement: a}
		if t, ok := at[a.ID]; ok {
			entry.Earned = true
			entry.EarnedAt = &t
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}
