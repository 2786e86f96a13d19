package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/engagement"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type UserHandler struct {
	stores *store.Stores
	logger *slog.Logger
}

func NewUserHandler(st *store.Stores, logger *slog.Logger) *UserHandler {
	return &UserHandler{stores: st, logger: logger}
}

type statsResponse struct {
	User          *model.User                 `json:"user"`
	Level         engagement.LevelView        `json:"level"`
	Achievements  []store.EarnedAchievement   `json:"achievements"`
	ActiveSession *model.ActiveReadingSession `json:"active_session,omitempty"`
}

func (h *UserHandler) stats(u *model.User) (*statsResponse, error) {
	earned, err := h.stores.Achievements.ListEarned(u.ID)
	if err != nil {
		return nil, err
	}
	if earned == nil {
		earned = []store.EarnedAchievement{}
	}
	active, err := h.stores.Active.GetByUser(u.ID)
	if err != nil {
		return nil, err
	}
	return &statsResponse{
		User:          u,
		Level:         engagement.LevelFor(u.TotalMinutes),
		Achievements:  earned,
		ActiveSession: active,
	}, nil
}

// Me returns the caller's totals, level and earned achievements.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.stores.Users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		internalError(w, h.logger, "failed to load user", err)
		return
	}
	if u == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	resp, err := h.stats(u)
	if err != nil {
		internalError(w, h.logger, "failed to load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListChildren returns the caller's children with their stats.
func (h *UserHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.stores.Users.ListChildren(auth.UserID(r.Context()))
	if err != nil {
		internalError(w, h.logger, "failed to list children", err)
		return
	}

	out := make([]*statsResponse, 0, len(children))
	for i := range children {
		resp, err := h.stats(&children[i])
		if err != nil {
			internalError(w, h.logger, "failed to load stats", err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

type childRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (h *UserHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.ToLower(req.Username)

	existing, err := h.stores.Users.GetByUsername(username)
	if err != nil {
		internalError(w, h.logger, "failed to create child", err)
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username is taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(w, h.logger, "failed to create child", err)
		return
	}

	parentID := auth.UserID(r.Context())
	child, err := h.stores.Users.Create(username, strings.TrimSpace(req.Name), string(hash), model.RoleChild, &parentID, "")
	if err != nil {
		internalError(w, h.logger, "failed to create child", err)
		return
	}

	h.logger.Info("child created", "parent_id", parentID, "child_id", child.ID)
	writeJSON(w, http.StatusCreated, child)
}

// childOf returns the child only if it belongs to parentID.
func childOf(users *store.UserStore, parentID, childID int64) (*model.User, error) {
	child, err := users.GetByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil || child.Role != model.RoleChild || child.ParentID == nil || *child.ParentID != parentID {
		return nil, nil
	}
	return child, nil
}
