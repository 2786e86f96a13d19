package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/reading"
	"github.com/dukerupert/pagequest/internal/store"
)

type RewardHandler struct {
	stores *store.Stores
	svc    *reading.Service
	logger *slog.Logger
}

func NewRewardHandler(st *store.Stores, svc *reading.Service, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{stores: st, svc: svc, logger: logger}
}

type rewardRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	PointsCost  int    `json:"points_cost" validate:"required,gt=0"`
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		badRequest(w, "title is required")
		return
	}

	reward, err := h.stores.Rewards.Create(auth.UserID(r.Context()), req.Title, strings.TrimSpace(req.Description), req.PointsCost)
	if err != nil {
		internalError(w, h.logger, "failed to create reward", err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

// List returns the rewards offered in the caller's family.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards := []model.Reward{}
	if family := auth.FamilyID(r.Context()); family != 0 {
		list, err := h.stores.Rewards.ListByParent(family)
		if err != nil {
			internalError(w, h.logger, "failed to list rewards", err)
			return
		}
		if list != nil {
			rewards = list
		}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}

	existing, err := h.stores.Rewards.GetByID(id)
	if err != nil {
		internalError(w, h.logger, "failed to get reward", err)
		return
	}
	if existing == nil || existing.ParentID != auth.UserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}

	if err := h.stores.Rewards.Delete(id); err != nil {
		internalError(w, h.logger, "failed to delete reward", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Redeem spends the child's points on a reward.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	ur, err := h.svc.Redeem(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ur)
}

// ListUserRewards returns a child's own redemptions, or for a parent every
// redemption in the family.
func (h *RewardHandler) ListUserRewards(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var (
		list []model.UserReward
		err  error
	)
	if ac.Role == model.RoleParent {
		list, err = h.stores.Rewards.ListUserRewardsByParent(ac.UserID)
	} else {
		list, err = h.stores.Rewards.ListUserRewardsByUser(ac.UserID)
	}
	if err != nil {
		internalError(w, h.logger, "failed to list redemptions", err)
		return
	}
	if list == nil {
		list = []model.UserReward{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Complete marks a redemption as delivered.
func (h *RewardHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	ur, err := h.svc.CompleteReward(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ur)
}
