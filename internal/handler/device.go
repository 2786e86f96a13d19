package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/reading"
	"github.com/dukerupert/pagequest/internal/store"
	"github.com/dukerupert/pagequest/internal/websocket"
)

type DeviceHandler struct {
	stores *store.Stores
	svc    *reading.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewDeviceHandler(st *store.Stores, svc *reading.Service, hub *websocket.Hub, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{stores: st, svc: svc, hub: hub, logger: logger}
}

type deviceEventRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	Status string `json:"status" validate:"required"`
}

// Event applies an open/close report from a device. Open streams of the
// same child are told about the result.
func (h *DeviceHandler) Event(w http.ResponseWriter, r *http.Request) {
	var req deviceEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	childID := auth.UserID(r.Context())
	res, err := h.svc.HandleEvent(r.Context(), childID, req.Title, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.hub != nil {
		h.hub.Publish(childID, websocket.ResultMessage(res))
	}
	writeJSON(w, http.StatusOK, res)
}

// ListTokens returns device tokens for all of the caller's children.
func (h *DeviceHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	children, err := h.stores.Users.ListChildren(auth.UserID(r.Context()))
	if err != nil {
		internalError(w, h.logger, "failed to list device tokens", err)
		return
	}

	tokens := []model.DeviceToken{}
	for _, c := range children {
		list, err := h.stores.DeviceTokens.ListByChild(c.ID)
		if err != nil {
			internalError(w, h.logger, "failed to list device tokens", err)
			return
		}
		tokens = append(tokens, list...)
	}
	writeJSON(w, http.StatusOK, tokens)
}

type issueTokenRequest struct {
	ChildID int64  `json:"child_id" validate:"required,gt=0"`
	Name    string `json:"name" validate:"required,max=100"`
}

type issuedToken struct {
	*model.DeviceToken
	Token string `json:"token"`
}

// IssueToken creates a device token for a child. The raw token is only
// ever returned here.
func (h *DeviceHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parentID := auth.UserID(r.Context())
	child, err := childOf(h.stores.Users, parentID, req.ChildID)
	if err != nil {
		internalError(w, h.logger, "failed to issue device token", err)
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	tok, raw, err := h.stores.DeviceTokens.Create(child.ID, req.Name)
	if err != nil {
		internalError(w, h.logger, "failed to issue device token", err)
		return
	}
	h.logger.Info("device token issued", "child_id", child.ID, "device", tok.PublicID)
	writeJSON(w, http.StatusCreated, issuedToken{DeviceToken: tok, Token: raw})
}

// RevokeToken disables a device token by its public ID.
func (h *DeviceHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	publicID := r.PathValue("id")
	if _, err := uuid.Parse(publicID); err != nil {
		badRequest(w, "invalid device id")
		return
	}

	tok, err := h.stores.DeviceTokens.GetByPublicID(publicID)
	if err != nil {
		internalError(w, h.logger, "failed to revoke device token", err)
		return
	}
	var child *model.User
	if tok != nil {
		if child, err = childOf(h.stores.Users, auth.UserID(r.Context()), tok.ChildID); err != nil {
			internalError(w, h.logger, "failed to revoke device token", err)
			return
		}
	}
	if tok == nil || child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}

	if _, err := h.stores.DeviceTokens.Revoke(publicID, time.Now()); err != nil {
		internalError(w, h.logger, "failed to revoke device token", err)
		return
	}
	h.logger.Info("device token revoked", "child_id", tok.ChildID, "device", publicID)
	w.WriteHeader(http.StatusNoContent)
}
