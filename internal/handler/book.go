package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/pagequest/internal/auth"
	"github.com/dukerupert/pagequest/internal/model"
	"github.com/dukerupert/pagequest/internal/store"
)

type BookHandler struct {
	stores *store.Stores
	logger *slog.Logger
}

func NewBookHandler(st *store.Stores, logger *slog.Logger) *BookHandler {
	return &BookHandler{stores: st, logger: logger}
}

// List returns the caller's books. A parent passes ?child_id= for one
// child's shelf, or gets the family's pending requests without it.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	status := model.BookStatus(strings.ToUpper(r.URL.Query().Get("status")))
	switch status {
	case "", model.BookPending, model.BookApproved, model.BookRejected:
	default:
		badRequest(w, "status must be PENDING, APPROVED or REJECTED")
		return
	}

	childID, err := queryID(r, "child_id")
	if err != nil {
		badRequest(w, "invalid child_id")
		return
	}

	var books []model.Book
	switch {
	case ac.Role == model.RoleParent && childID == 0:
		books, err = h.stores.Books.ListPendingForParent(ac.UserID)
	case ac.Role == model.RoleParent:
		child, cerr := childOf(h.stores.Users, ac.UserID, childID)
		if cerr != nil {
			internalError(w, h.logger, "failed to list books", cerr)
			return
		}
		if child == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
			return
		}
		books, err = h.stores.Books.ListByUser(child.ID, status)
	default:
		books, err = h.stores.Books.ListByUser(ac.UserID, status)
	}
	if err != nil {
		internalError(w, h.logger, "failed to list books", err)
		return
	}
	if books == nil {
		books = []model.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

type bookRequest struct {
	Title     string `json:"title" validate:"required,max=300"`
	Author    string `json:"author" validate:"max=200"`
	PageCount int    `json:"page_count" validate:"gte=0,lte=100000"`
}

// Create records a child's request to read a book. It starts PENDING.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		badRequest(w, "title is required")
		return
	}

	book, err := h.stores.Books.Create(auth.UserID(r.Context()), req.Title, strings.TrimSpace(req.Author), req.PageCount, model.BookPending)
	if err != nil {
		internalError(w, h.logger, "failed to create book", err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.BookApproved)
}

func (h *BookHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.BookRejected)
}

func (h *BookHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.BookStatus) {
	id, err := parseIDParam(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}

	book, err := h.stores.Books.GetByID(id)
	if err != nil {
		internalError(w, h.logger, "failed to get book", err)
		return
	}
	var child *model.User
	if book != nil {
		child, err = childOf(h.stores.Users, auth.UserID(r.Context()), book.UserID)
		if err != nil {
			internalError(w, h.logger, "failed to get book", err)
			return
		}
	}
	// Books of other families are indistinguishable from missing ones.
	if book == nil || child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not found"})
		return
	}

	if book.Status != status {
		if err := h.stores.Books.UpdateStatus(id, status); err != nil {
			internalError(w, h.logger, "failed to update book", err)
			return
		}
		book.Status = status
		h.logger.Info("book reviewed", "book_id", id, "status", status)
	}
	writeJSON(w, http.StatusOK, book)
}
