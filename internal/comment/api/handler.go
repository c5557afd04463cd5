package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/auth"
	"loyalty-backend/internal/comment/db"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	DB     *db.DB
	Logger *logger.Logger
}

func NewHandler(commentDB *db.DB, log *logger.Logger) *Handler {
	return &Handler{DB: commentDB, Logger: log}
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req models.CommentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" || req.ItemID == 0 {
		http.Error(w, "Comment text and item_id are required", http.StatusBadRequest)
		return
	}

	comment := models.Comment{ItemID: req.ItemID, Text: req.Text}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		comment.UserID = userID
	}

	if err := h.DB.CreateComment(r.Context(), &comment); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateComment: %v", err))
		http.Error(w, "Failed to create comment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(comment); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateComment: failed to encode response: %v", err))
	}
}

func (h *Handler) ListItemComments(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	comments, err := h.DB.ListCommentsForItem(r.Context(), itemID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListItemComments: %v", err))
		http.Error(w, "Failed to list comments: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(comments); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListItemComments: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment id", http.StatusBadRequest)
		return
	}

	deleted, err := h.DB.DeleteComment(r.Context(), id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteComment: %v", err))
		http.Error(w, "Failed to delete comment: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Comment not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
