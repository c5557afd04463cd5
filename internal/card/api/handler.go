package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/auth"
	"loyalty-backend/internal/card"
	"loyalty-backend/internal/card/qr"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CardService *card.CardService
	QR          *qr.QRGenerator
	Logger      *logger.Logger
}

func NewHandler(cardService *card.CardService, qrGen *qr.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{CardService: cardService, QR: qrGen, Logger: log}
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Phone == "" {
		http.Error(w, "Phone number is required", http.StatusBadRequest)
		return
	}

	created, err := h.CardService.CreateCard(r.Context(), req)
	if err != nil {
		if errors.Is(err, card.ErrPhoneTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateCard: %v", err))
		http.Error(w, "Failed to create card: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCard: failed to encode response: %v", err))
	}
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	c, err := h.CardService.GetCard(r.Context(), id)
	if err != nil {
		h.writeCardError(w, "GetCard", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCard: failed to encode response: %v", err))
	}
}

func (h *Handler) GetCardByPhone(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	c, err := h.CardService.GetCardByPhone(r.Context(), phone)
	if err != nil {
		h.writeCardError(w, "GetCardByPhone", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCardByPhone: failed to encode response: %v", err))
	}
}

// GetMyCard resolves the caller's card: user link first, phone fallback
// via the optional ?phone= query parameter.
func (h *Handler) GetMyCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	c, err := h.CardService.GetCardForUser(r.Context(), userID, r.URL.Query().Get("phone"))
	if err != nil {
		h.writeCardError(w, "GetMyCard", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMyCard: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	var req models.CardUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.CardService.UpdateCard(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, card.ErrNegativeBonus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeCardError(w, "UpdateCard", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateCard: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	if err := h.CardService.DeleteCard(r.Context(), id); err != nil {
		h.writeCardError(w, "DeleteCard", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCardQR returns a PNG QR code for the card, scannable at the till.
func (h *Handler) GetCardQR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	c, err := h.CardService.GetCard(r.Context(), id)
	if err != nil {
		h.writeCardError(w, "GetCardQR", err)
		return
	}

	png, err := h.QR.GenerateEncryptedQR(*c)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCardQR: failed to generate QR: %v", err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCardQR: failed to write response: %v", err))
	}
}

func (h *Handler) writeCardError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, card.ErrCardNotFound) {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	http.Error(w, "Card operation failed: "+err.Error(), http.StatusInternalServerError)
}
