package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/event"
	"loyalty-backend/internal/event/rules"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
	"loyalty-backend/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *event.Service
	Logger       *logger.Logger
}

func NewHandler(eventService *event.Service, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
}

func (h *Handler) CreateAkce(w http.ResponseWriter, r *http.Request) {
	var req models.EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAkce: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Akce title is required", http.StatusBadRequest)
		return
	}

	created, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAkce: %v", err))
		if errors.Is(err, rules.ErrUnknownContrast) || errors.Is(err, rules.ErrUnknownAction) {
			http.Error(w, "Failed to create akce: "+err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create akce: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateAkce: failed to encode response: %v", err))
	}
}

func (h *Handler) GetActiveAkce(w http.ResponseWriter, r *http.Request) {
	h.listAkce(w, r, true)
}

func (h *Handler) GetAllAkce(w http.ResponseWriter, r *http.Request) {
	h.listAkce(w, r, false)
}

func (h *Handler) listAkce(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	events, err := h.EventService.ListEvents(r.Context(), activeOnly)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAkce: %v", err))
		http.Error(w, "Failed to list akce: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAkce: failed to encode response: %v", err))
	}
}

func (h *Handler) GetAkce(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "akceId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid akce id", http.StatusBadRequest)
		return
	}

	akce, err := h.EventService.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			http.Error(w, "Akce not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetAkce: %v", err))
		http.Error(w, "Failed to get akce: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(akce); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAkce: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteAkce(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "akceId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid akce id", http.StatusBadRequest)
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			http.Error(w, "Akce not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteAkce: %v", err))
		http.Error(w, "Failed to delete akce: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyAkce applies a batch of promotions to a card/order pair. The whole
// batch either commits or leaves card and order untouched.
func (h *Handler) ApplyAkce(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyEventsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApplyAkce: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.EventIDs) == 0 {
		http.Error(w, "akce_ids must not be empty", http.StatusBadRequest)
		return
	}

	order, err := h.EventService.ApplyEvents(r.Context(), req.CardID, req.OrderID, req.EventIDs)
	if err != nil {
		h.writeApplyError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(utils.SuccessResponse("akce applied", order)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApplyAkce: failed to encode response: %v", err))
	}
}

func (h *Handler) writeApplyError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var criterionErr *rules.CriterionError
	switch {
	case errors.Is(err, event.ErrCardNotFound),
		errors.Is(err, event.ErrOrderNotFound),
		errors.Is(err, event.ErrEventNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.As(err, &criterionErr),
		errors.Is(err, rules.ErrInsufficientBalance):
		// Expected business outcome, not a fault.
		w.WriteHeader(http.StatusUnprocessableEntity)
	case errors.Is(err, event.ErrLocked):
		w.WriteHeader(http.StatusConflict)
	default:
		h.Logger.Error("API", fmt.Sprintf("ApplyAkce: %v", err))
		w.WriteHeader(http.StatusInternalServerError)
	}

	_ = json.NewEncoder(w).Encode(utils.ErrorResponse("akce application failed", err.Error()))
}
