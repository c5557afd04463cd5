package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/auth"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
	"loyalty-backend/internal/order"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Orders placed by a signed-in customer get their user id attached so
	// the order history endpoint can find them.
	if userID, ok := auth.UserIDFromContext(r.Context()); ok && req.UserID == "" {
		req.UserID = userID
	}

	created, err := h.OrderService.CreateOrder(r.Context(), req)
	if err != nil {
		if errors.Is(err, order.ErrEmptyOrder) || errors.Is(err, order.ErrItemNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
		http.Error(w, "Failed to create order: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to encode response: %v", err))
	}
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.OrderService.GetOrder(r.Context(), id)
	if err != nil {
		h.writeOrderError(w, "GetOrder", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(o); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
	}
}

func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.OrderService.GetUserOrders(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMyOrders: %v", err))
		http.Error(w, "Failed to list orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMyOrders: failed to encode response: %v", err))
	}
}

// GetUserOrders lists any user's order history by path parameter, for
// back-office lookups. Customers use /orders/mine instead.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	orders, err := h.OrderService.GetUserOrders(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUserOrders: %v", err))
		http.Error(w, "Failed to list orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(orders); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetUserOrders: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	if err := h.OrderService.DeleteOrder(r.Context(), id); err != nil {
		h.writeOrderError(w, "DeleteOrder", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeOrderError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, order.ErrOrderNotFound) {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	http.Error(w, "Order operation failed: "+err.Error(), http.StatusInternalServerError)
}
