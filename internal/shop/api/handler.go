package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
	"loyalty-backend/internal/shop/db"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	DB     *db.DB
	Logger *logger.Logger
}

func NewHandler(shopDB *db.DB, log *logger.Logger) *Handler {
	return &Handler{DB: shopDB, Logger: log}
}

func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var shop models.Shop
	if err := json.NewDecoder(r.Body).Decode(&shop); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if shop.Name == "" {
		http.Error(w, "Shop name is required", http.StatusBadRequest)
		return
	}
	shop.ID = 0

	if err := h.DB.CreateShop(r.Context(), &shop); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateShop: %v", err))
		http.Error(w, "Failed to create shop: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(shop); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateShop: failed to encode response: %v", err))
	}
}

func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shopId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shop id", http.StatusBadRequest)
		return
	}

	shop, err := h.DB.GetShopByID(r.Context(), id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetShop: %v", err))
		http.Error(w, "Failed to load shop: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if shop == nil {
		http.Error(w, "Shop not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(shop); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetShop: failed to encode response: %v", err))
	}
}

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.DB.ListShops(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListShops: %v", err))
		http.Error(w, "Failed to list shops: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(shops); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListShops: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shopId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shop id", http.StatusBadRequest)
		return
	}

	deleted, err := h.DB.DeleteShop(r.Context(), id)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteShop: %v", err))
		http.Error(w, "Failed to delete shop: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Shop not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LinkProduct(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shop id", http.StatusBadRequest)
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	shop, err := h.DB.GetShopByID(r.Context(), shopID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LinkProduct: %v", err))
		http.Error(w, "Failed to load shop: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if shop == nil {
		http.Error(w, "Shop not found", http.StatusNotFound)
		return
	}

	link, err := h.DB.LinkProduct(r.Context(), shopID, req.ProductID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LinkProduct: %v", err))
		http.Error(w, "Failed to link product: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(link); err != nil {
		h.Logger.Error("API", fmt.Sprintf("LinkProduct: failed to encode response: %v", err))
	}
}

func (h *Handler) ListShopProducts(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(chi.URLParam(r, "shopId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shop id", http.StatusBadRequest)
		return
	}

	links, err := h.DB.ListShopProducts(r.Context(), shopID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListShopProducts: %v", err))
		http.Error(w, "Failed to list shop products: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(links); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListShopProducts: failed to encode response: %v", err))
	}
}
