package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"loyalty-backend/internal/catalog"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog *catalog.CatalogService
	Logger  *logger.Logger
}

func NewHandler(svc *catalog.CatalogService, log *logger.Logger) *Handler {
	return &Handler{Catalog: svc, Logger: log}
}

// ---------------- ITEMS ----------------

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Item title is required", http.StatusBadRequest)
		return
	}

	item, err := h.Catalog.CreateItem(r.Context(), req)
	if err != nil {
		if errors.Is(err, catalog.ErrIngredientUnderspecified) || errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateItem: %v", err))
		http.Error(w, "Failed to create item: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(item); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateItem: failed to encode response: %v", err))
	}
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	item, err := h.Catalog.GetItem(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, "GetItem", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(item); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetItem: failed to encode response: %v", err))
	}
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListActiveItems(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListItems: %v", err))
		http.Error(w, "Failed to list items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(items); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListItems: failed to encode response: %v", err))
	}
}

// ---------------- INGREDIENTS ----------------

func (h *Handler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	var req models.IngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ing, err := h.Catalog.AddIngredient(r.Context(), itemID, req)
	if err != nil {
		if errors.Is(err, catalog.ErrIngredientUnderspecified) || errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeCatalogError(w, "AddIngredient", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ing); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddIngredient: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ingredientId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ingredient id", http.StatusBadRequest)
		return
	}

	var req models.IngredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ing := models.Ingredient{
		ID:          id,
		ProductID:   req.ProductID,
		Name:        req.Name,
		ValueTypeID: req.ValueTypeID,
		Value:       req.Value,
	}
	if err := h.Catalog.UpdateIngredient(r.Context(), ing); err != nil {
		h.writeCatalogError(w, "UpdateIngredient", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ing); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateIngredient: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ingredientId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ingredient id", http.StatusBadRequest)
		return
	}

	if err := h.Catalog.DeleteIngredient(r.Context(), id); err != nil {
		h.writeCatalogError(w, "DeleteIngredient", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---------------- PRODUCTS ----------------

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ValueType == "" {
		http.Error(w, "Product name and value_type are required", http.StatusBadRequest)
		return
	}

	product, err := h.Catalog.CreateProduct(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateProduct: %v", err))
		http.Error(w, "Failed to create product: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(product); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateProduct: failed to encode response: %v", err))
	}
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, "GetProduct", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(product); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetProduct: failed to encode response: %v", err))
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		http.Error(w, "Failed to list products: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(products); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	var req models.ProductUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	product, err := h.Catalog.UpdateProduct(r.Context(), id, req)
	if err != nil {
		h.writeCatalogError(w, "UpdateProduct", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(product); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProduct: failed to encode response: %v", err))
	}
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, catalog.ErrItemNotFound) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, catalog.ErrProductNotFound) {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	http.Error(w, "Catalog operation failed: "+err.Error(), http.StatusInternalServerError)
}
