package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"

	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/models"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrProductNotFound = errors.New("product not found")

	// ErrIngredientUnderspecified means a free-form ingredient is missing
	// its name or unit type; an ingredient either links a product or
	// describes itself.
	ErrIngredientUnderspecified = errors.New("ingredient needs a product_id, or a name and value_type")
)

type DBLayer interface {
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	ListActiveItems(ctx context.Context) ([]models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItemCost(ctx context.Context, id int64, cost float64) error
	AddIngredient(ctx context.Context, ing *models.Ingredient) error
	UpdateIngredient(ctx context.Context, ing models.Ingredient) error
	DeleteIngredient(ctx context.Context, id int64) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProductCosts(ctx context.Context, productIDs []int64) (map[int64]float64, error)
	CreateProduct(ctx context.Context, product *models.Product, valueType string) error
	UpdateProduct(ctx context.Context, product models.Product) error
}

type CatalogService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewCatalogService(db DBLayer, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, Logger: log}
}

// ---------------- COST AGGREGATION ----------------

// ItemCost sums ingredient quantity times unit cost. Free-form
// ingredients have no catalog product and contribute 0. The total is
// rounded to whole cents, which also makes it canonical regardless of
// the order the ingredient list is stored in.
func ItemCost(ingredients []models.Ingredient, unitCosts map[int64]float64) float64 {
	var total float64
	for _, ing := range ingredients {
		if ing.ProductID == 0 {
			continue
		}
		total += ing.Value * unitCosts[ing.ProductID]
	}
	return math.Round(total*100) / 100
}

// ComputeItemCost resolves current unit costs and aggregates them for one
// item's recipe.
func (s *CatalogService) ComputeItemCost(ctx context.Context, ingredients []models.Ingredient) (float64, error) {
	productIDs := make([]int64, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.ProductID != 0 {
			productIDs = append(productIDs, ing.ProductID)
		}
	}
	unitCosts, err := s.DB.GetProductCosts(ctx, productIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve product costs: %w", err)
	}
	return ItemCost(ingredients, unitCosts), nil
}

// ---------------- ITEMS ----------------

func (s *CatalogService) CreateItem(ctx context.Context, req models.ItemCreateRequest) (*models.Item, error) {
	item := &models.Item{
		Title:         req.Title,
		Description:   req.Description,
		IsActive:      true,
		ActualiseCost: req.ActualiseCost,
		Cost:          req.Cost,
	}
	for _, ing := range req.Ingredients {
		if ing.ProductID == 0 && (ing.Name == "" || ing.ValueTypeID == 0) {
			return nil, ErrIngredientUnderspecified
		}
		if ing.ProductID != 0 {
			product, err := s.DB.GetProductByID(ctx, ing.ProductID)
			if err != nil {
				return nil, err
			}
			if product == nil {
				return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, ing.ProductID)
			}
		}
		item.Ingredients = append(item.Ingredients, models.Ingredient{
			ProductID:   ing.ProductID,
			Name:        ing.Name,
			ValueTypeID: ing.ValueTypeID,
			Value:       ing.Value,
		})
	}

	if err := s.DB.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	if item.ActualiseCost {
		cost, err := s.ComputeItemCost(ctx, item.Ingredients)
		if err != nil {
			return nil, err
		}
		if err := s.DB.UpdateItemCost(ctx, item.ID, cost); err != nil {
			return nil, fmt.Errorf("failed to store recomputed cost: %w", err)
		}
		item.Cost = cost
	}

	s.Logger.LogDatabase("INSERT", "items", fmt.Sprintf("id=%d title=%s cost=%.2f", item.ID, item.Title, item.Cost))
	return item, nil
}

// GetItem returns the item with its cost actualised: recipe-priced items
// always reflect current ingredient unit costs.
func (s *CatalogService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.DB.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := s.actualise(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) ListActiveItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.DB.ListActiveItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err := s.actualise(ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *CatalogService) actualise(ctx context.Context, item *models.Item) error {
	if !item.ActualiseCost {
		return nil
	}
	cost, err := s.ComputeItemCost(ctx, item.Ingredients)
	if err != nil {
		return err
	}
	if cost != item.Cost {
		if err := s.DB.UpdateItemCost(ctx, item.ID, cost); err != nil {
			return fmt.Errorf("failed to store recomputed cost: %w", err)
		}
		item.Cost = cost
	}
	return nil
}

// ---------------- INGREDIENTS ----------------

func (s *CatalogService) AddIngredient(ctx context.Context, itemID int64, req models.IngredientRequest) (*models.Ingredient, error) {
	item, err := s.DB.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if req.ProductID == 0 && (req.Name == "" || req.ValueTypeID == 0) {
		return nil, ErrIngredientUnderspecified
	}

	ing := &models.Ingredient{
		ItemID:      itemID,
		ProductID:   req.ProductID,
		Name:        req.Name,
		ValueTypeID: req.ValueTypeID,
		Value:       req.Value,
	}
	if req.ProductID != 0 {
		product, err := s.DB.GetProductByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("%w: id=%d", ErrProductNotFound, req.ProductID)
		}
		if ing.Name == "" {
			ing.Name = product.Name
		}
		if ing.ValueTypeID == 0 {
			ing.ValueTypeID = product.ValueTypeID
		}
	}

	if err := s.DB.AddIngredient(ctx, ing); err != nil {
		return nil, fmt.Errorf("failed to add ingredient: %w", err)
	}
	return ing, nil
}

func (s *CatalogService) UpdateIngredient(ctx context.Context, ing models.Ingredient) error {
	return s.DB.UpdateIngredient(ctx, ing)
}

func (s *CatalogService) DeleteIngredient(ctx context.Context, id int64) error {
	return s.DB.DeleteIngredient(ctx, id)
}

// ---------------- PRODUCTS ----------------

func (s *CatalogService) CreateProduct(ctx context.Context, req models.ProductCreateRequest) (*models.Product, error) {
	product := &models.Product{Name: req.Name, Value: req.Value, CostPerOne: req.CostPerOne}
	if err := s.DB.CreateProduct(ctx, product, req.ValueType); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.DB.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.DB.ListProducts(ctx)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req models.ProductUpdateRequest) (*models.Product, error) {
	product, err := s.DB.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if req.Value != nil {
		product.Value = *req.Value
	}
	if req.CostPerOne != nil {
		product.CostPerOne = *req.CostPerOne
	}
	if err := s.DB.UpdateProduct(ctx, *product); err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return product, nil
}
