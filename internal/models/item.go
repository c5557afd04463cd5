package models

import (
	"github.com/uptrace/bun"
)

type Item struct {
	bun.BaseModel `bun:"table:items,alias:item"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Title       string `bun:"title,unique,notnull" json:"title"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
	IsActive    bool   `bun:"is_active,notnull" json:"is_active"`

	// ActualiseCost switches the item to recipe-driven pricing: whenever
	// true, Cost is recomputed from the ingredient list on read instead of
	// being a manually set price.
	ActualiseCost bool    `bun:"actualise_cost,notnull" json:"actualise_cost"`
	Cost          float64 `bun:"cost,notnull" json:"cost"`

	Ingredients []Ingredient `bun:"rel:has-many,join:id=item_id" json:"ingredients"`
}

// Ingredient either references a catalog product (ProductID set) or is a
// free-form entry (Name + ValueTypeID set, no product link, zero unit cost).
type Ingredient struct {
	bun.BaseModel `bun:"table:ingredients"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	ItemID      int64   `bun:"item_id,notnull" json:"item_id"`
	ProductID   int64   `bun:"product_id,nullzero" json:"product_id,omitempty"`
	Name        string  `bun:"name,nullzero" json:"name,omitempty"`
	ValueTypeID int64   `bun:"value_type_id,nullzero" json:"value_type_id,omitempty"`
	Value       float64 `bun:"value,notnull" json:"value"`
}

type IngredientRequest struct {
	ProductID   int64   `json:"product_id,omitempty"`
	Name        string  `json:"name,omitempty"`
	ValueTypeID int64   `json:"value_type_id,omitempty"`
	Value       float64 `json:"value"`
}

type ItemCreateRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Cost          float64             `json:"cost"`
	ActualiseCost bool                `json:"actualise_cost"`
	Ingredients   []IngredientRequest `json:"ingredients,omitempty"`
}
