package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:order"`

	ID      int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID  string    `bun:"user_id,nullzero" json:"user_id,omitempty"`
	Cost    float64   `bun:"cost,notnull" json:"cost"`
	Date    time.Time `bun:"date,notnull" json:"date"`
	Comment string    `bun:"comment,nullzero" json:"comment,omitempty"`

	Items []OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID      int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderID int64   `bun:"order_id,notnull" json:"order_id"`
	ItemID  int64   `bun:"item_id,notnull" json:"item_id"`
	Count   float64 `bun:"count,notnull" json:"count"`

	Ingredients []OrderItemIngredient `bun:"rel:has-many,join:id=order_item_id" json:"ingredients,omitempty"`
}

// OrderItemIngredient is a per-order override of an item's recipe, e.g.
// "extra shot" on a coffee. It references a catalog product directly.
type OrderItemIngredient struct {
	bun.BaseModel `bun:"table:order_item_ingredients"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderItemID int64   `bun:"order_item_id,notnull" json:"order_item_id"`
	ProductID   int64   `bun:"product_id,notnull" json:"product_id"`
	Value       float64 `bun:"value,notnull" json:"value"`
}

type OrderItemRequest struct {
	ItemID      int64                    `json:"item_id"`
	Count       float64                  `json:"count"`
	Ingredients []OrderIngredientRequest `json:"ingredients,omitempty"`
}

type OrderIngredientRequest struct {
	ProductID int64   `json:"product_id"`
	Value     float64 `json:"value"`
}

type OrderCreateRequest struct {
	UserID  string             `json:"user_id,omitempty"`
	Comment string             `json:"comment,omitempty"`
	Items   []OrderItemRequest `json:"items"`
}
