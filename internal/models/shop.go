package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Shop struct {
	bun.BaseModel `bun:"table:shops"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,unique,notnull" json:"name"`
	Address string `bun:"address,nullzero" json:"address,omitempty"`
}

type ShopProduct struct {
	bun.BaseModel `bun:"table:shop_products"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ShopID    int64     `bun:"shop_id,notnull" json:"shop_id"`
	ProductID int64     `bun:"product_id,notnull" json:"product_id"`
	AddedAt   time.Time `bun:"added_at,notnull" json:"added_at"`
}
