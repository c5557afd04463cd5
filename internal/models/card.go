package models

import (
	"github.com/uptrace/bun"
)

type BonusCard struct {
	bun.BaseModel `bun:"table:bonus_cards"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	UserID     string `bun:"user_id,nullzero" json:"user_id,omitempty"`
	Phone      string `bun:"phone,unique,notnull" json:"phone"`
	Count      int    `bun:"count" json:"count"`
	UsedPoints int    `bun:"used_points" json:"used_points"`
}

type CardCreateRequest struct {
	Phone string `json:"phone"`
}

// CardUpdateRequest carries partial updates. AddingBonus is added on top of
// the current count, it never replaces it.
type CardUpdateRequest struct {
	Phone       *string `json:"phone,omitempty"`
	UserID      *string `json:"user_id,omitempty"`
	AddingBonus int     `json:"adding_bonus"`
}
