package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ItemID    int64     `bun:"item_id,notnull" json:"item_id"`
	UserID    string    `bun:"user_id,nullzero" json:"user_id,omitempty"`
	Text      string    `bun:"text,notnull" json:"text"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CommentCreateRequest struct {
	ItemID int64  `json:"item_id"`
	Text   string `json:"text"`
}
