package models

import (
	"github.com/uptrace/bun"
)

// Contrast kinds a criterion can carry. The evaluator fails closed on
// anything outside this set.
const (
	ContrastGreater     = "greater"      // card.count > value
	ContrastGreaterAll  = "greater_all"  // card.count + card.used_points > value
	ContrastItemsCount  = "items_count"  // len(order.items) >= value
	ContrastItemDefined = "item_defined" // order contains a line for catalog item id == value
)

// Action kinds a benefit can carry.
const (
	ActionAddPoints       = "add_points"
	ActionSpendPoints     = "spend_points"
	ActionDiscountFixed   = "discount_fixed"
	ActionDiscountPercent = "discount_percent"
)

type Criterion struct {
	bun.BaseModel `bun:"table:criteria,alias:c"`

	ID       int64   `bun:"id,pk,autoincrement" json:"id"`
	Contrast string  `bun:"contrast,notnull" json:"contrast"`
	Value    float64 `bun:"contrast_value,notnull" json:"value"`
}

type Benefit struct {
	bun.BaseModel `bun:"table:benefits,alias:b"`

	ID     int64   `bun:"id,pk,autoincrement" json:"id"`
	Action string  `bun:"action,notnull" json:"action"`
	Value  float64 `bun:"action_value,notnull" json:"value"`
}

// Event is a promotional rule bundle ("akce"): all criteria must hold for
// the card/order pair, then the benefits apply in declaration order.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Title       string `bun:"title,notnull" json:"title"`
	Description string `bun:"description,nullzero" json:"description,omitempty"`
	IsActive    bool   `bun:"is_active" json:"is_active"`

	Criteria []Criterion `bun:"-" json:"criteria"`
	Benefits []Benefit   `bun:"-" json:"benefits"`
}

type CriterionEvent struct {
	bun.BaseModel `bun:"table:criterion_events"`

	EventID     int64 `bun:"event_id,pk"`
	CriterionID int64 `bun:"criterion_id,pk"`
}

type BenefitEvent struct {
	bun.BaseModel `bun:"table:benefit_events"`

	EventID   int64 `bun:"event_id,pk"`
	BenefitID int64 `bun:"benefit_id,pk"`
}

type CriterionRequest struct {
	Contrast string  `json:"contrast"`
	Value    float64 `json:"value"`
}

type BenefitRequest struct {
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

type EventCreateRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Criteria    []CriterionRequest `json:"criteria"`
	Benefits    []BenefitRequest   `json:"benefits"`
}

// ApplyEventsRequest is the body of POST /api/v1/orders/akce.
type ApplyEventsRequest struct {
	CardID   int64   `json:"card_id"`
	OrderID  int64   `json:"order_id"`
	EventIDs []int64 `json:"akce_ids"`
}
