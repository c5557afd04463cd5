package models

import (
	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	Name        string  `bun:"name,unique,notnull" json:"name"`
	Value       float64 `bun:"value,notnull" json:"value"`
	ValueTypeID int64   `bun:"value_type_id,notnull" json:"value_type_id"`
	CostPerOne  float64 `bun:"cost_per_one,notnull" json:"cost_per_one"`
}

type ProductValueType struct {
	bun.BaseModel `bun:"table:product_value_types"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,unique,notnull" json:"name"`
}

type ProductCreateRequest struct {
	Name       string  `json:"name"`
	ValueType  string  `json:"value_type"`
	Value      float64 `json:"value"`
	CostPerOne float64 `json:"cost_per_one"`
}

type ProductUpdateRequest struct {
	Value      *float64 `json:"value,omitempty"`
	CostPerOne *float64 `json:"cost_per_one,omitempty"`
}
