package database

import (
	"context"

	"loyalty-backend/internal/models"

	"github.com/uptrace/bun"
)

// tables in dependency order; drops run in reverse
var tables = []interface{}{
	(*models.BonusCard)(nil),
	(*models.ProductValueType)(nil),
	(*models.Product)(nil),
	(*models.Item)(nil),
	(*models.Ingredient)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.OrderItemIngredient)(nil),
	(*models.Event)(nil),
	(*models.Criterion)(nil),
	(*models.Benefit)(nil),
	(*models.CriterionEvent)(nil),
	(*models.BenefitEvent)(nil),
	(*models.Shop)(nil),
	(*models.ShopProduct)(nil),
	(*models.Comment)(nil),
}

// CreateSchema bootstraps every loyalty table. Safe to run repeatedly;
// also used by db tests against in-memory sqlite.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(tables[i]).IfExists().Cascade().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
