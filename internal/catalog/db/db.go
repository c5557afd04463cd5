package db

import (
	"context"
	"database/sql"
	"errors"

	"loyalty-backend/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ITEMS ----------------

// GetItemByID → fetch one item with its ingredient list. Returns
// (nil, nil) when absent.
func (d *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := d.Bun.NewSelect().
		Model(&item).
		Relation("Ingredients").
		Where("item.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) ListActiveItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := d.Bun.NewSelect().
		Model(&items).
		Relation("Ingredients").
		Where("item.is_active = ?", true).
		Order("item.id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// CreateItem → insert the item and its ingredients in one transaction.
func (d *DB) CreateItem(ctx context.Context, item *models.Item) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
			return err
		}
		for i := range item.Ingredients {
			item.Ingredients[i].ItemID = item.ID
			if _, err := tx.NewInsert().Model(&item.Ingredients[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateItemCost → write-back used when a recipe-priced item is recomputed
func (d *DB) UpdateItemCost(ctx context.Context, id int64, cost float64) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Item)(nil)).
		Set("cost = ?", cost).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- INGREDIENTS ----------------

func (d *DB) AddIngredient(ctx context.Context, ing *models.Ingredient) error {
	_, err := d.Bun.NewInsert().Model(ing).Exec(ctx)
	return err
}

func (d *DB) UpdateIngredient(ctx context.Context, ing models.Ingredient) error {
	_, err := d.Bun.NewUpdate().
		Model(&ing).
		Column("product_id", "name", "value_type_id", "value").
		Where("id = ?", ing.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteIngredient(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Ingredient)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ---------------- PRODUCTS ----------------

func (d *DB) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (d *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().Model(&products).Order("id").Scan(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProductCosts → unit costs for a set of product ids, keyed by id.
// Products missing from the result have no catalog cost and count as 0.
func (d *DB) GetProductCosts(ctx context.Context, productIDs []int64) (map[int64]float64, error) {
	costs := make(map[int64]float64, len(productIDs))
	if len(productIDs) == 0 {
		return costs, nil
	}

	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Column("id", "cost_per_one").
		Where("id IN (?)", bun.In(productIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		costs[p.ID] = p.CostPerOne
	}
	return costs, nil
}

// CreateProduct → insert a product, creating its value type on first use.
func (d *DB) CreateProduct(ctx context.Context, product *models.Product, valueType string) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var vt models.ProductValueType
		err := tx.NewSelect().
			Model(&vt).
			Where("name = ?", valueType).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			vt = models.ProductValueType{Name: valueType}
			if _, err := tx.NewInsert().Model(&vt).Exec(ctx); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		product.ValueTypeID = vt.ID
		_, err = tx.NewInsert().Model(product).Exec(ctx)
		return err
	})
}

func (d *DB) UpdateProduct(ctx context.Context, product models.Product) error {
	_, err := d.Bun.NewUpdate().
		Model(&product).
		Column("value", "cost_per_one").
		Where("id = ?", product.ID).
		Exec(ctx)
	return err
}
