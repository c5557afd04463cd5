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

// GetOrderByID → fetch one order with its line items and per-line
// ingredient overrides. Returns (nil, nil) when absent.
func (d *DB) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Relation("Items.Ingredients").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersForUser → orders belonging to a user, newest first.
func (d *DB) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Items").
		Relation("Items.Ingredients").
		Where("\"order\".user_id = ?", userID).
		Order("date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// CreateOrder → insert the order, its items and ingredient overrides in
// one transaction.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
				return err
			}
			for j := range item.Ingredients {
				item.Ingredients[j].OrderItemID = item.ID
				if _, err := tx.NewInsert().Model(&item.Ingredients[j]).Exec(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// DeleteOrder → remove the order with its items and overrides. Reports
// whether the order existed.
func (d *DB) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	var existed bool
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var itemIDs []int64
		if err := tx.NewSelect().
			Model((*models.OrderItem)(nil)).
			Column("id").
			Where("order_id = ?", id).
			Scan(ctx, &itemIDs); err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if _, err := tx.NewDelete().
				Model((*models.OrderItemIngredient)(nil)).
				Where("order_item_id IN (?)", bun.In(itemIDs)).
				Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDelete().
				Model((*models.OrderItem)(nil)).
				Where("order_id = ?", id).
				Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().
			Model((*models.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		existed = rows > 0
		return nil
	})
	return existed, err
}
