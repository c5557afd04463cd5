package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"loyalty-backend/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetShopByID(ctx context.Context, id int64) (*models.Shop, error) {
	var shop models.Shop
	err := d.Bun.NewSelect().
		Model(&shop).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (d *DB) ListShops(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	err := d.Bun.NewSelect().Model(&shops).Order("id").Scan(ctx)
	if err != nil {
		return nil, err
	}
	if shops == nil {
		shops = []models.Shop{}
	}
	return shops, nil
}

func (d *DB) CreateShop(ctx context.Context, shop *models.Shop) error {
	_, err := d.Bun.NewInsert().Model(shop).Exec(ctx)
	return err
}

func (d *DB) DeleteShop(ctx context.Context, id int64) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Shop)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// LinkProduct → record that a shop stocks a product.
func (d *DB) LinkProduct(ctx context.Context, shopID, productID int64) (*models.ShopProduct, error) {
	link := &models.ShopProduct{
		ShopID:    shopID,
		ProductID: productID,
		AddedAt:   time.Now().UTC(),
	}
	if _, err := d.Bun.NewInsert().Model(link).Exec(ctx); err != nil {
		return nil, err
	}
	return link, nil
}

func (d *DB) ListShopProducts(ctx context.Context, shopID int64) ([]models.ShopProduct, error) {
	var links []models.ShopProduct
	err := d.Bun.NewSelect().
		Model(&links).
		Where("shop_id = ?", shopID).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.ShopProduct{}
	}
	return links, nil
}
