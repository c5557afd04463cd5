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

// ---------------- BONUS CARDS ----------------

// GetCardByID → fetch one card by its ID. Returns (nil, nil) when absent.
func (d *DB) GetCardByID(ctx context.Context, id int64) (*models.BonusCard, error) {
	var card models.BonusCard
	err := d.Bun.NewSelect().
		Model(&card).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetCardByPhone → the phone number is the fallback lookup key for cards
// issued before the customer registered.
func (d *DB) GetCardByPhone(ctx context.Context, phone string) (*models.BonusCard, error) {
	var card models.BonusCard
	err := d.Bun.NewSelect().
		Model(&card).
		Where("phone = ?", phone).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (d *DB) GetCardByUserID(ctx context.Context, userID string) (*models.BonusCard, error) {
	var card models.BonusCard
	err := d.Bun.NewSelect().
		Model(&card).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard → insert new card
func (d *DB) CreateCard(ctx context.Context, card *models.BonusCard) error {
	_, err := d.Bun.NewInsert().Model(card).Exec(ctx)
	return err
}

// UpdateCard → update mutable fields (phone, user link, balances)
func (d *DB) UpdateCard(ctx context.Context, card models.BonusCard) error {
	_, err := d.Bun.NewUpdate().
		Model(&card).
		Column("phone", "user_id", "count", "used_points").
		Where("id = ?", card.ID).
		Exec(ctx)
	return err
}

// WriteCardBalances → set both point counters on a card in one statement.
// Errors with sql.ErrNoRows when the card does not exist.
func (d *DB) WriteCardBalances(ctx context.Context, id int64, points, usedPoints int) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.BonusCard)(nil)).
		Set("count = ?", points).
		Set("used_points = ?", usedPoints).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCard → delete a card by ID
func (d *DB) DeleteCard(ctx context.Context, id int64) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.BonusCard)(nil)).
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
