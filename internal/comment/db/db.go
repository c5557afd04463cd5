package db

import (
	"context"
	"time"

	"loyalty-backend/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	_, err := d.Bun.NewInsert().Model(comment).Exec(ctx)
	return err
}

// ListCommentsForItem → comments on one catalog item, oldest first.
func (d *DB) ListCommentsForItem(ctx context.Context, itemID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.Bun.NewSelect().
		Model(&comments).
		Where("item_id = ?", itemID).
		Order("created_at").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (d *DB) DeleteComment(ctx context.Context, id int64) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Comment)(nil)).
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
