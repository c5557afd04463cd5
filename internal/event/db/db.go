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

// ---------------- EVENTS (AKCE) ----------------

// GetEventByID → fetch one event fully hydrated with criteria and benefits.
// Benefits come back ordered by id, which is insertion order: application
// order is declaration order.
func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	err = d.Bun.NewSelect().
		Model(&event.Criteria).
		Join("JOIN criterion_events ce ON ce.criterion_id = c.id").
		Where("ce.event_id = ?", id).
		Order("c.id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	err = d.Bun.NewSelect().
		Model(&event.Benefits).
		Join("JOIN benefit_events be ON be.benefit_id = b.id").
		Where("be.event_id = ?", id).
		Order("b.id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// ListEvents → all events, or only the active ones when activeOnly is set.
// Listings are shallow: criteria/benefits are loaded on direct id access.
func (d *DB) ListEvents(ctx context.Context, activeOnly bool) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().Model(&events).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// CreateEvent → insert the event plus its criteria and benefits in one
// transaction. A failure on any row rolls the whole event back.
func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return err
		}

		for i := range event.Criteria {
			if _, err := tx.NewInsert().Model(&event.Criteria[i]).Exec(ctx); err != nil {
				return err
			}
			link := models.CriterionEvent{EventID: event.ID, CriterionID: event.Criteria[i].ID}
			if _, err := tx.NewInsert().Model(&link).Exec(ctx); err != nil {
				return err
			}
		}

		for i := range event.Benefits {
			if _, err := tx.NewInsert().Model(&event.Benefits[i]).Exec(ctx); err != nil {
				return err
			}
			link := models.BenefitEvent{EventID: event.ID, BenefitID: event.Benefits[i].ID}
			if _, err := tx.NewInsert().Model(&link).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteEvent → remove the event and cascade to its criteria and benefits,
// detaching the join rows first.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var criterionIDs []int64
		err := tx.NewSelect().
			Column("criterion_id").
			Table("criterion_events").
			Where("event_id = ?", id).
			Scan(ctx, &criterionIDs)
		if err != nil {
			return err
		}

		var benefitIDs []int64
		err = tx.NewSelect().
			Column("benefit_id").
			Table("benefit_events").
			Where("event_id = ?", id).
			Scan(ctx, &benefitIDs)
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*models.CriterionEvent)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.BenefitEvent)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
			return err
		}

		if len(criterionIDs) > 0 {
			if _, err := tx.NewDelete().Model((*models.Criterion)(nil)).Where("id IN (?)", bun.In(criterionIDs)).Exec(ctx); err != nil {
				return err
			}
		}
		if len(benefitIDs) > 0 {
			if _, err := tx.NewDelete().Model((*models.Benefit)(nil)).Where("id IN (?)", bun.In(benefitIDs)).Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err == nil && rows == 0 {
			return sql.ErrNoRows
		}
		return err
	})
}

// CommitApplication → write the final card balances and order cost of a
// promotion batch in one transaction.
func (d *DB) CommitApplication(ctx context.Context, cardID int64, points, usedPoints int, orderID int64, cost float64) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.BonusCard)(nil)).
			Set("count = ?", points).
			Set("used_points = ?", usedPoints).
			Where("id = ?", cardID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return sql.ErrNoRows
		}

		res, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("cost = ?", cost).
			Where("id = ?", orderID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// IsNotFound reports whether err is the driver's empty-result error.
func (d *DB) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
