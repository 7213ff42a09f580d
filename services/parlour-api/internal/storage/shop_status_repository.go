package storage

import (
	"context"
	"time"

	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/outbox"
)

type ShopStatusRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewShopStatusRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ShopStatusRepository {
	return &ShopStatusRepository{pool: pool, outbox: outboxRepo}
}

// Current returns the most recently updated row. pgx.ErrNoRows means the
// shop status has not been set up.
func (r *ShopStatusRepository) Current(ctx context.Context) (model.ShopStatus, error) {
	var s model.ShopStatus
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, is_open, updated_at, updated_by
		FROM shop_status
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&s.ID, &s.IsOpen, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil {
		return model.ShopStatus{}, err
	}
	return s, nil
}

// Update writes patch to the row with id and enqueues the change event in the
// same transaction.
func (r *ShopStatusRepository) Update(ctx context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error) {
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = time.Now().UTC()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.ShopStatus{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s model.ShopStatus
	err = tx.QueryRow(ctx, `
		UPDATE shop_status
		SET is_open = $2, updated_at = $3, updated_by = $4
		WHERE id = $1
		RETURNING id::text, is_open, updated_at, updated_by
	`, id, patch.IsOpen, patch.UpdatedAt, patch.UpdatedBy).Scan(&s.ID, &s.IsOpen, &s.UpdatedAt, &s.UpdatedBy)
	if err != nil {
		if db.IsNotFound(err) || db.IsInvalidInput(err) {
			return model.ShopStatus{}, ErrNotFound
		}
		return model.ShopStatus{}, err
	}

	evt, err := outbox.NewEvent("shop_status", s.ID, outbox.TopicShopStatusUpdated, model.ShopStatusChange{
		Event: model.EventUpdate,
		Table: model.TableShopStatus,
		New:   s,
	})
	if err != nil {
		return model.ShopStatus{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.ShopStatus{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.ShopStatus{}, err
	}
	return s, nil
}

// EnsureSeeded inserts an open row when the table is empty.
func (r *ShopStatusRepository) EnsureSeeded(ctx context.Context) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO shop_status (is_open, updated_by)
		SELECT true, 'system'
		WHERE NOT EXISTS (SELECT 1 FROM shop_status)
	`)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
