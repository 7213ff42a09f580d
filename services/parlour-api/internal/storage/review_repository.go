package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/outbox"
)

type ReviewRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewReviewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ReviewRepository {
	return &ReviewRepository{pool: pool, outbox: outboxRepo}
}

const reviewColumns = `id::text, customer_name, rating, review_text, created_at, is_approved`

func scanReview(row pgx.Row) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.CustomerName, &rv.Rating, &rv.ReviewText, &rv.CreatedAt, &rv.IsApproved)
	return rv, err
}

// List returns reviews newest first, restricted to approved rows when filter asks.
func (r *ReviewRepository) List(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE ($1::boolean = false OR is_approved)
		ORDER BY created_at DESC
	`, filter.ApprovedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return reviews, nil
}

func (r *ReviewRepository) Create(ctx context.Context, nr model.NewReview, approved bool) (model.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Review{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := scanReview(tx.QueryRow(ctx, `
		INSERT INTO reviews (customer_name, rating, review_text, is_approved)
		VALUES ($1, $2, $3, $4)
		RETURNING `+reviewColumns, nr.CustomerName, nr.Rating, nr.ReviewText, approved))
	if err != nil {
		return model.Review{}, err
	}
	evt, err := outbox.NewEvent("review", rv.ID, outbox.TopicReviewSubmitted, rv)
	if err != nil {
		return model.Review{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Review{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		if db.IsInvalidInput(err) {
			return ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	evt, err := outbox.NewEvent("review", id, outbox.TopicReviewDeleted, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
