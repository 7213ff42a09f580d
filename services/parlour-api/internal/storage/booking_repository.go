package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/utiibeauty/parlour/libs/db"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/outbox"
)

type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo}
}

const bookingColumns = `id::text, customer_name, phone, service, preferred_date, preferred_time,
	notes, deposit_amount, deposit_paid, status, created_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.CustomerName, &b.Phone, &b.Service, &b.PreferredDate, &b.PreferredTime,
		&b.Notes, &b.DepositAmount, &b.DepositPaid, &b.Status, &b.CreatedAt)
	return b, err
}

// List returns every booking, newest first.
func (r *BookingRepository) List(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// Create inserts every row and one booking.submitted event per row in a
// single transaction.
func (r *BookingRepository) Create(ctx context.Context, rows []model.NewBooking) ([]model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := make([]model.Booking, 0, len(rows))
	for _, nb := range rows {
		if nb.Status == "" {
			nb.Status = model.BookingPending
		}
		b, err := scanBooking(tx.QueryRow(ctx, `
			INSERT INTO bookings (customer_name, phone, service, preferred_date, preferred_time,
				notes, deposit_amount, deposit_paid, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+bookingColumns,
			nb.CustomerName, nb.Phone, nb.Service, nb.PreferredDate, nb.PreferredTime,
			nb.Notes, nb.DepositAmount, nb.DepositPaid, nb.Status))
		if err != nil {
			return nil, err
		}
		evt, err := outbox.NewEvent("booking", b.ID, outbox.TopicBookingSubmitted, b)
		if err != nil {
			return nil, err
		}
		if err := r.outbox.Insert(ctx, tx, evt); err != nil {
			return nil, err
		}
		created = append(created, b)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus sets status on the booking with id. Any status may follow any other.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := scanBooking(tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2
		WHERE id = $1
		RETURNING `+bookingColumns, id, status))
	if err != nil {
		if db.IsNotFound(err) || db.IsInvalidInput(err) {
			return model.Booking{}, ErrNotFound
		}
		return model.Booking{}, err
	}
	evt, err := outbox.NewEvent("booking", b.ID, outbox.TopicBookingStatusChanged, map[string]any{
		"id":     b.ID,
		"status": b.Status,
	})
	if err != nil {
		return model.Booking{}, err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		if db.IsInvalidInput(err) {
			return ErrNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	evt, err := outbox.NewEvent("booking", id, outbox.TopicBookingDeleted, map[string]any{"id": id})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
