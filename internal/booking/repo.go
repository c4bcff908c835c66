package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/shift"
	"studyhall/internal/store"
)

// Index names from migrations/001_init.sql; constraint rejections on these
// are translated to domain conflicts.
const (
	seatBookedIndex    = "uq_seat_booked"
	activeBookingIndex = "uq_user_active_booking"
)

// Repository persists seat bookings in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, b Booking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seat_bookings (id, user_id, shift, seat_number, booking_status, booking_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, b.ID, b.UserID, string(b.Shift), b.SeatNumber, b.Status, day(b.BookingDate), b.CreatedAt)
	switch {
	case store.IsUniqueViolation(err, activeBookingIndex):
		return apperr.Wrap(apperr.ErrAlreadyBooked, err)
	case store.IsUniqueViolation(err, seatBookedIndex):
		return apperr.Wrap(apperr.ErrSeatTaken, err)
	}
	return err
}

func (r *Repository) ByID(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, shift, seat_number, booking_status, booking_date, created_at
		FROM seat_bookings WHERE id = $1
	`, id)
	var b Booking
	var sh string
	err := row.Scan(&b.ID, &b.UserID, &sh, &b.SeatNumber, &b.Status, &b.BookingDate, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Shift = shift.Shift(sh)
	return &b, nil
}

func (r *Repository) HasActiveForUser(ctx context.Context, userID string, sh shift.Shift, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM seat_bookings
			WHERE user_id = $1 AND shift = $2 AND booking_date = $3
			  AND booking_status IN ('pending', 'booked')
		)
	`, userID, string(sh), day(date)).Scan(&exists)
	return exists, err
}

func (r *Repository) SeatBooked(ctx context.Context, sh shift.Shift, seat string, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM seat_bookings
			WHERE shift = $1 AND seat_number = $2 AND booking_date = $3
			  AND booking_status = 'booked'
		)
	`, string(sh), seat, day(date)).Scan(&exists)
	return exists, err
}

// SetBooked is the commit point for the no-double-booking invariant: the
// partial unique index rejects a second booked row and that rejection comes
// back as ErrSeatTaken, never as silent success.
func (r *Repository) SetBooked(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE seat_bookings SET booking_status = 'booked'
		WHERE id = $1 AND booking_status = 'pending'
	`, id)
	if store.IsUniqueViolation(err, seatBookedIndex) {
		return apperr.Wrap(apperr.ErrSeatTaken, err)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetAvailable releases a booking. Guarded to pending rows: approved
// bookings are terminal and must not be released by an admin reject.
func (r *Repository) SetAvailable(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE seat_bookings SET booking_status = 'available'
		WHERE id = $1 AND booking_status = 'pending'
	`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a row outright. Used only to roll back a request whose
// linked payment never opened; rows with payment history are released, not
// deleted.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_bookings WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) CountBooked(ctx context.Context, sh shift.Shift, date time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM seat_bookings
		WHERE shift = $1 AND booking_date = $2 AND booking_status = 'booked'
	`, string(sh), day(date)).Scan(&n)
	return n, err
}

func (r *Repository) ListForUser(ctx context.Context, userID string, date time.Time) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, shift, seat_number, booking_status, booking_date, created_at
		FROM seat_bookings
		WHERE user_id = $1 AND booking_date = $2
		ORDER BY created_at
	`, userID, day(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Booking
	for rows.Next() {
		var b Booking
		var sh string
		if err := rows.Scan(&b.ID, &b.UserID, &sh, &b.SeatNumber, &b.Status, &b.BookingDate, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Shift = shift.Shift(sh)
		res = append(res, b)
	}
	return res, rows.Err()
}

func day(t time.Time) string { return t.Format("2006-01-02") }
