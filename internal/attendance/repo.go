package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/shift"
	"studyhall/internal/store"
)

const trackIndex = "uq_attendance_track"

// Repository persists attendance rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, rec Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, user_id, shift, date, check_in_time, check_out_time, status, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8, ''))
	`, rec.ID, rec.UserID, string(rec.Shift), day(rec.Date), rec.CheckIn, rec.CheckOut, rec.Status, rec.Reason)
	if store.IsUniqueViolation(err, trackIndex) {
		return apperr.Wrap(apperr.ErrAlreadyCheckedIn, err)
	}
	return err
}

func (r *Repository) PresentRow(ctx context.Context, userID string, sh shift.Shift, date time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, shift, date, check_in_time, check_out_time, status, COALESCE(reason, '')
		FROM attendance
		WHERE user_id = $1 AND shift = $2 AND date = $3 AND status = 'present'
	`, userID, string(sh), day(date))
	return scanOne(row)
}

func (r *Repository) ByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, shift, date, check_in_time, check_out_time, status, COALESCE(reason, '')
		FROM attendance WHERE id = $1
	`, id)
	return scanOne(row)
}

func (r *Repository) SetCheckOut(ctx context.Context, id string, t time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET check_out_time = $2
		WHERE id = $1 AND check_in_time IS NOT NULL AND check_out_time IS NULL
	`, id, t)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListForDay(ctx context.Context, userID string, date time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, shift, date, check_in_time, check_out_time, status, COALESCE(reason, '')
		FROM attendance
		WHERE user_id = $1 AND date = $2
		ORDER BY check_in_time NULLS LAST
	`, userID, day(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		var sh string
		if err := rows.Scan(&rec.ID, &rec.UserID, &sh, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.Reason); err != nil {
			return nil, err
		}
		rec.Shift = shift.Shift(sh)
		res = append(res, rec)
	}
	return res, rows.Err()
}

// HasCheckIn reports whether any row for (user, shift, date) carries a
// check-in time. Used by the absence sweep.
func (r *Repository) HasCheckIn(ctx context.Context, userID string, sh shift.Shift, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance
			WHERE user_id = $1 AND shift = $2 AND date = $3 AND check_in_time IS NOT NULL
		)
	`, userID, string(sh), day(date)).Scan(&exists)
	return exists, err
}

// InsertAbsent writes a sweep-generated absent row. ON CONFLICT DO NOTHING
// against the track index makes re-runs report zero instead of duplicating.
func (r *Repository) InsertAbsent(ctx context.Context, rec Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, user_id, shift, date, status, reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id, shift, date, status) DO NOTHING
	`, rec.ID, rec.UserID, string(rec.Shift), day(rec.Date), rec.Status, rec.Reason)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanOne(row *sql.Row) (*Record, error) {
	var rec Record
	var sh string
	err := row.Scan(&rec.ID, &rec.UserID, &sh, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.Reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Shift = shift.Shift(sh)
	return &rec, nil
}

func day(t time.Time) string { return t.Format("2006-01-02") }
