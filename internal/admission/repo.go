package admission

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"studyhall/internal/shift"
)

// Repository persists admissions in Postgres. Shifts are stored as a text
// array; array_to_string keeps the scan portable across database/sql.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, a Admission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admissions (id, user_id, shifts, duration_months, total_amount, payment_status, created_at)
		VALUES ($1, $2, string_to_array($3, ','), $4, $5, $6, $7)
	`, a.ID, a.UserID, joinShifts(a.Shifts), a.DurationMonths, a.TotalAmount, a.PaymentStatus, a.CreatedAt)
	return err
}

const admissionCols = `id, user_id, array_to_string(shifts, ','), duration_months, total_amount, payment_status, start_date, end_date, created_at`

func (r *Repository) ByID(ctx context.Context, id string) (*Admission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+admissionCols+` FROM admissions WHERE id = $1`, id)
	return scanOne(row)
}

func (r *Repository) Latest(ctx context.Context, userID string) (*Admission, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+admissionCols+` FROM admissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
	return scanOne(row)
}

func (r *Repository) MarkPaid(ctx context.Context, id string, start, end time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE admissions
		SET payment_status = 'paid', start_date = $2, end_date = $3
		WHERE id = $1 AND payment_status = 'pending'
	`, id, start, end)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListPaid(ctx context.Context) ([]Admission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+admissionCols+` FROM admissions
		WHERE payment_status = 'paid'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*Admission, error) {
	a, err := scanAdmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scanAdmission(s scanner) (*Admission, error) {
	var a Admission
	var shifts string
	if err := s.Scan(&a.ID, &a.UserID, &shifts, &a.DurationMonths, &a.TotalAmount, &a.PaymentStatus, &a.StartDate, &a.EndDate, &a.CreatedAt); err != nil {
		return nil, err
	}
	for _, name := range strings.Split(shifts, ",") {
		if name == "" {
			continue
		}
		a.Shifts = append(a.Shifts, shift.Shift(name))
	}
	return &a, nil
}

func joinShifts(shifts []shift.Shift) string {
	parts := make([]string, len(shifts))
	for i, s := range shifts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}
