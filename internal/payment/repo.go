package payment

import (
	"context"
	"database/sql"
	"errors"

	"studyhall/internal/apperr"
	"studyhall/internal/store"
)

// Repository persists cash payments and audit entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert relies on the pending-per-target partial indexes for the
// DuplicateRequest gate; any advisory pre-check would leave the same race
// the index closes.
func (r *Repository) Insert(ctx context.Context, p CashPayment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cash_payments (id, user_id, booking_id, admission_id, amount, method, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.UserID, p.BookingID, p.AdmissionID, p.Amount, p.Method, p.Status, p.CreatedAt)
	if store.IsUniqueViolation(err, "uq_cash_pending_booking") || store.IsUniqueViolation(err, "uq_cash_pending_admission") {
		return apperr.Wrap(apperr.ErrDuplicateRequest, err)
	}
	return err
}

func (r *Repository) ByID(ctx context.Context, id string) (*CashPayment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, booking_id, admission_id, amount, method, status, created_at
		FROM cash_payments WHERE id = $1
	`, id)
	var p CashPayment
	err := row.Scan(&p.ID, &p.UserID, &p.BookingID, &p.AdmissionID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) SetStatus(ctx context.Context, id, from, to string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cash_payments SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) RejectPendingForBooking(ctx context.Context, bookingID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cash_payments SET status = 'rejected'
		WHERE booking_id = $1 AND status = 'pending'
	`, bookingID)
	return err
}

func (r *Repository) ListByStatus(ctx context.Context, status string) ([]CashPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, booking_id, admission_id, amount, method, status, created_at
		FROM cash_payments
		WHERE status = $1
		ORDER BY created_at
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []CashPayment
	for rows.Next() {
		var p CashPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.BookingID, &p.AdmissionID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repository) InsertAudit(ctx context.Context, e AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_audit_log (id, payment_id, admin_id, action, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, e.ID, e.PaymentID, e.AdminID, e.Action, e.Note, e.CreatedAt)
	return err
}
