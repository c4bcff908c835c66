package user

import (
	"context"
	"database/sql"
	"errors"

	"studyhall/internal/apperr"
	"studyhall/internal/store"
)

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, mobile_number, role, approval_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Email, u.PasswordHash, u.FullName, u.MobileNumber, u.Role, u.ApprovalStatus, u.CreatedAt)
	if store.IsUniqueViolation(err, "") {
		return apperr.Wrap(apperr.ErrEmailTaken, err)
	}
	return err
}

func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, `WHERE email = $1`, email)
}

func (r *Repository) ByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, `WHERE id = $1`, id)
}

func (r *Repository) one(ctx context.Context, where string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, full_name, mobile_number, role, approval_status, created_at
		FROM users `+where, arg)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.MobileNumber, &u.Role, &u.ApprovalStatus, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) SetApproval(ctx context.Context, id, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET approval_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) ListByApproval(ctx context.Context, status string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, password_hash, full_name, mobile_number, role, approval_status, created_at
		FROM users
		WHERE approval_status = $1
		ORDER BY created_at
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.MobileNumber, &u.Role, &u.ApprovalStatus, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}
