package user

import (
	"context"
	"log"
	"net/mail"
	"strings"
	"time"

	"studyhall/internal/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Approval states for a registered account.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// User is a registered account. Accounts are never hard-deleted.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"full_name"`
	MobileNumber   string    `json:"mobile_number"`
	Role           string    `json:"role"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists users.
type Store interface {
	Create(ctx context.Context, u User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	SetApproval(ctx context.Context, id, status string) (bool, error)
	ListByApproval(ctx context.Context, status string) ([]User, error)
}

// Notifier is the outbound notification hook.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, typ string)
}

// Service implements registration, sign-in and admin approval.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService builds the user service.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Register creates a student account awaiting admin approval.
func (s *Service) Register(ctx context.Context, email, password, fullName, mobile string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid email address")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, apperr.Validation("full name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   string(hash),
		FullName:       strings.TrimSpace(fullName),
		MobileNumber:   strings.TrimSpace(mobile),
		Role:           "student",
		ApprovalStatus: ApprovalPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		// An existing email is an expected condition, not operator noise:
		// surface it as a conflict without the verbose logging other
		// storage failures get.
		if apperr.CodeOf(err) != apperr.ErrEmailTaken.Code {
			log.Printf("user create failed: %v", err)
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies credentials and approval status.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.ByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if u.ApprovalStatus != ApprovalApproved {
		return nil, apperr.ErrAccountNotApproved
	}
	return u, nil
}

// Approve marks a pending account approved and notifies the user.
func (s *Service) Approve(ctx context.Context, userID string) error {
	return s.setApproval(ctx, userID, ApprovalApproved,
		"Account approved", "Your account has been approved. You can now sign in and book a seat.")
}

// Reject marks a pending account rejected and notifies the user.
func (s *Service) Reject(ctx context.Context, userID string) error {
	return s.setApproval(ctx, userID, ApprovalRejected,
		"Account rejected", "Your registration was not approved. Contact the library desk for details.")
}

func (s *Service) setApproval(ctx context.Context, userID, status, title, message string) error {
	ok, err := s.store.SetApproval(ctx, userID, status)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.notifier.Notify(ctx, userID, title, message, "account")
	return nil
}

// PendingApprovals lists accounts awaiting a decision.
func (s *Service) PendingApprovals(ctx context.Context) ([]User, error) {
	return s.store.ListByApproval(ctx, ApprovalPending)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}
