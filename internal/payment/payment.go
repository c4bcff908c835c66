package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"studyhall/internal/apperr"

	"github.com/google/uuid"
)

// Payment states. Approved and rejected are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment methods. Cash rows await admin approval; UPI rows are written
// already approved as the history record of a self-attested confirmation.
const (
	MethodCash = "cash"
	MethodUPI  = "upi"
)

// CashPayment is one payment-history row for exactly one target — a booking
// or an admission. Rows are never deleted; status is the record.
type CashPayment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	BookingID   *string   `json:"booking_id,omitempty"`
	AdmissionID *string   `json:"admission_id,omitempty"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditEntry records one admin decision.
type AuditEntry struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	AdminID   string    `json:"admin_id"`
	Action    string    `json:"action"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists cash payments and the audit log. Insert must map a unique
// rejection on the pending-per-target indexes to ErrDuplicateRequest.
type Store interface {
	Insert(ctx context.Context, p CashPayment) error
	ByID(ctx context.Context, id string) (*CashPayment, error)
	SetStatus(ctx context.Context, id, from, to string) (bool, error)
	RejectPendingForBooking(ctx context.Context, bookingID string) error
	ListByStatus(ctx context.Context, status string) ([]CashPayment, error)
	InsertAudit(ctx context.Context, e AuditEntry) error
}

// Bookings is the slice of the booking ledger the workflow drives.
type Bookings interface {
	Approve(ctx context.Context, bookingID string) error
	Release(ctx context.Context, bookingID string) error
}

// Admissions activates an admission once its payment clears.
type Admissions interface {
	Activate(ctx context.Context, admissionID string) error
}

// Notifier is the outbound notification hook.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, typ string)
}

// Service implements the cash payment approval workflow.
type Service struct {
	store      Store
	bookings   Bookings
	admissions Admissions
	notifier   Notifier
}

// NewService builds the payment service.
func NewService(store Store, bookings Bookings, admissions Admissions, notifier Notifier) *Service {
	return &Service{store: store, bookings: bookings, admissions: admissions, notifier: notifier}
}

// SubmitCash records a pending cash payment for exactly one target. A second
// pending submission for the same target is a DuplicateRequest.
func (s *Service) SubmitCash(ctx context.Context, userID string, bookingID, admissionID string, amount float64) (*CashPayment, error) {
	if (bookingID == "") == (admissionID == "") {
		return nil, apperr.Validation("exactly one of booking_id or admission_id is required")
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	p := CashPayment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Method:    MethodCash,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if bookingID != "" {
		p.BookingID = &bookingID
	}
	if admissionID != "" {
		p.AdmissionID = &admissionID
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// OpenForBooking creates the pending payment a booking request carries.
func (s *Service) OpenForBooking(ctx context.Context, userID, bookingID string, amount float64) error {
	_, err := s.SubmitCash(ctx, userID, bookingID, "", amount)
	return err
}

// RejectPendingForBooking closes the linked payment when a booking is
// rejected from the booking side.
func (s *Service) RejectPendingForBooking(ctx context.Context, bookingID string) error {
	return s.store.RejectPendingForBooking(ctx, bookingID)
}

// RecordUPI writes the history row for a self-attested UPI confirmation.
// The row is born approved: there was no admin decision to wait for.
func (s *Service) RecordUPI(ctx context.Context, userID, admissionID string, amount float64) error {
	p := CashPayment{
		ID:          uuid.NewString(),
		UserID:      userID,
		AdmissionID: &admissionID,
		Amount:      amount,
		Method:      MethodUPI,
		Status:      StatusApproved,
		CreatedAt:   time.Now().UTC(),
	}
	return s.store.Insert(ctx, p)
}

// Approve finalizes a pending payment and unblocks its target. The payment
// is claimed first so two admins cannot both act on it; if the target
// transition then fails (a booking's seat was taken at commit time) the
// claim is reverted and the conflict surfaces to the admin.
func (s *Service) Approve(ctx context.Context, paymentID, adminID string) error {
	p, err := s.claim(ctx, paymentID, StatusApproved)
	if err != nil {
		return err
	}

	switch {
	case p.BookingID != nil:
		if err := s.bookings.Approve(ctx, *p.BookingID); err != nil {
			s.revert(ctx, p.ID)
			return err
		}
	case p.AdmissionID != nil:
		if err := s.admissions.Activate(ctx, *p.AdmissionID); err != nil {
			s.revert(ctx, p.ID)
			return err
		}
	}

	s.audit(ctx, p.ID, adminID, StatusApproved)
	s.notifier.Notify(ctx, p.UserID, "Payment approved",
		fmt.Sprintf("Your cash payment of %.2f has been approved.", p.Amount), "payment")
	return nil
}

// Reject finalizes a pending payment without unblocking its target. A
// booking target is released (the seat frees up, the row stays for the
// rejected payment to reference); an admission target keeps its pending
// payment status with no dates touched.
func (s *Service) Reject(ctx context.Context, paymentID, adminID string) error {
	p, err := s.claim(ctx, paymentID, StatusRejected)
	if err != nil {
		return err
	}

	if p.BookingID != nil {
		if err := s.bookings.Release(ctx, *p.BookingID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			log.Printf("booking %s release after payment rejection failed: %v", *p.BookingID, err)
		}
	}

	s.audit(ctx, p.ID, adminID, StatusRejected)
	s.notifier.Notify(ctx, p.UserID, "Payment rejected",
		fmt.Sprintf("Your cash payment of %.2f was rejected. Contact the library desk.", p.Amount), "payment")
	return nil
}

// PendingList returns payments awaiting an admin decision.
func (s *Service) PendingList(ctx context.Context) ([]CashPayment, error) {
	return s.store.ListByStatus(ctx, StatusPending)
}

// Get returns a payment by id.
func (s *Service) Get(ctx context.Context, id string) (*CashPayment, error) {
	p, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

func (s *Service) claim(ctx context.Context, paymentID, to string) (*CashPayment, error) {
	p, err := s.store.ByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	ok, err := s.store.SetStatus(ctx, paymentID, StatusPending, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrPaymentFinalized
	}
	return p, nil
}

func (s *Service) revert(ctx context.Context, paymentID string) {
	if _, err := s.store.SetStatus(ctx, paymentID, StatusApproved, StatusPending); err != nil {
		log.Printf("payment %s claim revert failed: %v", paymentID, err)
	}
}

func (s *Service) audit(ctx context.Context, paymentID, adminID, action string) {
	entry := AuditEntry{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		AdminID:   adminID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		log.Printf("audit write for payment %s failed: %v", paymentID, err)
	}
}
