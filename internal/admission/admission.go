package admission

import (
	"context"
	"fmt"
	"log"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/shift"

	"github.com/google/uuid"
)

func newID() string { return uuid.NewString() }

// Payment states for an admission.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Admission is one enrollment period for a student. A student may hold
// several over time (renewals); the current one is the latest created.
type Admission struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Shifts         []shift.Shift `json:"shifts"`
	DurationMonths int           `json:"duration_months"`
	TotalAmount    float64       `json:"total_amount"`
	PaymentStatus  string        `json:"payment_status"`
	StartDate      *time.Time    `json:"start_date,omitempty"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Covers reports whether the admission is paid and its period contains day.
func (a Admission) Covers(day time.Time) bool {
	if a.PaymentStatus != PaymentPaid || a.StartDate == nil || a.EndDate == nil {
		return false
	}
	d := day.Format("2006-01-02")
	return d >= a.StartDate.Format("2006-01-02") && d <= a.EndDate.Format("2006-01-02")
}

// Store persists admissions.
type Store interface {
	Create(ctx context.Context, a Admission) error
	ByID(ctx context.Context, id string) (*Admission, error)
	Latest(ctx context.Context, userID string) (*Admission, error)
	MarkPaid(ctx context.Context, id string, start, end time.Time) (bool, error)
	ListPaid(ctx context.Context) ([]Admission, error)
}

// Notifier is the outbound notification hook.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, typ string)
}

// History records a UPI confirmation in the payment ledger.
type History interface {
	RecordUPI(ctx context.Context, userID, admissionID string, amount float64) error
}

// Service implements admission intake and the UPI payment path.
type Service struct {
	store    Store
	notifier Notifier
	history  History
	now      func() time.Time
}

// NewService builds the admission service. history may be nil; UPI
// confirmations then skip the payment-history row.
func NewService(store Store, notifier Notifier, history History) *Service {
	return &Service{store: store, notifier: notifier, history: history, now: time.Now}
}

// Create opens a pending admission. Total is the sum of the selected shifts'
// monthly prices over the chosen duration.
func (s *Service) Create(ctx context.Context, userID string, shiftNames []string, durationMonths int) (*Admission, error) {
	if durationMonths != 1 && durationMonths != 3 && durationMonths != 6 {
		return nil, apperr.Validation("duration must be 1, 3 or 6 months")
	}
	if len(shiftNames) == 0 {
		return nil, apperr.Validation("at least one shift is required")
	}
	seen := map[shift.Shift]bool{}
	var shifts []shift.Shift
	var total float64
	for _, name := range shiftNames {
		sh, err := shift.Parse(name)
		if err != nil {
			return nil, apperr.Validation("unknown shift %q", name)
		}
		if seen[sh] {
			return nil, apperr.Validation("shift %q selected twice", name)
		}
		seen[sh] = true
		shifts = append(shifts, sh)
		total += shift.PriceOf(sh) * float64(durationMonths)
	}

	a := Admission{
		ID:             newID(),
		UserID:         userID,
		Shifts:         shifts,
		DurationMonths: durationMonths,
		TotalAmount:    total,
		PaymentStatus:  PaymentPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ConfirmUPI marks an admission paid on the caller's say-so. There is no
// external verification of the UPI transaction; that trust boundary is
// deliberate.
func (s *Service) ConfirmUPI(ctx context.Context, admissionID, userID string) (*Admission, error) {
	a, err := s.store.ByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	if a.PaymentStatus == PaymentPaid {
		return a, nil
	}
	paid, err := s.MarkPaid(ctx, a)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		// The admission is already paid; a failed history write cannot be
		// rolled back, only logged.
		if err := s.history.RecordUPI(ctx, userID, a.ID, a.TotalAmount); err != nil {
			log.Printf("upi history write for admission %s failed: %v", a.ID, err)
		}
	}
	s.notifier.Notify(ctx, userID, "Payment received",
		fmt.Sprintf("UPI payment of %.2f confirmed. Your admission is active until %s.",
			a.TotalAmount, paid.EndDate.Format("2006-01-02")), "payment")
	return paid, nil
}

// MarkPaid activates an admission: payment_status=paid, start=now,
// end=now+duration. Shared by the UPI path and cash payment approval.
func (s *Service) MarkPaid(ctx context.Context, a *Admission) (*Admission, error) {
	start := s.now().UTC()
	end := start.AddDate(0, a.DurationMonths, 0)
	ok, err := s.store.MarkPaid(ctx, a.ID, start, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := *a
	out.PaymentStatus = PaymentPaid
	out.StartDate = &start
	out.EndDate = &end
	return &out, nil
}

// Activate marks an admission paid on cash payment approval. Already-paid
// admissions are left untouched so a replayed approval stays harmless.
func (s *Service) Activate(ctx context.Context, admissionID string) error {
	a, err := s.store.ByID(ctx, admissionID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.ErrNotFound
	}
	if a.PaymentStatus == PaymentPaid {
		return nil
	}
	paid, err := s.MarkPaid(ctx, a)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, a.UserID, "Admission active",
		fmt.Sprintf("Your cash payment was approved. Your admission is active until %s.",
			paid.EndDate.Format("2006-01-02")), "payment")
	return nil
}

// Current returns the user's most recently created admission.
func (s *Service) Current(ctx context.Context, userID string) (*Admission, error) {
	a, err := s.store.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

// Get returns an admission by id.
func (s *Service) Get(ctx context.Context, id string) (*Admission, error) {
	a, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}
