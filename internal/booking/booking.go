package booking

import (
	"context"
	"strings"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/metrics"
	"studyhall/internal/shift"

	"github.com/google/uuid"
)

// Booking states. "booked" is terminal; rejection releases the row to
// "available" so the seat frees up while the linked payment history stays
// intact.
const (
	StatusPending   = "pending"
	StatusBooked    = "booked"
	StatusAvailable = "available"
)

// Booking is one seat reservation for a shift on a date.
type Booking struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Shift       shift.Shift `json:"shift"`
	SeatNumber  string      `json:"seat_number"`
	Status      string      `json:"booking_status"`
	BookingDate time.Time   `json:"booking_date"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Store persists seat bookings. Implementations must map unique-index
// rejections to the matching domain conflicts: the booked-seat index to
// ErrSeatTaken, the active-booking-per-user index to ErrAlreadyBooked.
type Store interface {
	Insert(ctx context.Context, b Booking) error
	ByID(ctx context.Context, id string) (*Booking, error)
	HasActiveForUser(ctx context.Context, userID string, sh shift.Shift, date time.Time) (bool, error)
	SeatBooked(ctx context.Context, sh shift.Shift, seat string, date time.Time) (bool, error)
	SetBooked(ctx context.Context, id string) error
	SetAvailable(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountBooked(ctx context.Context, sh shift.Shift, date time.Time) (int, error)
	ListForUser(ctx context.Context, userID string, date time.Time) ([]Booking, error)
}

// Payments is the slice of the payment workflow the ledger drives: every
// booking request opens a pending cash payment, and rejecting a booking
// closes it.
type Payments interface {
	OpenForBooking(ctx context.Context, userID, bookingID string, amount float64) error
	RejectPendingForBooking(ctx context.Context, bookingID string) error
}

// Service implements the seat booking ledger.
type Service struct {
	store    Store
	payments Payments
	capacity int
}

// NewService builds the booking service. capacity is the per-shift seat
// count.
func NewService(store Store, payments Payments, capacity int) *Service {
	if capacity <= 0 {
		capacity = 50
	}
	return &Service{store: store, payments: payments, capacity: capacity}
}

// Request reserves a seat pending admin approval. The duplicate checks here
// are advisory; the unique indexes give the authoritative verdict at insert
// and at approval time.
func (s *Service) Request(ctx context.Context, userID, shiftName, seatNumber string, date time.Time) (*Booking, error) {
	sh, err := shift.Parse(shiftName)
	if err != nil {
		return nil, apperr.Validation("unknown shift %q", shiftName)
	}
	seatNumber = strings.ToUpper(strings.TrimSpace(seatNumber))
	if seatNumber == "" {
		return nil, apperr.Validation("seat number is required")
	}

	if taken, err := s.store.HasActiveForUser(ctx, userID, sh, date); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.ErrAlreadyBooked
	}
	if occupied, err := s.store.SeatBooked(ctx, sh, seatNumber, date); err != nil {
		return nil, err
	} else if occupied {
		metrics.SeatConflicts.Inc()
		return nil, apperr.ErrSeatTaken
	}

	b := Booking{
		ID:          uuid.NewString(),
		UserID:      userID,
		Shift:       sh,
		SeatNumber:  seatNumber,
		Status:      StatusPending,
		BookingDate: date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}

	if err := s.payments.OpenForBooking(ctx, userID, b.ID, shift.PriceOf(sh)); err != nil {
		// Without a payment the booking can never be approved; release the
		// seat rather than leave an unapprovable pending row.
		_, _ = s.store.Delete(ctx, b.ID)
		return nil, err
	}

	metrics.BookingRequests.WithLabelValues(string(sh)).Inc()
	return &b, nil
}

// Approve transitions pending -> booked. The seat-uniqueness invariant is
// re-checked at this commit point by the storage layer; this is the only
// authoritative enforcement, so a constraint rejection here surfaces as
// ErrSeatTaken rather than success.
func (s *Service) Approve(ctx context.Context, bookingID string) error {
	if err := s.store.SetBooked(ctx, bookingID); err != nil {
		if apperr.CodeOf(err) == apperr.ErrSeatTaken.Code {
			metrics.SeatConflicts.Inc()
		}
		return err
	}
	metrics.BookingApprovals.Inc()
	return nil
}

// Reject releases a pending booking, freeing the seat, and reverts the
// linked payment to rejected. The row is kept: payment rows reference it and
// the released status is the rejection record.
func (s *Service) Reject(ctx context.Context, bookingID string) error {
	if err := s.Release(ctx, bookingID); err != nil {
		return err
	}
	return s.payments.RejectPendingForBooking(ctx, bookingID)
}

// Release marks a pending booking available without touching the payment
// workflow; the payment workflow uses it when the rejection originated
// there. Only pending rows move: an approved booking is terminal and a
// replayed release of an already-available row stays harmless.
func (s *Service) Release(ctx context.Context, bookingID string) error {
	ok, err := s.store.SetAvailable(ctx, bookingID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	b, err := s.store.ByID(ctx, bookingID)
	if err != nil {
		return err
	}
	switch {
	case b == nil:
		return apperr.ErrNotFound
	case b.Status == StatusBooked:
		return apperr.ErrBookingFinalized
	default:
		return nil
	}
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	b, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.ErrNotFound
	}
	return b, nil
}

// Availability returns free seats for a shift/date: capacity minus booked
// rows. Pending requests deliberately do not consume capacity; only admin
// approval is authoritative.
func (s *Service) Availability(ctx context.Context, shiftName string, date time.Time) (int, error) {
	sh, err := shift.Parse(shiftName)
	if err != nil {
		return 0, apperr.Validation("unknown shift %q", shiftName)
	}
	booked, err := s.store.CountBooked(ctx, sh, date)
	if err != nil {
		return 0, err
	}
	free := s.capacity - booked
	if free < 0 {
		free = 0
	}
	return free, nil
}

// ListForUser returns the user's bookings for a date.
func (s *Service) ListForUser(ctx context.Context, userID string, date time.Time) ([]Booking, error) {
	return s.store.ListForUser(ctx, userID, date)
}
