package attendance

import (
	"context"
	"fmt"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/lock"
	"studyhall/internal/metrics"
	"studyhall/internal/shift"

	"github.com/google/uuid"
)

// Row statuses. Absent rows are written only by the sweep.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// ReasonNoCheckin marks sweep-generated absent rows.
const ReasonNoCheckin = "no_checkin"

// Record is one attendance row for a (user, shift, date).
type Record struct {
	ID       string      `json:"id"`
	UserID   string      `json:"user_id"`
	Shift    shift.Shift `json:"shift"`
	Date     time.Time   `json:"date"`
	CheckIn  *time.Time  `json:"check_in_time,omitempty"`
	CheckOut *time.Time  `json:"check_out_time,omitempty"`
	Status   string      `json:"status"`
	Reason   string      `json:"reason,omitempty"`
}

// Open reports whether the record is an open check-in.
func (r Record) Open() bool {
	return r.Status == StatusPresent && r.CheckIn != nil && r.CheckOut == nil
}

// Store persists attendance rows. Insert must map a unique rejection on the
// (user, shift, date, status) index to ErrAlreadyCheckedIn.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	PresentRow(ctx context.Context, userID string, sh shift.Shift, date time.Time) (*Record, error)
	ByID(ctx context.Context, id string) (*Record, error)
	SetCheckOut(ctx context.Context, id string, t time.Time) (bool, error)
	ListForDay(ctx context.Context, userID string, date time.Time) ([]Record, error)
}

// Service implements check-in/check-out with shift-window enforcement.
type Service struct {
	store   Store
	locker  lock.Locker
	lockTTL time.Duration
}

// NewService builds the attendance service. The locker serializes the
// read-then-insert window per (user, shift, date); the unique index remains
// the backstop when locking is disabled.
func NewService(store Store, locker lock.Locker, lockTTL time.Duration) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	return &Service{store: store, locker: locker, lockTTL: lockTTL}
}

// CheckIn opens a present-track row for today's shift.
func (s *Service) CheckIn(ctx context.Context, userID, shiftName string, now time.Time) (*Record, error) {
	sh, err := shift.Parse(shiftName)
	if err != nil {
		return nil, apperr.Validation("unknown shift %q", shiftName)
	}
	if !shift.IsNowWithin(sh, now) {
		return nil, apperr.ErrOutsideShiftWindow
	}

	key := fmt.Sprintf("checkin:%s:%s:%s", userID, sh, now.Format("2006-01-02"))
	got, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !got {
		// Another check-in for the same (user, shift, day) is in flight.
		return nil, apperr.ErrAlreadyCheckedIn
	}
	defer func() { _ = s.locker.Release(ctx, key) }()

	existing, err := s.store.PresentRow(ctx, userID, sh, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Open() {
			return nil, apperr.ErrAlreadyCheckedIn
		}
		return nil, apperr.ErrShiftAlreadyCompleted
	}

	checkIn := now
	rec := Record{
		ID:      uuid.NewString(),
		UserID:  userID,
		Shift:   sh,
		Date:    now,
		CheckIn: &checkIn,
		Status:  StatusPresent,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	metrics.CheckIns.WithLabelValues(string(sh)).Inc()
	return &rec, nil
}

// CheckOut closes an open check-in. The row id must come from the caller's
// same-day result set; only the shift window is re-validated here.
func (s *Service) CheckOut(ctx context.Context, attendanceID, shiftName string, now time.Time) (*Record, error) {
	sh, err := shift.Parse(shiftName)
	if err != nil {
		return nil, apperr.Validation("unknown shift %q", shiftName)
	}
	if !shift.IsNowWithin(sh, now) {
		return nil, apperr.ErrOutsideShiftWindow
	}

	ok, err := s.store.SetCheckOut(ctx, attendanceID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	rec, err := s.store.ByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	metrics.CheckOuts.WithLabelValues(string(sh)).Inc()
	return rec, nil
}

// ListForDay returns the user's attendance rows for a date.
func (s *Service) ListForDay(ctx context.Context, userID string, date time.Time) ([]Record, error) {
	return s.store.ListForDay(ctx, userID, date)
}

// DayStatus is the derived per-shift classification. It is computed from
// raw rows and never persisted.
type DayStatus string

const (
	DayPresent   DayStatus = "present"
	DayCheckedIn DayStatus = "checkedIn"
	DayAbsent    DayStatus = "absent"
	DayPending   DayStatus = "pending"
)

// Classify derives the status of one shift from the day's rows: a completed
// present-track row wins, then an open check-in, then a materialized absent
// row. With no rows the shift is pending until its window ends.
func Classify(rows []Record, sh shift.Shift, now time.Time) DayStatus {
	var absent bool
	for _, r := range rows {
		if r.Shift != sh {
			continue
		}
		switch r.Status {
		case StatusPresent:
			if r.CheckIn != nil && r.CheckOut != nil {
				return DayPresent
			}
			if r.CheckIn != nil {
				return DayCheckedIn
			}
		case StatusAbsent:
			absent = true
		}
	}
	if absent {
		return DayAbsent
	}
	if shift.HasEnded(sh, now) {
		return DayAbsent
	}
	return DayPending
}
