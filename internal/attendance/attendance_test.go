package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyhall/internal/apperr"
	"studyhall/internal/shift"
)

type fakeStore struct {
	rows map[string]*Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]*Record{}}
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (f *fakeStore) Insert(ctx context.Context, rec Record) error {
	for _, r := range f.rows {
		if r.UserID == rec.UserID && r.Shift == rec.Shift && sameDay(r.Date, rec.Date) && r.Status == rec.Status {
			return apperr.ErrAlreadyCheckedIn
		}
	}
	cp := rec
	f.rows[rec.ID] = &cp
	return nil
}

func (f *fakeStore) PresentRow(ctx context.Context, userID string, sh shift.Shift, date time.Time) (*Record, error) {
	for _, r := range f.rows {
		if r.UserID == userID && r.Shift == sh && sameDay(r.Date, date) && r.Status == StatusPresent {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ByID(ctx context.Context, id string) (*Record, error) {
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) SetCheckOut(ctx context.Context, id string, t time.Time) (bool, error) {
	r, ok := f.rows[id]
	if !ok || r.CheckIn == nil || r.CheckOut != nil {
		return false, nil
	}
	r.CheckOut = &t
	return true, nil
}

func (f *fakeStore) ListForDay(ctx context.Context, userID string, date time.Time) ([]Record, error) {
	var res []Record
	for _, r := range f.rows {
		if r.UserID == userID && sameDay(r.Date, date) {
			res = append(res, *r)
		}
	}
	return res, nil
}

func at(hour, min int) time.Time {
	return time.Date(2025, 1, 10, hour, min, 0, 0, time.UTC)
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, nil, 0), store
}

func TestCheckInThenDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec, err := svc.CheckIn(ctx, "user-1", "evening", at(18, 0))
	if err != nil {
		t.Fatalf("check-in at 18:00: %v", err)
	}
	if rec.Status != StatusPresent || rec.CheckIn == nil {
		t.Errorf("record = %+v", rec)
	}

	_, err = svc.CheckIn(ctx, "user-1", "evening", at(18, 30))
	if !errors.Is(err, apperr.ErrAlreadyCheckedIn) {
		t.Errorf("duplicate check-in: got %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestCheckInOutsideWindow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.CheckIn(ctx, "user-1", "morning", at(12, 0))
	if !errors.Is(err, apperr.ErrOutsideShiftWindow) {
		t.Errorf("morning check-in at noon: got %v, want ErrOutsideShiftWindow", err)
	}
}

func TestCheckInAfterCompletedShift(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec, err := svc.CheckIn(ctx, "user-1", "evening", at(17, 0))
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := svc.CheckOut(ctx, rec.ID, "evening", at(19, 0)); err != nil {
		t.Fatalf("check-out: %v", err)
	}

	_, err = svc.CheckIn(ctx, "user-1", "evening", at(19, 30))
	if !errors.Is(err, apperr.ErrShiftAlreadyCompleted) {
		t.Errorf("check-in after completion: got %v, want ErrShiftAlreadyCompleted", err)
	}
}

func TestCheckOut(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	rec, err := svc.CheckIn(ctx, "user-1", "noon", at(12, 0))
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}

	if _, err := svc.CheckOut(ctx, rec.ID, "noon", at(16, 30)); !errors.Is(err, apperr.ErrOutsideShiftWindow) {
		t.Errorf("check-out after window: got %v, want ErrOutsideShiftWindow", err)
	}

	out, err := svc.CheckOut(ctx, rec.ID, "noon", at(15, 0))
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if out.CheckOut == nil {
		t.Error("check-out time not set")
	}

	if _, err := svc.CheckOut(ctx, rec.ID, "noon", at(15, 30)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second check-out: got %v, want ErrNotFound", err)
	}
	if stored := store.rows[rec.ID]; stored.CheckOut == nil || !stored.CheckOut.Equal(at(15, 0)) {
		t.Errorf("stored check-out = %v, want 15:00", stored.CheckOut)
	}
}

func TestCheckOutMissingRow(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.CheckOut(context.Background(), "no-row", "noon", at(12, 0)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestOpenRowAllowedPerShift(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	// Different shifts on the same day are independent sessions.
	if _, err := svc.CheckIn(ctx, "user-1", "morning", at(9, 0)); err != nil {
		t.Fatalf("morning: %v", err)
	}
	if _, err := svc.CheckIn(ctx, "user-1", "noon", at(12, 0)); err != nil {
		t.Fatalf("noon: %v", err)
	}
}

func TestClassify(t *testing.T) {
	checkIn := at(9, 0)
	checkOut := at(10, 0)
	day := at(0, 0)

	cases := []struct {
		name string
		rows []Record
		sh   shift.Shift
		now  time.Time
		want DayStatus
	}{
		{"completed session", []Record{{Shift: shift.Morning, Status: StatusPresent, CheckIn: &checkIn, CheckOut: &checkOut, Date: day}}, shift.Morning, at(12, 0), DayPresent},
		{"open session", []Record{{Shift: shift.Morning, Status: StatusPresent, CheckIn: &checkIn, Date: day}}, shift.Morning, at(10, 0), DayCheckedIn},
		{"absent row", []Record{{Shift: shift.Morning, Status: StatusAbsent, Reason: ReasonNoCheckin, Date: day}}, shift.Morning, at(12, 0), DayAbsent},
		{"no rows before end", nil, shift.Evening, at(18, 0), DayPending},
		{"no rows after end", nil, shift.Morning, at(12, 0), DayAbsent},
		{"other shift ignored", []Record{{Shift: shift.Noon, Status: StatusPresent, CheckIn: &checkIn, Date: day}}, shift.Evening, at(12, 0), DayPending},
	}
	for _, tc := range cases {
		if got := Classify(tc.rows, tc.sh, tc.now); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
