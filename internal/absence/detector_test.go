package absence

import (
	"context"
	"testing"
	"time"

	"studyhall/internal/admission"
	"studyhall/internal/attendance"
	"studyhall/internal/shift"
)

type fakeAdmissions struct {
	list []admission.Admission
}

func (f *fakeAdmissions) ListPaid(ctx context.Context) ([]admission.Admission, error) {
	return f.list, nil
}

type fakeAttendance struct {
	checkIns map[string]bool
	absents  map[string]bool
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{checkIns: map[string]bool{}, absents: map[string]bool{}}
}

func key(userID string, sh shift.Shift, date time.Time) string {
	return userID + "|" + string(sh) + "|" + date.Format("2006-01-02")
}

func (f *fakeAttendance) HasCheckIn(ctx context.Context, userID string, sh shift.Shift, date time.Time) (bool, error) {
	return f.checkIns[key(userID, sh, date)], nil
}

func (f *fakeAttendance) InsertAbsent(ctx context.Context, rec attendance.Record) (bool, error) {
	k := key(rec.UserID, rec.Shift, rec.Date)
	if f.absents[k] {
		return false, nil
	}
	f.absents[k] = true
	return true, nil
}

func paidAdmission(userID string, shifts ...shift.Shift) admission.Admission {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)
	return admission.Admission{
		ID:             "adm-" + userID,
		UserID:         userID,
		Shifts:         shifts,
		DurationMonths: 3,
		PaymentStatus:  admission.PaymentPaid,
		StartDate:      &start,
		EndDate:        &end,
	}
}

var (
	sweepDate = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	noonTime  = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
)

func TestSweepMarksMissingCheckIns(t *testing.T) {
	ctx := context.Background()
	admissions := &fakeAdmissions{list: []admission.Admission{paidAdmission("user-1", shift.Morning)}}
	att := newFakeAttendance()
	d := NewDetector(admissions, att)

	res, err := d.Sweep(ctx, sweepDate, noonTime)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.AbsentCount != 1 {
		t.Fatalf("absentCount = %d, want 1", res.AbsentCount)
	}
	got := res.AbsentStudents[0]
	if got.UserID != "user-1" || got.Shift != shift.Morning {
		t.Errorf("flagged pair = %+v", got)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	admissions := &fakeAdmissions{list: []admission.Admission{paidAdmission("user-1", shift.Morning)}}
	att := newFakeAttendance()
	d := NewDetector(admissions, att)

	if _, err := d.Sweep(ctx, sweepDate, noonTime); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	res, err := d.Sweep(ctx, sweepDate, time.Date(2025, 1, 10, 13, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if res.AbsentCount != 0 {
		t.Errorf("second sweep marked %d rows, want 0", res.AbsentCount)
	}
	if len(att.absents) != 1 {
		t.Errorf("absent rows = %d, want 1", len(att.absents))
	}
}

func TestSweepSkipsCheckedInAndUnendedShifts(t *testing.T) {
	ctx := context.Background()
	admissions := &fakeAdmissions{list: []admission.Admission{
		paidAdmission("user-1", shift.Morning, shift.Evening),
		paidAdmission("user-2", shift.Morning),
	}}
	att := newFakeAttendance()
	att.checkIns[key("user-2", shift.Morning, sweepDate)] = true
	d := NewDetector(admissions, att)

	res, err := d.Sweep(ctx, sweepDate, noonTime)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// Evening has not ended at noon and user-2 checked in; only user-1's
	// morning qualifies.
	if res.AbsentCount != 1 {
		t.Errorf("absentCount = %d, want 1", res.AbsentCount)
	}
}

func TestSweepSkipsAdmissionsOutsidePeriod(t *testing.T) {
	ctx := context.Background()
	a := paidAdmission("user-1", shift.Morning)
	expiredEnd := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	a.EndDate = &expiredEnd
	unpaid := paidAdmission("user-2", shift.Morning)
	unpaid.PaymentStatus = admission.PaymentPending

	admissions := &fakeAdmissions{list: []admission.Admission{a, unpaid}}
	d := NewDetector(admissions, newFakeAttendance())

	res, err := d.Sweep(ctx, sweepDate, noonTime)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.AbsentCount != 0 {
		t.Errorf("absentCount = %d, want 0", res.AbsentCount)
	}
}
