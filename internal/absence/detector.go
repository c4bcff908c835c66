package absence

import (
	"context"
	"log"
	"time"

	"studyhall/internal/admission"
	"studyhall/internal/attendance"
	"studyhall/internal/metrics"
	"studyhall/internal/shift"

	"github.com/google/uuid"
)

// Admissions is the slice of the admission ledger the sweep reads.
type Admissions interface {
	ListPaid(ctx context.Context) ([]admission.Admission, error)
}

// Attendance is the slice of the attendance ledger the sweep reads and
// writes. InsertAbsent must be idempotent per (user, shift, date).
type Attendance interface {
	HasCheckIn(ctx context.Context, userID string, sh shift.Shift, date time.Time) (bool, error)
	InsertAbsent(ctx context.Context, rec attendance.Record) (bool, error)
}

// Pair identifies one newly-flagged absence.
type Pair struct {
	UserID string      `json:"user_id"`
	Shift  shift.Shift `json:"shift"`
}

// Result summarizes one sweep run. AbsentCount covers only rows created by
// this run; re-running for an already-swept date reports zero.
type Result struct {
	Date           string `json:"date"`
	AbsentCount    int    `json:"absentCount"`
	AbsentStudents []Pair `json:"absentStudents"`
}

// Detector materializes absent rows for enrolled shifts that ended with no
// check-in. It is invoked on demand (HTTP or an external scheduler); it
// never schedules itself.
type Detector struct {
	admissions Admissions
	attendance Attendance
}

// NewDetector builds the detector.
func NewDetector(admissions Admissions, attendance Attendance) *Detector {
	return &Detector{admissions: admissions, attendance: attendance}
}

// Sweep scans every active paid admission for date and inserts an absent
// row per (user, shift) whose window has ended at now with no check-in.
// A check-in landing concurrently with the scan may be missed once; the
// idempotent insert guarantees it is never double-marked.
func (d *Detector) Sweep(ctx context.Context, date, now time.Time) (Result, error) {
	res := Result{Date: date.Format("2006-01-02"), AbsentStudents: []Pair{}}

	admissions, err := d.admissions.ListPaid(ctx)
	if err != nil {
		return res, err
	}

	for _, a := range admissions {
		if !a.Covers(date) {
			continue
		}
		for _, sh := range a.Shifts {
			if !shift.HasEnded(sh, now) {
				continue
			}
			checkedIn, err := d.attendance.HasCheckIn(ctx, a.UserID, sh, date)
			if err != nil {
				return res, err
			}
			if checkedIn {
				continue
			}
			inserted, err := d.attendance.InsertAbsent(ctx, attendance.Record{
				ID:     uuid.NewString(),
				UserID: a.UserID,
				Shift:  sh,
				Date:   date,
				Status: attendance.StatusAbsent,
				Reason: attendance.ReasonNoCheckin,
			})
			if err != nil {
				return res, err
			}
			if inserted {
				res.AbsentCount++
				res.AbsentStudents = append(res.AbsentStudents, Pair{UserID: a.UserID, Shift: sh})
				metrics.AbsencesMarked.Inc()
			}
		}
	}

	if res.AbsentCount > 0 {
		log.Printf("absence sweep for %s flagged %d student-shift pairs", res.Date, res.AbsentCount)
	}
	return res, nil
}
