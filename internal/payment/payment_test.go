package payment

import (
	"context"
	"errors"
	"testing"

	"studyhall/internal/apperr"
)

type fakeStore struct {
	payments map[string]*CashPayment
	audits   []AuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{payments: map[string]*CashPayment{}}
}

func (f *fakeStore) Insert(ctx context.Context, p CashPayment) error {
	// The pending-per-target indexes are partial: only a pending insert can
	// collide with an existing pending row.
	if p.Status == StatusPending {
		for _, other := range f.payments {
			if other.Status != StatusPending {
				continue
			}
			sameBooking := p.BookingID != nil && other.BookingID != nil && *p.BookingID == *other.BookingID
			sameAdmission := p.AdmissionID != nil && other.AdmissionID != nil && *p.AdmissionID == *other.AdmissionID
			if sameBooking || sameAdmission {
				return apperr.ErrDuplicateRequest
			}
		}
	}
	cp := p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakeStore) ByID(ctx context.Context, id string) (*CashPayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, id, from, to string) (bool, error) {
	p, ok := f.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (f *fakeStore) RejectPendingForBooking(ctx context.Context, bookingID string) error {
	for _, p := range f.payments {
		if p.Status == StatusPending && p.BookingID != nil && *p.BookingID == bookingID {
			p.Status = StatusRejected
		}
	}
	return nil
}

func (f *fakeStore) ListByStatus(ctx context.Context, status string) ([]CashPayment, error) {
	var out []CashPayment
	for _, p := range f.payments {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertAudit(ctx context.Context, e AuditEntry) error {
	f.audits = append(f.audits, e)
	return nil
}

type fakeBookings struct {
	approveErr error
	approved   []string
	released   []string
}

func (f *fakeBookings) Approve(ctx context.Context, bookingID string) error {
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved = append(f.approved, bookingID)
	return nil
}

func (f *fakeBookings) Release(ctx context.Context, bookingID string) error {
	f.released = append(f.released, bookingID)
	return nil
}

type fakeAdmissions struct {
	activated []string
}

func (f *fakeAdmissions) Activate(ctx context.Context, admissionID string) error {
	f.activated = append(f.activated, admissionID)
	return nil
}

type fakeNotifier struct {
	sent int
}

func (f *fakeNotifier) Notify(ctx context.Context, userID, title, message, typ string) {
	f.sent++
}

func newService(store *fakeStore) (*Service, *fakeBookings, *fakeAdmissions, *fakeNotifier) {
	b := &fakeBookings{}
	a := &fakeAdmissions{}
	n := &fakeNotifier{}
	return NewService(store, b, a, n), b, a, n
}

func TestSubmitCashDuplicatePerTarget(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _, _, _ := newService(store)

	if _, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647)
	if !errors.Is(err, apperr.ErrDuplicateRequest) {
		t.Fatalf("second submit err = %v, want ErrDuplicateRequest", err)
	}
}

func TestSubmitCashValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService(newFakeStore())

	if _, err := svc.SubmitCash(ctx, "user-1", "", "", 100); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("no target err = %v, want validation", err)
	}
	if _, err := svc.SubmitCash(ctx, "user-1", "bkg-1", "adm-1", 100); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("both targets err = %v, want validation", err)
	}
	if _, err := svc.SubmitCash(ctx, "user-1", "bkg-1", "", 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("zero amount err = %v, want validation", err)
	}
}

func TestApproveBookingTarget(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, bookings, _, notifier := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "bkg-1", "", 599)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Approve(ctx, p.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := store.payments[p.ID].Status; got != StatusApproved {
		t.Errorf("status = %q, want approved", got)
	}
	if len(bookings.approved) != 1 || bookings.approved[0] != "bkg-1" {
		t.Errorf("bookings approved = %v", bookings.approved)
	}
	if len(store.audits) != 1 || store.audits[0].Action != StatusApproved {
		t.Errorf("audit = %+v", store.audits)
	}
	if notifier.sent != 1 {
		t.Errorf("notifications sent = %d, want 1", notifier.sent)
	}
}

func TestApproveRevertsClaimWhenSeatTaken(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, bookings, _, _ := newService(store)
	bookings.approveErr = apperr.ErrSeatTaken

	p, err := svc.SubmitCash(ctx, "user-1", "bkg-1", "", 599)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Approve(ctx, p.ID, "admin-1"); !errors.Is(err, apperr.ErrSeatTaken) {
		t.Fatalf("approve err = %v, want ErrSeatTaken", err)
	}
	if got := store.payments[p.ID].Status; got != StatusPending {
		t.Errorf("status after revert = %q, want pending", got)
	}
	if len(store.audits) != 0 {
		t.Errorf("audit written for failed approval: %+v", store.audits)
	}
}

func TestApproveAdmissionTarget(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _, admissions, _ := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Approve(ctx, p.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(admissions.activated) != 1 || admissions.activated[0] != "adm-1" {
		t.Errorf("activated = %v", admissions.activated)
	}
}

func TestFinalizedPaymentCannotBeReDecided(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _, _, _ := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Approve(ctx, p.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.Reject(ctx, p.ID, "admin-2"); !errors.Is(err, apperr.ErrPaymentFinalized) {
		t.Errorf("reject after approve err = %v, want ErrPaymentFinalized", err)
	}
	if err := svc.Approve(ctx, p.ID, "admin-2"); !errors.Is(err, apperr.ErrPaymentFinalized) {
		t.Errorf("double approve err = %v, want ErrPaymentFinalized", err)
	}
}

func TestRejectBookingTargetFreesSeat(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, bookings, _, notifier := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "bkg-1", "", 599)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Reject(ctx, p.ID, "admin-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// The payment row survives the rejection as the durable record; only
	// its status moves, and the audit entry references it.
	rejected, ok := store.payments[p.ID]
	if !ok {
		t.Fatal("payment row gone after rejection")
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if len(store.audits) != 1 || store.audits[0].PaymentID != p.ID || store.audits[0].Action != StatusRejected {
		t.Errorf("audit = %+v, want one rejected entry for %s", store.audits, p.ID)
	}
	if len(bookings.released) != 1 || bookings.released[0] != "bkg-1" {
		t.Errorf("bookings released = %v", bookings.released)
	}
	if notifier.sent != 1 {
		t.Errorf("notifications sent = %d, want 1", notifier.sent)
	}
}

func TestRecordUPIWritesApprovedHistory(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _, _, _ := newService(store)

	if err := svc.RecordUPI(ctx, "user-1", "adm-1", 1647); err != nil {
		t.Fatalf("record upi: %v", err)
	}
	approved, err := store.ListByStatus(ctx, StatusApproved)
	if err != nil || len(approved) != 1 {
		t.Fatalf("approved = %v, err = %v", approved, err)
	}
	got := approved[0]
	if got.Method != MethodUPI || got.AdmissionID == nil || *got.AdmissionID != "adm-1" || got.Amount != 1647 {
		t.Errorf("history row = %+v", got)
	}

	// An approved history row does not occupy the pending-per-target slot:
	// a later cash submission for the same admission still goes through.
	if _, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647); err != nil {
		t.Errorf("cash submit after upi history: %v", err)
	}
}

func TestRejectAdmissionTargetLeavesAdmissionPending(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, bookings, admissions, _ := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Reject(ctx, p.ID, "admin-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(admissions.activated) != 0 {
		t.Errorf("admission activated on rejection: %v", admissions.activated)
	}
	if len(bookings.released) != 0 {
		t.Errorf("booking touched for admission target: %v", bookings.released)
	}
}

func TestPendingListAndGet(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _, _, _ := newService(store)

	p, err := svc.SubmitCash(ctx, "user-1", "", "adm-1", 1647)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	pending, err := svc.PendingList(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, err = %v", pending, err)
	}
	got, err := svc.Get(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get = %+v, err = %v", got, err)
	}
	if _, err := svc.Get(ctx, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("get missing err = %v, want not found", err)
	}
}
