package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for logging and HTTP mapping.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindForbidden
	KindNotFound
)

// Domain conflicts surfaced by the ledgers. Callers are expected to
// re-fetch state before retrying any of these.
var (
	ErrAlreadyBooked         = &Error{Kind: KindConflict, Code: "ALREADY_BOOKED", Message: "an active booking already exists for this shift and date"}
	ErrSeatTaken             = &Error{Kind: KindConflict, Code: "SEAT_TAKEN", Message: "seat is already booked for this shift and date"}
	ErrAlreadyCheckedIn      = &Error{Kind: KindConflict, Code: "ALREADY_CHECKED_IN", Message: "an open check-in already exists for this shift today"}
	ErrShiftAlreadyCompleted = &Error{Kind: KindConflict, Code: "SHIFT_COMPLETED", Message: "attendance for this shift is already completed today"}
	ErrDuplicateRequest      = &Error{Kind: KindConflict, Code: "DUPLICATE_REQUEST", Message: "a pending payment already exists for this target"}
	ErrBookingFinalized      = &Error{Kind: KindConflict, Code: "BOOKING_FINALIZED", Message: "booking has already been approved"}
	ErrPaymentFinalized      = &Error{Kind: KindConflict, Code: "PAYMENT_FINALIZED", Message: "payment has already been approved or rejected"}
	ErrOutsideShiftWindow    = &Error{Kind: KindValidation, Code: "OUTSIDE_SHIFT_WINDOW", Message: "current time is outside the shift window"}
	ErrNotFound              = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "resource not found"}
	ErrInvalidCredentials    = &Error{Kind: KindAuth, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrAccountNotApproved    = &Error{Kind: KindAuth, Code: "ACCOUNT_NOT_APPROVED", Message: "account is awaiting admin approval"}
	ErrEmailTaken            = &Error{Kind: KindConflict, Code: "EMAIL_TAKEN", Message: "an account with this email already exists"}
)

// Error is a classified domain error with a stable machine code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is makes sentinel comparison work across wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Validation builds a request-shaped validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a sentinel without losing its identity.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: sentinel.Message, cause: cause}
}

// KindOf reports the kind of err, KindUnexpected for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// CodeOf returns the machine code for err, "INTERNAL" when unclassified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// HTTPStatus maps an error to the status its kind calls for.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
