package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := fmt.Errorf("constraint uq_seat_booked violated")
	err := Wrap(ErrSeatTaken, cause)

	if !errors.Is(err, ErrSeatTaken) {
		t.Error("wrapped error lost sentinel identity")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}
	if CodeOf(err) != "SEAT_TAKEN" {
		t.Errorf("code = %q", CodeOf(err))
	}
}

func TestKindAndStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{ErrSeatTaken, KindConflict, http.StatusConflict},
		{ErrOutsideShiftWindow, KindValidation, http.StatusBadRequest},
		{ErrInvalidCredentials, KindAuth, http.StatusUnauthorized},
		{ErrNotFound, KindNotFound, http.StatusNotFound},
		{Validation("seat number out of range"), KindValidation, http.StatusBadRequest},
		{errors.New("plain failure"), KindUnexpected, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.kind)
		}
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestDistinctSentinelsAreNotIs(t *testing.T) {
	if errors.Is(ErrSeatTaken, ErrAlreadyBooked) {
		t.Error("distinct sentinels compared equal")
	}
	if CodeOf(errors.New("db down")) != "INTERNAL" {
		t.Errorf("unclassified code = %q", CodeOf(errors.New("db down")))
	}
}
