package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(KindTeamFull, "team is full")
	wrapped := fmt.Errorf("invite ally: %w", base)

	if got := KindOf(wrapped); got != KindTeamFull {
		t.Fatalf("KindOf wrapped got=%s want=%s", got, KindTeamFull)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf plain got=%s want=%s", got, KindInternal)
	}
	if !errors.Is(wrapped, New(KindTeamFull, "other text")) {
		t.Fatalf("errors.Is should match by kind")
	}
	if errors.Is(wrapped, New(KindDuplicateInvitation, "")) {
		t.Fatalf("errors.Is should not match a different kind")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "settle combat", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
	if Message(err) != "settle combat" {
		t.Fatalf("message mismatch: %s", Message(err))
	}
	if Message(cause) != "internal error" {
		t.Fatalf("plain errors should not leak their text")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindNotChallengeTarget, http.StatusForbidden},
		{KindInvalidComponent, http.StatusBadRequest},
		{KindInsufficientCredits, http.StatusPaymentRequired},
		{KindChallengeExpired, http.StatusGone},
		{KindTeamFull, http.StatusConflict},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.kind.HTTPStatus(); got != tc.want {
			t.Fatalf("kind=%s got=%d want=%d", tc.kind, got, tc.want)
		}
	}
}
