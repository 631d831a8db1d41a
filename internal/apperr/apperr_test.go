package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindNotFound, "no such item")); got != KindNotFound {
		t.Errorf("expected KindNotFound, got %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("plain error should default to KindInternal, got %v", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("nil should default to KindInternal, got %v", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindForbidden, "not the author")
	outer := fmt.Errorf("editing item: %w", inner)

	if got := KindOf(outer); got != KindForbidden {
		t.Errorf("kind lost through fmt.Errorf: got %v", got)
	}
	if !errors.Is(outer, inner) {
		t.Error("wrapped error should still match errors.Is")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(KindInternal, "query failed", nil) != nil {
		t.Error("wrapping nil should return nil")
	}

	cause := errors.New("disk full")
	err := Wrap(KindInternal, "query failed", cause)
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable via errors.Is")
	}
	if err.Error() != "query failed: disk full" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(New(KindNotFound, "gone")) {
		t.Error("IsNotFound should match KindNotFound")
	}
	if IsNotFound(New(KindValidation, "bad input")) {
		t.Error("IsNotFound should not match KindValidation")
	}
	if !IsValidation(Newf(KindValidation, "comment exceeds %d characters", 2000)) {
		t.Error("IsValidation should match KindValidation")
	}
}
