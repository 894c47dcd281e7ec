package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeValidation, "percentage out of range")
	if !HasCode(err, CodeValidation) {
		t.Fatalf("expected CodeValidation on %v", err)
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("did not expect CodeNotFound on %v", err)
	}
	if HasCode(errors.New("plain"), CodeValidation) {
		t.Fatalf("plain errors must not match any code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load asset")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if !HasCode(err, CodeInternal) {
		t.Fatalf("expected CodeInternal, got %v", CodeOf(err))
	}
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("save step: %w", New(CodeValidation, "step out of range"))
	if !HasCode(err, CodeValidation) {
		t.Fatalf("expected code to survive fmt.Errorf wrapping")
	}
}

func TestCodeOfFallsBackToInternal(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("expected internal_error fallback, got %q", got)
	}
}
