package errors

import (
	"fmt"
	"testing"
)

func TestValidationErrorUnwrapsToInvalidParameter(t *testing.T) {
	err := NewValidationError("spot", -1.0, "must be positive")
	if !Is(err, ErrInvalidParameter) {
		t.Fatalf("expected %v to match ErrInvalidParameter", err)
	}

	wrapped := Wrapf(err, "pricing %s", "call")
	var ve *ValidationError
	if !As(wrapped, &ve) {
		t.Fatalf("expected ValidationError in chain of %v", wrapped)
	}
	if ve.Field != "spot" {
		t.Errorf("Field = %q, want spot", ve.Field)
	}
}

func TestPricingErrorKeepsCause(t *testing.T) {
	err := NewPricingError("formula", ErrMissingCostOfCarry)
	if !Is(err, ErrMissingCostOfCarry) {
		t.Fatalf("expected cause to survive wrapping")
	}
	want := "pricing error [formula]: " + ErrMissingCostOfCarry.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDataErrorWithoutCause(t *testing.T) {
	err := NewDataError("save_quote", "no rows", nil)
	if !Is(err, ErrDatabaseError) {
		t.Fatalf("expected DataError without cause to match ErrDatabaseError")
	}
	if got := NewDataError("save_quote", "insert", fmt.Errorf("disk full")).Error(); got != "data error [save_quote]: insert: disk full" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}
