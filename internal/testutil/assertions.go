package testutil

import (
	"errors"
	"testing"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertValidationError checks that err is a *ValidationError reporting
// exactly the expected fields.
func AssertValidationError(t *testing.T, err error, fields ...string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected ValidationError for fields %v, got nil", fields)
	}

	var valErr *apperrors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}

	for _, f := range fields {
		if _, ok := valErr.Fields[f]; !ok {
			t.Errorf("expected validation message for field %q, got fields %v", f, valErr.Fields)
		}
	}
	if len(valErr.Fields) != len(fields) {
		t.Errorf("expected exactly %d violated fields, got %v", len(fields), valErr.Fields)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
