package validation

import (
	"errors"
	"testing"
)

func TestErrNilWhenEmpty(t *testing.T) {
	var errs Errors
	if err := errs.Err(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestErrCarriesEveryField(t *testing.T) {
	var errs Errors
	errs.Add("license_plate", "invalid_license_plate", "too short")
	errs.Add("customer_mobile", "invalid_customer_mobile", "too short")

	err := errs.Err()
	var vErr *Errors
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *Errors, got %T", err)
	}
	if len(vErr.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(vErr.Fields))
	}
	if !vErr.Has("license_plate") || !vErr.Has("customer_mobile") {
		t.Fatalf("expected both fields to be reported: %v", vErr)
	}
	if vErr.Has("customer_class") {
		t.Fatalf("unexpected field reported")
	}
}
