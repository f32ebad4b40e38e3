package netstack

import (
	"errors"
	"testing"
)

func TestValidatorAccumulates(t *testing.T) {
	var v Validator
	if v.HasError() {
		t.Fatal("zero value should have no error")
	}
	errA := errors.New("a")
	errB := errors.New("b")
	v.AddError(errA)
	v.AddError(errB)
	if !v.HasError() {
		t.Fatal("expected HasError after AddError")
	}
	if got := v.Err(); got != errA {
		t.Fatalf("Err() should return the first error, got %v", got)
	}
	v.ResetErr()
	if v.HasError() {
		t.Fatal("ResetErr should clear accumulated errors")
	}
}

func TestValidatorErrPop(t *testing.T) {
	var v Validator
	err := errors.New("boom")
	v.AddError(err)
	got := v.ErrPop()
	if got != err {
		t.Fatalf("got %v, want %v", got, err)
	}
	if v.HasError() {
		t.Fatal("ErrPop should clear the Validator")
	}
}

func TestValidatorAddErrorNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected AddError(nil) to panic")
		}
	}()
	var v Validator
	v.AddError(nil)
}
