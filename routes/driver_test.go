package routes

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

// Sign-up must accept the shortest password the taxonomy copy promises
// ("at least 6 characters"); abc123 is the canonical minimal input.
func TestRegisterInputAcceptsSixCharPassword(t *testing.T) {
	v := validator.New()

	input := RegisterDriverInput{
		Name:     "Test Driver",
		Phone:    "0911234567",
		Password: "abc123",
	}
	if err := v.Struct(input); err != nil {
		t.Fatalf("expected abc123 to pass validation, got %v", err)
	}

	reset := ResetPasswordInput{Password: "abc123"}
	if err := v.Struct(reset); err != nil {
		t.Fatalf("expected abc123 to pass reset validation, got %v", err)
	}
}

func TestRegisterInputRejectsFiveCharPassword(t *testing.T) {
	v := validator.New()

	input := RegisterDriverInput{
		Name:     "Test Driver",
		Phone:    "0911234567",
		Password: "abc12",
	}
	if err := v.Struct(input); err == nil {
		t.Fatal("expected a five character password to fail validation")
	}
}
