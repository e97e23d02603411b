package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEngineError_Message(t *testing.T) {
	err := &EngineError{Status: 422, Body: "bad target"}

	if !strings.Contains(err.Error(), "422") {
		t.Errorf("Error() = %q, want status in message", err.Error())
	}
	if !strings.Contains(err.Error(), "bad target") {
		t.Errorf("Error() = %q, want body in message", err.Error())
	}
}

func TestIsTransient(t *testing.T) {
	base := errors.New("connection refused")
	transient := &TransientError{Err: base}

	if !IsTransient(transient) {
		t.Error("IsTransient(TransientError) = false, want true")
	}
	if !IsTransient(fmt.Errorf("add route: %w", transient)) {
		t.Error("IsTransient(wrapped TransientError) = false, want true")
	}
	if IsTransient(base) {
		t.Error("IsTransient(plain error) = true, want false")
	}
	if IsTransient(ErrEngineAuth) {
		t.Error("IsTransient(ErrEngineAuth) = true, want false")
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	base := errors.New("i/o timeout")
	transient := &TransientError{Err: base}

	if !errors.Is(transient, base) {
		t.Error("errors.Is(transient, base) = false, want true")
	}
}
