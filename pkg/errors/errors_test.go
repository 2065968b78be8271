package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrCodeOracleFailed, cause, "mmseqs search")

	if err.Code != ErrCodeOracleFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeOracleFailed)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidGraph, "test"), ErrCodeInvalidGraph, true},
		{"non-matching code", New(ErrCodeInvalidGraph, "test"), ErrCodeOracleFailed, false},
		{"outer code wins", Wrap(ErrCodeRelabelCollision, New(ErrCodeInvalidGraph, "inner"), "outer"), ErrCodeRelabelCollision, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeFileNotFound, "graph file not found: a.gml")); got != "graph file not found: a.gml" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestFatal(t *testing.T) {
	if Fatal(nil) {
		t.Error("Fatal(nil) = true")
	}
	if !Fatal(New(ErrCodeOracleFailed, "x")) {
		t.Error("oracle failure should be fatal")
	}
	if !Fatal(errors.New("plain")) {
		t.Error("uncoded errors should be fatal")
	}
	if Fatal(New(ErrCodeInvalidFormat, "x")) {
		t.Error("format errors on optional artifacts are not fatal")
	}
}
