package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestionFormat(t *testing.T) {
	err := WrapWithSuggestion(errors.New("boom"), "try again")
	msg := err.Error()
	if !strings.Contains(msg, "boom") || !strings.Contains(msg, "Suggestion: try again") {
		t.Errorf("message = %q", msg)
	}
}

func TestErrorWithSuggestionUnwrap(t *testing.T) {
	base := errors.New("base failure")
	err := WrapWithSuggestion(base, "hint")
	if !errors.Is(err, base) {
		t.Error("wrapped error must unwrap to the base error")
	}

	var sugErr *ErrorWithSuggestion
	if !errors.As(err, &sugErr) {
		t.Fatal("errors.As failed")
	}
	if sugErr.Suggestion != "hint" {
		t.Errorf("suggestion = %q", sugErr.Suggestion)
	}
}

func TestDomainErrorsCarrySuggestions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"todo is dir", ErrTodoFileIsDir("/tmp/tasks"), "/tmp/tasks"},
		{"missing dir", ErrDirNotExist("/no/such"), "/no/such"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sugErr *ErrorWithSuggestion
			if !errors.As(tt.err, &sugErr) {
				t.Fatal("not an ErrorWithSuggestion")
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("message %q missing %q", tt.err.Error(), tt.want)
			}
			if sugErr.Suggestion == "" {
				t.Error("empty suggestion")
			}
		})
	}
}
