package utils

import (
	"fmt"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{Err: err, Suggestion: suggestion}
}

// ErrTodoFileIsDir returns an error for a todo path that is a directory.
func ErrTodoFileIsDir(path string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("todo file is a directory: %s", path),
		Suggestion: "Point --file at a todo.txt file, not a directory",
	}
}

// ErrDirNotExist returns an error for a missing parent directory.
func ErrDirNotExist(dir string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("directory does not exist: %s", dir),
		Suggestion: "Create the directory or specify a different todo.txt file with --file",
	}
}
