package method

import (
	"fmt"
	"strings"
)

// Error is a single descriptor problem.
type Error struct {
	// Path locates the offending element, e.g. "parameters.m".
	Path    string
	Message string
}

func (e Error) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationError aggregates all problems found in a descriptor.
type ValidationError struct {
	Errors []Error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.String()
	}
	return "method validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) addf(path, format string, args ...any) {
	e.Errors = append(e.Errors, Error{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) errOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
