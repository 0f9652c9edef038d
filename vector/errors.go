package vector

import (
	"errors"
	"fmt"
)

// Value error kinds.
var (
	ErrNonFiniteComponent = errors.New("non-finite component")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrInvalidComponent   = errors.New("invalid component")
)

// ValueError reports a malformed vector value. It affects only the current
// document.
type ValueError struct {
	Kind error
	// Index is the offending component for ErrNonFiniteComponent and
	// ErrInvalidComponent.
	Index int
	// Expected and Got are set for ErrDimensionMismatch.
	Expected int
	Got      int
}

func (e *ValueError) Error() string {
	switch e.Kind {
	case ErrDimensionMismatch:
		return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
	case ErrNonFiniteComponent:
		return fmt.Sprintf("vector component %d is NaN or infinite", e.Index)
	case ErrInvalidComponent:
		return fmt.Sprintf("vector component %d is not a number", e.Index)
	default:
		return fmt.Sprintf("invalid vector: %v", e.Kind)
	}
}

func (e *ValueError) Unwrap() error { return e.Kind }
