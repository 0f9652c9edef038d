package vecfield

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecfield/guard"
	"github.com/hupe1980/vecfield/mapping"
	"github.com/hupe1980/vecfield/model"
	"github.com/hupe1980/vecfield/vector"
)

var (
	// ErrNoRegistry is returned when a model-reference field is parsed but
	// the mapper has no model registry.
	ErrNoRegistry = errors.New("no model registry configured")
	// ErrNoSink is returned by Index when the mapper has no sink.
	ErrNoSink = errors.New("no sink configured")
)

// ErrorClass groups errors for logging and metrics.
type ErrorClass int

// Error classes.
const (
	ClassUnknown ErrorClass = iota
	ClassConfig
	ClassValue
	ClassGuard
	ClassModel
)

func (c ErrorClass) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassValue:
		return "value"
	case ClassGuard:
		return "guard"
	case ClassModel:
		return "model"
	default:
		return "unknown"
	}
}

// Classify returns the class of err. nil is ClassUnknown.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassUnknown
	}

	var gerr *guard.Error
	if errors.As(err, &gerr) {
		return ClassGuard
	}
	var verr *vector.ValueError
	if errors.As(err, &verr) {
		return ClassValue
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrModelNotReady) || errors.Is(err, ErrNoRegistry) {
		return ClassModel
	}
	var cerr *mapping.ConfigError
	if errors.As(err, &cerr) {
		return ClassConfig
	}
	return ClassUnknown
}

// ModelError reports a failed model lookup for a model-reference field.
type ModelError struct {
	Field   string
	ModelID string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("field [%s]: model [%s]: %v", e.Field, e.ModelID, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func guardKind(err error) string {
	switch {
	case errors.Is(err, guard.ErrFeatureDisabled):
		return "feature_disabled"
	case errors.Is(err, guard.ErrCircuitBreakerTripped):
		return "circuit_breaker_tripped"
	default:
		return "unknown"
	}
}
