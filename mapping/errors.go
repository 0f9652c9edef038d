package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/method"
)

// Config error kinds.
var (
	ErrInvalidDimension           = errors.New("invalid dimension")
	ErrDimensionTooLarge          = errors.New("dimension too large")
	ErrMissingDimension           = errors.New("missing dimension")
	ErrConflictingMethodAndModel  = errors.New("conflicting method and model")
	ErrTrainingNotSupportedInline = errors.New("training not supported inline")
	ErrMethodValidationFailed     = errors.New("method validation failed")
	ErrUnknownParameter           = errors.New("unknown parameter")
	ErrInvalidParameter           = errors.New("invalid parameter")
	ErrParameterNotUpdatable      = errors.New("parameter not updatable")
)

// Usage error kinds.
var (
	ErrTermQueryUnsupported      = errors.New("term query unsupported")
	ErrFieldRetrievalUnsupported = errors.New("field retrieval unsupported")
	ErrDocValuesDisabled         = errors.New("doc values disabled")
)

// ConfigError reports why a field definition could not be resolved. No
// partially valid field is produced when it is returned.
type ConfigError struct {
	Field string
	Kind  error
	// Param is the offending parameter, when there is one.
	Param string
	Value any
	// Limit and Engine are set for ErrDimensionTooLarge.
	Limit  int
	Engine engine.ID
	// Methods holds every nested method problem for ErrMethodValidationFailed
	// and ErrTrainingNotSupportedInline.
	Methods []method.Error
}

func (e *ConfigError) Error() string {
	var msg string
	switch e.Kind {
	case ErrInvalidDimension:
		msg = fmt.Sprintf("invalid dimension [%v]: must be a positive integer", e.Value)
	case ErrDimensionTooLarge:
		msg = fmt.Sprintf("dimension [%v] exceeds maximum %d for engine %q", e.Value, e.Limit, e.Engine)
	case ErrMissingDimension:
		msg = "dimension must be specified"
	case ErrConflictingMethodAndModel:
		msg = "method and model_id cannot both be specified"
	case ErrTrainingNotSupportedInline:
		msg = "method requires training and cannot be configured inline"
	case ErrMethodValidationFailed:
		msg = "method validation failed"
	case ErrUnknownParameter:
		msg = fmt.Sprintf("unknown parameter [%s]", e.Param)
	case ErrInvalidParameter:
		msg = fmt.Sprintf("invalid value for parameter [%s]: %v", e.Param, e.Value)
	case ErrParameterNotUpdatable:
		msg = fmt.Sprintf("parameter [%s] cannot be updated", e.Param)
	default:
		msg = fmt.Sprint(e.Kind)
	}
	if len(e.Methods) > 0 {
		parts := make([]string, len(e.Methods))
		for i, m := range e.Methods {
			parts[i] = m.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	return fmt.Sprintf("field [%s]: %s", e.Field, msg)
}

func (e *ConfigError) Unwrap() error { return e.Kind }

// UsageError is returned by field type operations the vector type does not
// support.
type UsageError struct {
	Field string
	Op    string
	Kind  error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("field [%s] of type [%s]: %s: %v", e.Field, TypeName, e.Op, e.Kind)
}

func (e *UsageError) Unwrap() error { return e.Kind }
