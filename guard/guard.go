// Package guard provides the runtime gauges consulted before a vector value
// is parsed: a feature gate and a circuit breaker.
//
// Gauges are read without locking; a momentarily stale read is acceptable.
package guard

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/vecfield/settings"
)

// Guard error kinds.
var (
	ErrFeatureDisabled       = errors.New("vector feature disabled")
	ErrCircuitBreakerTripped = errors.New("circuit breaker tripped")
)

// Error is returned when a guard rejects a document. It signals an
// unavailability condition, not malformed input.
type Error struct {
	Kind error
}

func (e *Error) Error() string {
	return fmt.Sprintf("guard rejected parse: %v", e.Kind)
}

func (e *Error) Unwrap() error { return e.Kind }

// FeatureGate reports whether vector fields are enabled.
type FeatureGate interface {
	Enabled() bool
}

// CircuitBreaker reports resource pressure.
type CircuitBreaker interface {
	Tripped() bool
}

// Set is the pair of guards checked before parsing. A nil Feature is always
// enabled and a nil Breaker never trips.
type Set struct {
	Feature FeatureGate
	Breaker CircuitBreaker
}

// Check returns a *Error when either guard rejects.
func (s Set) Check() error {
	if s.Feature != nil && !s.Feature.Enabled() {
		return &Error{Kind: ErrFeatureDisabled}
	}
	if s.Breaker != nil && s.Breaker.Tripped() {
		return &Error{Kind: ErrCircuitBreakerTripped}
	}
	return nil
}

// Flag is a settable boolean gauge. Used as a FeatureGate it reports
// Enabled() == Get(); used as a CircuitBreaker it reports Tripped() == Get().
type Flag struct {
	v atomic.Bool
}

// NewFlag creates a flag with the initial value v.
func NewFlag(v bool) *Flag {
	f := &Flag{}
	f.v.Store(v)
	return f
}

// Set stores v.
func (f *Flag) Set(v bool) { f.v.Store(v) }

// Get loads the value.
func (f *Flag) Get() bool { return f.v.Load() }

// Enabled implements FeatureGate.
func (f *Flag) Enabled() bool { return f.Get() }

// Tripped implements CircuitBreaker.
func (f *Flag) Tripped() bool { return f.Get() }

// SettingsGate is a FeatureGate backed by the knn.plugin.enabled setting.
type SettingsGate struct {
	Settings settings.Reader
}

// Enabled implements FeatureGate.
func (g SettingsGate) Enabled() bool {
	return settings.PluginEnabled(g.Settings)
}
