package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/vecfield/engine"
)

var (
	// ErrNotFound is returned when a registry has no model with the given id.
	ErrNotFound = errors.New("model not found")
	// ErrModelNotReady is returned for models that cannot serve ingestion.
	ErrModelNotReady = errors.New("model not ready")
)

// State is the training state of a model.
type State string

// Model states.
const (
	StateCreated  State = "created"
	StateTraining State = "training"
	StateFailed   State = "failed"
)

// Metadata describes a trained model.
type Metadata struct {
	ID          string           `json:"model_id"`
	Engine      engine.ID        `json:"engine"`
	SpaceType   engine.SpaceType `json:"space_type"`
	Dimension   int              `json:"dimension"`
	State       State            `json:"state"`
	Description string           `json:"description,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Ready returns nil when the model can be used for ingestion: it finished
// training and has a positive dimension.
func (m Metadata) Ready() error {
	if m.State != StateCreated {
		if m.Error != "" {
			return fmt.Errorf("%w: model %q is %s: %s", ErrModelNotReady, m.ID, m.State, m.Error)
		}
		return fmt.Errorf("%w: model %q is %s", ErrModelNotReady, m.ID, m.State)
	}
	if m.Dimension <= 0 {
		return fmt.Errorf("%w: model %q has invalid dimension %d", ErrModelNotReady, m.ID, m.Dimension)
	}
	return nil
}

// Validate checks the metadata before it is stored.
func (m Metadata) Validate() error {
	if m.ID == "" {
		return errors.New("model id must not be empty")
	}
	switch m.State {
	case StateCreated, StateTraining, StateFailed:
	default:
		return fmt.Errorf("model %q: invalid state %q", m.ID, m.State)
	}
	if m.Dimension < 0 {
		return fmt.Errorf("model %q: negative dimension %d", m.ID, m.Dimension)
	}
	return nil
}

// Registry looks up model metadata by id.
// Implementations must be safe for concurrent use.
type Registry interface {
	Get(ctx context.Context, id string) (Metadata, error)
}

// Store is a Registry that can also be written.
type Store interface {
	Registry
	Put(ctx context.Context, m Metadata) error
	Delete(ctx context.Context, id string) error
}

// Resolve fetches id from r and checks that it is ready.
func Resolve(ctx context.Context, r Registry, id string) (Metadata, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return Metadata{}, err
	}
	if err := m.Ready(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}
