package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/marcelsud/webhook-dispatch/webhook"
)

/* Action is a named extension run after a stub response has been served
 * Validate is called when a mapping is added; Fire must not block on the work it starts
 */
type Action interface {
	Name() string
	Validate(params json.RawMessage) error
	Fire(params json.RawMessage, tc webhook.TemplateContext) error
}

// Registry looks up post-serve actions by name
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates a registry holding actions
func NewRegistry(actions ...Action) *Registry {
	r := &Registry{
		actions: make(map[string]Action),
	}
	for _, a := range actions {
		r.Register(a)
	}
	return r
}

// Register adds a, replacing any action with the same name
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Name()] = a
}

// Get returns the action registered under name
func (r *Registry) Get(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}

// Validate checks that every spec names a registered action with valid parameters
func (r *Registry) Validate(specs []ActionSpec) error {
	for i, spec := range specs {
		a, err := r.Get(spec.Name)
		if err != nil {
			return fmt.Errorf("post-serve action %d: %w", i, err)
		}
		if err := a.Validate(spec.Parameters); err != nil {
			return fmt.Errorf("post-serve action %d (%s): %w", i, spec.Name, err)
		}
	}
	return nil
}

// Fire starts every action in order. A failing action does not stop the others.
func (r *Registry) Fire(specs []ActionSpec, tc webhook.TemplateContext) error {
	var errs []error
	for _, spec := range specs {
		a, err := r.Get(spec.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.Fire(spec.Parameters, tc); err != nil {
			errs = append(errs, fmt.Errorf("firing %s: %w", spec.Name, err))
		}
	}
	return errors.Join(errs...)
}
