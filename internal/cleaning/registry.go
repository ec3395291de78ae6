package cleaning

import (
	"fmt"
	"strings"

	apperrors "workoutcli/internal/errors"
)

// Registry holds the steps of one recipe in execution order. Steps can be
// switched off by ID; the Runner reports them as skipped.
type Registry struct {
	steps    []Step
	position map[string]int
	disabled map[string]bool
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		steps:    make([]Step, 0),
		position: make(map[string]int),
		disabled: make(map[string]bool),
	}
}

// Register appends step. IDs must be unique within a registry.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return apperrors.NewValidationError("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return apperrors.NewValidationError("step ID cannot be empty")
	}
	if _, exists := r.position[id]; exists {
		return apperrors.NewValidationError(fmt.Sprintf("step %s already registered", id))
	}

	r.position[id] = len(r.steps)
	r.steps = append(r.steps, step)
	return nil
}

// Disable marks the given steps so the Runner skips them. An unknown ID
// fails the whole call and disables nothing.
func (r *Registry) Disable(ids ...string) error {
	for _, id := range ids {
		if _, exists := r.position[id]; !exists {
			return apperrors.NewNotFoundError(fmt.Sprintf("step %s", id)).
				WithContext("known_steps", strings.Join(r.IDs(), ","))
		}
	}
	for _, id := range ids {
		r.disabled[id] = true
	}
	return nil
}

// Disabled reports whether id was switched off with Disable
func (r *Registry) Disabled(id string) bool {
	return r.disabled[id]
}

// List returns the registered steps in execution order
func (r *Registry) List() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// IDs returns the step IDs in execution order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.steps))
	for i, step := range r.steps {
		ids[i] = step.ID()
	}
	return ids
}

// Count returns the number of registered steps, disabled ones included
func (r *Registry) Count() int {
	return len(r.steps)
}
