package cleaning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

// mockStep records calls and returns a canned result
type mockStep struct {
	baseStep
	err    error
	result StepResult
	calls  int
}

func newMockStep(id string) *mockStep {
	return &mockStep{baseStep: baseStep{id: id, name: "Mock " + id, op: "mock"}}
}

func (m *mockStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	m.calls++
	if m.err != nil {
		return nil, StepResult{}, m.err
	}
	return ds, m.result, nil
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	assert.Equal(t, 0, registry.Count())
	steps := registry.List()
	require.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	step1 := newMockStep("step1")
	step2 := newMockStep("step2")
	step3 := newMockStep("step3")

	require.NoError(t, registry.Register(step1))
	require.NoError(t, registry.Register(step2))
	require.NoError(t, registry.Register(step3))

	assert.Equal(t, 3, registry.Count())
	assert.Equal(t, []string{"step1", "step2", "step3"}, registry.IDs())
	assert.Equal(t, []Step{step1, step2, step3}, registry.List())
}

func TestRegistryRegisterErrors(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Contains(t, err.Error(), "nil step")

	err = registry.Register(newMockStep(""))
	assert.Contains(t, err.Error(), "ID cannot be empty")

	dup := newMockStep("dup")
	require.NoError(t, registry.Register(dup))
	err = registry.Register(dup)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryDisable(t *testing.T) {
	registry := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, registry.Register(newMockStep(id)))
	}

	require.NoError(t, registry.Disable("b"))
	assert.True(t, registry.Disabled("b"))
	assert.False(t, registry.Disabled("a"))
	// disabled steps stay listed so the report shows them
	assert.Equal(t, []string{"a", "b", "c"}, registry.IDs())
	assert.Equal(t, 3, registry.Count())
}

func TestRegistryDisableUnknown(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newMockStep("a")))
	require.NoError(t, registry.Register(newMockStep("b")))

	err := registry.Disable("a", "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), "missing")
	// nothing is disabled when one ID is unknown
	assert.False(t, registry.Disabled("a"))
}

func TestRegistryListIsCopy(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newMockStep("a")))

	steps := registry.List()
	steps[0] = newMockStep("other")
	ids := registry.IDs()
	ids[0] = "changed"
	assert.Equal(t, []string{"a"}, registry.IDs())
	assert.Equal(t, "a", registry.List()[0].ID())
}
