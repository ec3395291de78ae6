package cleaning

import (
	"context"
	"time"

	"workoutcli/internal/frame"
	"workoutcli/internal/infrastructure"
)

// Step is a single transformation in a cleaning recipe
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Op returns the recipe operation the Step was built from
	Op() string

	// Apply runs the Step against ds and returns the transformed dataset.
	// ds itself is never modified.
	Apply(ctx context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error)
}

// StepResult describes what one Apply call changed
type StepResult struct {
	Counts  infrastructure.StepCounts
	Message string
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState tracks one Step through a run. The Runner owns it; it is not
// shared between goroutines.
type StepState struct {
	ID        string
	Name      string
	Op        string
	Status    StepStatus
	StartTime time.Time
	EndTime   time.Time
	Message   string
	Error     error
	Result    StepResult
}

// NewStepState creates a pending state for step
func NewStepState(step Step) *StepState {
	return &StepState{
		ID:     step.ID(),
		Name:   step.Name(),
		Op:     step.Op(),
		Status: StepStatusPending,
	}
}

// Start marks the Step as active
func (s *StepState) Start() {
	s.StartTime = time.Now()
	s.Status = StepStatusActive
}

// Complete records result and marks the Step completed
func (s *StepState) Complete(result StepResult) {
	s.finish(StepStatusCompleted, result.Message)
	s.Result = result
}

// Fail records err and marks the Step failed
func (s *StepState) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.finish(StepStatusFailed, msg)
	s.Error = err
}

// Skip marks a Step that never ran
func (s *StepState) Skip(reason string) {
	s.finish(StepStatusSkipped, reason)
}

func (s *StepState) finish(status StepStatus, msg string) {
	s.EndTime = time.Now()
	s.Status = status
	s.Message = msg
}

// Duration is the time between Start and the end of the Step, zero when it
// never started
func (s *StepState) Duration() time.Duration {
	switch {
	case s.StartTime.IsZero():
		return 0
	case s.EndTime.IsZero():
		return time.Since(s.StartTime)
	default:
		return s.EndTime.Sub(s.StartTime)
	}
}

// baseStep provides the identity half of a Step
type baseStep struct {
	id   string
	name string
	op   string
}

func (b baseStep) ID() string   { return b.id }
func (b baseStep) Name() string { return b.name }
func (b baseStep) Op() string   { return b.op }
