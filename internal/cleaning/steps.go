package cleaning

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

// NewStep builds the Step a recipe entry describes
func NewStep(id string, spec StepSpec) (Step, error) {
	if err := spec.validateOp(); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("step %s: %s", id, err))
	}
	base := baseStep{id: id, op: spec.Op}

	switch spec.Op {
	case OpDropNA:
		base.name = "Drop rows with missing values" + inColumns(spec.Columns)
		return &dropNAStep{baseStep: base, opts: frame.DropOptions{Subset: spec.Columns, How: frame.How(spec.How)}}, nil
	case OpFillNA:
		return newFillNAStep(base, spec), nil
	case OpToDatetime:
		base.name = fmt.Sprintf("Convert %s to datetime", spec.Column)
		return &toDatetimeStep{baseStep: base, column: spec.Column,
			opts: frame.DatetimeOptions{Layouts: spec.Layouts, Coerce: spec.Coerce}}, nil
	case OpToNumeric:
		base.name = fmt.Sprintf("Convert %s to numeric", spec.Column)
		return &toNumericStep{baseStep: base, column: spec.Column, coerce: spec.Coerce}, nil
	case OpSetValue:
		base.name = fmt.Sprintf("Set %s at row %d", spec.Column, *spec.Row)
		return &setValueStep{baseStep: base, row: *spec.Row, column: spec.Column, value: spec.Value}, nil
	case OpClamp:
		base.name = fmt.Sprintf("Clamp %s above %s", spec.Column, formatLimit(*spec.Max))
		return &clampStep{baseStep: base, column: spec.Column, limit: *spec.Max}, nil
	case OpDropAbove:
		base.name = fmt.Sprintf("Drop rows with %s above %s", spec.Column, formatLimit(*spec.Max))
		return &dropAboveStep{baseStep: base, column: spec.Column, limit: *spec.Max}, nil
	case OpDropDuplicates:
		base.name = "Drop duplicate rows" + inColumns(spec.Columns)
		return &dropDuplicatesStep{baseStep: base, subset: spec.Columns}, nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown op %q", spec.Op))
	}
}

type dropNAStep struct {
	baseStep
	opts frame.DropOptions
}

func (s *dropNAStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	out, dropped, err := ds.DropNA(s.opts)
	if err != nil {
		return nil, StepResult{}, err
	}
	res := StepResult{Message: fmt.Sprintf("dropped %d rows", dropped)}
	res.Counts.RowsDropped = dropped
	return out, res, nil
}

// fillNAStep imputes one column with a strategy, several columns with the
// same strategy, or the whole frame with a constant
type fillNAStep struct {
	baseStep
	columns  []string
	strategy frame.Strategy
}

func newFillNAStep(base baseStep, spec StepSpec) *fillNAStep {
	method := frame.FillMethod(spec.Strategy)
	if method == "" {
		method = frame.FillConstant
	}
	columns := spec.Columns
	if spec.Column != "" {
		columns = append([]string{spec.Column}, columns...)
	}

	target := "all columns"
	if len(columns) > 0 {
		target = strings.Join(columns, ", ")
	}
	if method == frame.FillConstant {
		base.name = fmt.Sprintf("Fill missing %s with %v", target, spec.Value)
	} else {
		base.name = fmt.Sprintf("Fill missing %s with %s", target, method)
	}
	return &fillNAStep{baseStep: base, columns: columns, strategy: frame.Strategy{Method: method, Value: spec.Value}}
}

func (s *fillNAStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	var (
		out    = ds
		filled int
	)
	if len(s.columns) == 0 {
		next, n, err := ds.FillNA(s.strategy.Value)
		if err != nil {
			return nil, StepResult{}, err
		}
		out, filled = next, n
	} else {
		for _, col := range s.columns {
			next, n, err := out.FillNAWith(col, s.strategy)
			if err != nil {
				return nil, StepResult{}, err
			}
			out = next
			filled += n
		}
	}
	res := StepResult{Message: fmt.Sprintf("filled %d cells", filled)}
	res.Counts.CellsFilled = filled
	return out, res, nil
}

type toDatetimeStep struct {
	baseStep
	column string
	opts   frame.DatetimeOptions
}

func (s *toDatetimeStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	before, err := ds.IsNA(s.column)
	if err != nil {
		return nil, StepResult{}, err
	}
	out, err := ds.ToDatetime(s.column, s.opts)
	if err != nil {
		return nil, StepResult{}, err
	}
	return out, StepResult{Message: coercedMessage(out, s.column, before)}, nil
}

type toNumericStep struct {
	baseStep
	column string
	coerce bool
}

func (s *toNumericStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	before, err := ds.IsNA(s.column)
	if err != nil {
		return nil, StepResult{}, err
	}
	out, err := ds.ToNumeric(s.column, s.coerce)
	if err != nil {
		return nil, StepResult{}, err
	}
	return out, StepResult{Message: coercedMessage(out, s.column, before)}, nil
}

type setValueStep struct {
	baseStep
	row    int
	column string
	value  interface{}
}

func (s *setValueStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	out, err := ds.SetValue(s.row, s.column, s.value)
	if err != nil {
		return nil, StepResult{}, err
	}
	return out, StepResult{Message: fmt.Sprintf("set row %d", s.row)}, nil
}

type clampStep struct {
	baseStep
	column string
	limit  float64
}

func (s *clampStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	out, changed, err := ds.ClampAbove(s.column, s.limit)
	if err != nil {
		return nil, StepResult{}, err
	}
	res := StepResult{Message: fmt.Sprintf("clamped %d values", changed)}
	res.Counts.ValuesClamped = changed
	return out, res, nil
}

type dropAboveStep struct {
	baseStep
	column string
	limit  float64
}

func (s *dropAboveStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	out, dropped, err := ds.DropAbove(s.column, s.limit)
	if err != nil {
		return nil, StepResult{}, err
	}
	res := StepResult{Message: fmt.Sprintf("dropped %d rows", dropped)}
	res.Counts.RowsDropped = dropped
	return out, res, nil
}

type dropDuplicatesStep struct {
	baseStep
	subset []string
}

func (s *dropDuplicatesStep) Apply(_ context.Context, ds *frame.Dataset) (*frame.Dataset, StepResult, error) {
	out, removed, err := ds.DropDuplicates(s.subset...)
	if err != nil {
		return nil, StepResult{}, err
	}
	res := StepResult{Message: fmt.Sprintf("removed %d duplicates", removed)}
	res.Counts.DuplicatesRemoved = removed
	return out, res, nil
}

func inColumns(cols []string) string {
	if len(cols) == 0 {
		return ""
	}
	return " in " + strings.Join(cols, ", ")
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coercedMessage counts cells that were present before a conversion and
// missing after it
func coercedMessage(out *frame.Dataset, column string, before []bool) string {
	after, err := out.IsNA(column)
	if err != nil {
		return ""
	}
	coerced := 0
	for i := range after {
		if after[i] && !before[i] {
			coerced++
		}
	}
	if coerced == 0 {
		return "converted"
	}
	return fmt.Sprintf("converted, %d values coerced to missing", coerced)
}
