package cleaning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"workoutcli/internal/config"
	apperrors "workoutcli/internal/errors"
)

// Recipe operations
const (
	OpDropNA         = "dropna"
	OpFillNA         = "fillna"
	OpToDatetime     = "to_datetime"
	OpToNumeric      = "to_numeric"
	OpSetValue       = "set_value"
	OpClamp          = "clamp"
	OpDropAbove      = "drop_above"
	OpDropDuplicates = "drop_duplicates"
)

// StepSpec is one entry of a recipe file
type StepSpec struct {
	ID       string      `yaml:"id,omitempty"`
	Op       string      `yaml:"op" validate:"required,oneof=dropna fillna to_datetime to_numeric set_value clamp drop_above drop_duplicates"`
	Columns  []string    `yaml:"columns,omitempty" validate:"omitempty,dive,required"`
	Column   string      `yaml:"column,omitempty"`
	How      string      `yaml:"how,omitempty" validate:"omitempty,oneof=any all"`
	Strategy string      `yaml:"strategy,omitempty" validate:"omitempty,oneof=constant mean median mode"`
	Value    interface{} `yaml:"value,omitempty"`
	Row      *int        `yaml:"row,omitempty" validate:"omitempty,gte=0"`
	Max      *float64    `yaml:"max,omitempty"`
	Coerce   bool        `yaml:"coerce,omitempty"`
	Layouts  []string    `yaml:"layouts,omitempty" validate:"omitempty,dive,required"`
}

// Recipe is an ordered list of cleaning steps
type Recipe struct {
	Name  string     `yaml:"name" validate:"required"`
	Steps []StepSpec `yaml:"steps" validate:"required,min=1,dive"`
}

// LoadRecipe reads and validates a YAML recipe file
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("recipe %s", path)).WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("failed to read recipe", err).WithContext("path", path)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, err
	}
	return r, nil
}

// ParseRecipe decodes and validates a YAML recipe. Unknown keys are rejected.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.UnmarshalStrict(data, &r); err != nil {
		return nil, apperrors.NewParsingError("invalid recipe YAML", err)
	}
	r.normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Recipe) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	for i := range r.Steps {
		s := &r.Steps[i]
		s.Op = strings.ToLower(strings.TrimSpace(s.Op))
		s.How = strings.ToLower(strings.TrimSpace(s.How))
		s.Strategy = strings.ToLower(strings.TrimSpace(s.Strategy))
		s.Column = strings.TrimSpace(s.Column)
	}
}

// Validate checks struct tags first, then the fields each op needs
func (r *Recipe) Validate() error {
	v := validator.New()
	if err := v.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewValidationError("invalid recipe: " + strings.Join(msgs, "; "))
		}
		return apperrors.NewValidationError("invalid recipe: " + err.Error())
	}

	seen := make(map[string]bool, len(r.Steps))
	for i, s := range r.Steps {
		if err := s.validateOp(); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("step %d (%s): %s", i+1, s.Op, err)).
				WithContext("step", i+1)
		}
		id := s.stepID(i)
		if seen[id] {
			return apperrors.NewValidationError(fmt.Sprintf("step %d: duplicate id %q", i+1, id))
		}
		seen[id] = true
	}
	return nil
}

func (s StepSpec) validateOp() error {
	switch s.Op {
	case OpClamp, OpDropAbove:
		if s.Column == "" {
			return errors.New("column is required")
		}
		if s.Max == nil {
			return errors.New("max is required")
		}
	case OpToDatetime, OpToNumeric:
		if s.Column == "" {
			return errors.New("column is required")
		}
	case OpSetValue:
		if s.Column == "" {
			return errors.New("column is required")
		}
		if s.Row == nil {
			return errors.New("row is required")
		}
	case OpFillNA:
		if s.Strategy != "" && s.Strategy != "constant" {
			if s.Column == "" && len(s.Columns) == 0 {
				return fmt.Errorf("strategy %s needs a column", s.Strategy)
			}
			return nil
		}
		if s.Value == nil {
			return errors.New("value is required for a constant fill")
		}
	}
	return nil
}

// stepID returns the explicit id or one derived from the position
func (s StepSpec) stepID(i int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("%02d_%s", i+1, s.Op)
}

// Registry builds every step of the recipe into a new Registry
func (r *Recipe) Registry() (*Registry, error) {
	reg := NewRegistry()
	for i, spec := range r.Steps {
		step, err := NewStep(spec.stepID(i), spec)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(step); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// DefaultRecipe is the workout cleaning flow: parse dates, drop rows
// without one, impute the fill column, clamp implausible durations and
// remove duplicate sessions.
func DefaultRecipe(cfg config.CleaningConfig) *Recipe {
	r := &Recipe{Name: "default"}

	if cfg.DateColumn != "" {
		r.Steps = append(r.Steps,
			StepSpec{Op: OpToDatetime, Column: cfg.DateColumn},
			StepSpec{Op: OpDropNA, Columns: []string{cfg.DateColumn}},
		)
	}

	if cfg.FillColumn != "" {
		fill := StepSpec{Op: OpFillNA, Column: cfg.FillColumn, Strategy: cfg.FillStrategy}
		if cfg.FillStrategy == "" || cfg.FillStrategy == "constant" {
			fill.Value = cfg.FillValue
		}
		r.Steps = append(r.Steps, fill)
	}

	if cfg.DurationColumn != "" && cfg.DurationLimit > 0 {
		limit := cfg.DurationLimit
		r.Steps = append(r.Steps, StepSpec{Op: OpClamp, Column: cfg.DurationColumn, Max: &limit})
	}

	r.Steps = append(r.Steps, StepSpec{Op: OpDropDuplicates})
	return r
}

// Marshal renders the recipe as YAML
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
