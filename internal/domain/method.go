package domain

import (
	"sensemaker/internal/fault"
)

// Program names the reduction a Method applies to its inputs.
//
// The set is closed: adding a program means adding a constant here and a
// case in Reduce.
type Program string

const (
	ProgramSum     Program = "Sum"
	ProgramAverage Program = "Average"
)

// Valid reports whether p is a known program.
func (p Program) Valid() bool {
	switch p {
	case ProgramSum, ProgramAverage:
		return true
	}
	return false
}

// Reduce folds values into one.
//
// Integers accumulate as integers until the first float is seen; from then
// on the running total is a float and later integers are added as floats.
// The result is integer-typed only when every input was an integer. Average
// divides an integer total with truncating integer division. An empty input
// has no defined result.
func (p Program) Reduce(values []RangeValue) (RangeValue, error) {
	if !p.Valid() {
		return RangeValue{}, fault.Newf(fault.CodeComputation, "unsupported program %q", p)
	}
	if len(values) == 0 {
		return RangeValue{}, fault.Newf(fault.CodeComputation, "program %s has no values to reduce", p)
	}

	var acc accumulator
	for _, v := range values {
		if err := acc.add(v); err != nil {
			return RangeValue{}, err
		}
	}

	switch p {
	case ProgramSum:
		return acc.total(), nil
	case ProgramAverage:
		if acc.promoted {
			return FloatValue(acc.f / float64(acc.n)), nil
		}
		return IntegerValue(acc.i / int64(acc.n)), nil
	}
	return RangeValue{}, fault.Newf(fault.CodeComputation, "unsupported program %q", p)
}

// accumulator keeps an integer total until promoted to float.
type accumulator struct {
	promoted bool
	i        int64
	f        float64
	n        int
}

func (a *accumulator) add(v RangeValue) error {
	switch {
	case v.IsInteger():
		if a.promoted {
			a.f += float64(*v.Integer)
			break
		}
		sum, ok := addInt64(a.i, *v.Integer)
		if !ok {
			return fault.Newf(fault.CodeComputation, "integer overflow adding %d to %d", *v.Integer, a.i)
		}
		a.i = sum
	case v.IsFloat():
		if !a.promoted {
			a.promoted = true
			a.f = float64(a.i)
		}
		a.f += *v.Float
	default:
		return fault.New(fault.CodeComputation, "assessment value is neither integer nor float")
	}
	a.n++
	return nil
}

func (a *accumulator) total() RangeValue {
	if a.promoted {
		return FloatValue(a.f)
	}
	return IntegerValue(a.i)
}

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// Method declares how a computed assessment is derived.
type Method struct {
	Name               string    `json:"name"`
	TargetResourceDef  Address   `json:"target_resource_def_eh"`
	InputDimensions    []Address `json:"input_dimension_ehs"`
	OutputDimension    Address   `json:"output_dimension_eh"`
	Program            Program   `json:"program"`
	CanComputeLive     bool      `json:"can_compute_live"`
	RequiresValidation bool      `json:"requires_validation"`
}

// EntryType implements ledger.Entity.
func (Method) EntryType() string { return "method" }

// Validate checks the shape of a method before it is committed.
func (m Method) Validate() error {
	if m.Name == "" {
		return fault.New(fault.CodeInvalidInput, "method name is required")
	}
	if !m.Program.Valid() {
		return fault.Newf(fault.CodeInvalidInput, "method %s: unsupported program %q", m.Name, m.Program)
	}
	if len(m.InputDimensions) == 0 {
		return fault.Newf(fault.CodeInvalidInput, "method %s: at least one input dimension is required", m.Name)
	}
	for _, d := range m.InputDimensions {
		if !d.IsEntity() {
			return fault.Newf(fault.CodeInvalidReference, "method %s: input dimension %q is not an entity address", m.Name, d)
		}
	}
	if !m.OutputDimension.IsEntity() {
		return fault.Newf(fault.CodeInvalidReference, "method %s: output dimension %q is not an entity address", m.Name, m.OutputDimension)
	}
	return nil
}

// HasInput reports whether d is among the method's input dimensions.
func (m Method) HasInput(d Address) bool {
	for _, in := range m.InputDimensions {
		if in == d {
			return true
		}
	}
	return false
}
