package domain

import "fmt"

// IntegerRange bounds an integer dimension, inclusive.
type IntegerRange struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// FloatRange bounds a float dimension, inclusive.
type FloatRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// RangeKind is a tagged union: exactly one of Integer or Float is set.
type RangeKind struct {
	Integer *IntegerRange `json:"Integer,omitempty" yaml:"integer,omitempty"`
	Float   *FloatRange   `json:"Float,omitempty" yaml:"float,omitempty"`
}

// Validate checks that exactly one variant is set and its bounds are ordered.
func (k RangeKind) Validate() error {
	switch {
	case k.Integer != nil && k.Float != nil:
		return fmt.Errorf("range kind sets both integer and float")
	case k.Integer != nil:
		if k.Integer.Min > k.Integer.Max {
			return fmt.Errorf("integer range min %d exceeds max %d", k.Integer.Min, k.Integer.Max)
		}
	case k.Float != nil:
		if k.Float.Min > k.Float.Max {
			return fmt.Errorf("float range min %g exceeds max %g", k.Float.Min, k.Float.Max)
		}
	default:
		return fmt.Errorf("range kind sets neither integer nor float")
	}
	return nil
}

// Contains reports whether v is of the range's kind and within its bounds.
func (k RangeKind) Contains(v RangeValue) bool {
	switch {
	case k.Integer != nil && v.Integer != nil:
		return *v.Integer >= k.Integer.Min && *v.Integer <= k.Integer.Max
	case k.Float != nil && v.Float != nil:
		return *v.Float >= k.Float.Min && *v.Float <= k.Float.Max
	}
	return false
}

// Range is a named set of acceptable values.
type Range struct {
	Name string    `json:"name" yaml:"name" validate:"required"`
	Kind RangeKind `json:"kind" yaml:"kind"`
}

// EntryType implements ledger.Entity.
func (Range) EntryType() string { return "range" }

// RangeValue is a tagged union: exactly one of Integer or Float is set.
type RangeValue struct {
	Integer *int64   `json:"Integer,omitempty" yaml:"integer,omitempty"`
	Float   *float64 `json:"Float,omitempty" yaml:"float,omitempty"`
}

// IntegerValue returns an integer-typed value.
func IntegerValue(n int64) RangeValue {
	return RangeValue{Integer: &n}
}

// FloatValue returns a float-typed value.
func FloatValue(f float64) RangeValue {
	return RangeValue{Float: &f}
}

// IsInteger reports whether v holds an integer.
func (v RangeValue) IsInteger() bool { return v.Integer != nil && v.Float == nil }

// IsFloat reports whether v holds a float.
func (v RangeValue) IsFloat() bool { return v.Float != nil && v.Integer == nil }

// Valid reports whether exactly one variant is set.
func (v RangeValue) Valid() bool { return v.IsInteger() || v.IsFloat() }

func (v RangeValue) String() string {
	switch {
	case v.IsInteger():
		return fmt.Sprintf("Integer(%d)", *v.Integer)
	case v.IsFloat():
		return fmt.Sprintf("Float(%g)", *v.Float)
	}
	return "Invalid"
}
