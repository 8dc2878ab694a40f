package domain

import (
	"sensemaker/internal/fault"
)

// Assessment is a value recorded for a (resource, dimension) pair.
//
// Author and Timestamp are part of the content so two assessors scoring the
// same pair with the same value still produce distinct entities.
type Assessment struct {
	Value        RangeValue `json:"value"`
	Dimension    Address    `json:"dimension_eh"`
	Resource     Address    `json:"resource_eh"`
	ResourceDef  Address    `json:"resource_def_eh"`
	InputDataset []Address  `json:"maybe_input_dataset,omitempty"`
	Author       string     `json:"author"`
	Timestamp    int64      `json:"timestamp"` // unix millis
}

// EntryType implements ledger.Entity.
func (Assessment) EntryType() string { return "assessment" }

// CreateAssessmentInput carries the caller-supplied part of an Assessment.
type CreateAssessmentInput struct {
	Value        RangeValue `json:"value"`
	Dimension    Address    `json:"dimension_eh" validate:"required"`
	Resource     Address    `json:"resource_eh" validate:"required"`
	ResourceDef  Address    `json:"resource_def_eh" validate:"required"`
	InputDataset []Address  `json:"maybe_input_dataset,omitempty"`
}

// Validate checks the caller-supplied fields.
func (in CreateAssessmentInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fault.Wrap(fault.CodeInvalidInput, "invalid assessment", err)
	}
	if !in.Value.Valid() {
		return fault.New(fault.CodeInvalidInput, "assessment value must be exactly one of integer or float")
	}
	for _, a := range []Address{in.Dimension, in.Resource, in.ResourceDef} {
		if !a.IsEntity() {
			return fault.Newf(fault.CodeInvalidReference, "%q is not an entity address", a)
		}
	}
	return nil
}
