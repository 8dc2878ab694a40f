package domain

import (
	"sensemaker/internal/fault"
)

// AssessmentWidgetConfig binds a dimension to a control. The control is
// either a registered control entity or a component exposed by an applet.
type AssessmentWidgetConfig struct {
	Dimension           Address `json:"dimension_eh" validate:"required"`
	ControlRegistration Address `json:"assessment_control_registration_eh,omitempty"`
	AppletID            string  `json:"applet_id,omitempty"`
	ComponentName       string  `json:"component_name,omitempty"`
}

// AssessmentControlConfig pairs the control used to assess with the control
// used to display the computed result.
type AssessmentControlConfig struct {
	Input  AssessmentWidgetConfig `json:"input_assessment_control"`
	Output AssessmentWidgetConfig `json:"output_assessment_control"`
}

// AssessmentTrayConfig is a named, ordered set of assessment controls.
type AssessmentTrayConfig struct {
	Name     string                    `json:"name" validate:"required"`
	Controls []AssessmentControlConfig `json:"assessment_control_configs" validate:"dive"`
}

// EntryType implements ledger.Entity.
func (AssessmentTrayConfig) EntryType() string { return "assessment_tray_config" }

// Validate checks the tray config before it is committed.
func (c AssessmentTrayConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fault.Wrap(fault.CodeInvalidInput, "invalid assessment tray config", err)
	}
	return nil
}

// ControlKind says whether a control takes input or displays output.
type ControlKind string

const (
	ControlInput  ControlKind = "input"
	ControlOutput ControlKind = "output"
)

// AssessmentControlRegistration advertises a control an applet provides.
type AssessmentControlRegistration struct {
	AppletID   string      `json:"applet_id" validate:"required"`
	ControlKey string      `json:"control_key" validate:"required"`
	Name       string      `json:"name" validate:"required"`
	RangeKind  RangeKind   `json:"range_kind"`
	Kind       ControlKind `json:"kind" validate:"oneof=input output"`
}

// EntryType implements ledger.Entity.
func (AssessmentControlRegistration) EntryType() string { return "assessment_control_registration" }

// Validate checks the registration before it is committed.
func (r AssessmentControlRegistration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fault.Wrap(fault.CodeInvalidInput, "invalid assessment control registration", err)
	}
	if err := r.RangeKind.Validate(); err != nil {
		return fault.Wrap(fault.CodeInvalidInput, "invalid assessment control registration", err)
	}
	return nil
}
