package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"sensemaker/internal/fault"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AppletConfig is the aggregate entity written by a registration. Each map
// goes from the declared name to the address of the created sub-entity.
type AppletConfig struct {
	Name             string             `json:"name"`
	AppletID         string             `json:"applet_id,omitempty"`
	Ranges           map[string]Address `json:"ranges"`
	Dimensions       map[string]Address `json:"dimensions"`
	ResourceDefs     map[string]Address `json:"resource_defs"`
	Methods          map[string]Address `json:"methods"`
	CulturalContexts map[string]Address `json:"cultural_contexts"`
}

// EntryType implements ledger.Entity.
func (AppletConfig) EntryType() string { return "applet_config" }

// AppletConfigInput is the declarative bundle an applet registers.
// Sub-entities refer to each other by name.
type AppletConfigInput struct {
	Name             string                  `json:"name" yaml:"name" validate:"required"`
	AppletID         string                  `json:"applet_id,omitempty" yaml:"applet_id,omitempty"`
	Ranges           []Range                 `json:"ranges" yaml:"ranges" validate:"dive"`
	Dimensions       []ConfigDimension       `json:"dimensions,omitempty" yaml:"dimensions,omitempty" validate:"dive"`
	ResourceDefs     []ResourceDef           `json:"resource_defs" yaml:"resource_defs" validate:"dive"`
	Methods          []ConfigMethod          `json:"methods,omitempty" yaml:"methods,omitempty" validate:"dive"`
	CulturalContexts []ConfigCulturalContext `json:"cultural_contexts" yaml:"cultural_contexts" validate:"dive"`
}

// ConfigDimension declares a dimension over a range named in the same bundle.
type ConfigDimension struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Range    string `json:"range" yaml:"range" validate:"required"`
	Computed bool   `json:"computed" yaml:"computed"`
}

// ConfigMethod declares a method over dimensions named in the same bundle.
type ConfigMethod struct {
	Name               string   `json:"name" yaml:"name" validate:"required"`
	TargetResourceDef  string   `json:"target_resource_def" yaml:"target_resource_def" validate:"required"`
	InputDimensions    []string `json:"input_dimensions" yaml:"input_dimensions" validate:"min=1,dive,required"`
	OutputDimension    string   `json:"output_dimension" yaml:"output_dimension" validate:"required"`
	Program            Program  `json:"program" yaml:"program" validate:"oneof=Sum Average"`
	CanComputeLive     bool     `json:"can_compute_live" yaml:"can_compute_live"`
	RequiresValidation bool     `json:"requires_validation" yaml:"requires_validation"`
}

// ConfigThreshold is a Threshold with its dimension given by name.
type ConfigThreshold struct {
	Dimension string        `json:"dimension" yaml:"dimension" validate:"required"`
	Kind      ThresholdKind `json:"kind" yaml:"kind" validate:"oneof=GreaterThan LessThan Equal"`
	Value     RangeValue    `json:"value" yaml:"value"`
}

// ConfigOrdering is an Ordering with its dimension given by name.
type ConfigOrdering struct {
	Dimension string       `json:"dimension" yaml:"dimension" validate:"required"`
	Kind      OrderingKind `json:"kind" yaml:"kind" validate:"oneof=Biggest Smallest"`
}

// ConfigCulturalContext declares a cultural context by names.
type ConfigCulturalContext struct {
	Name        string            `json:"name" yaml:"name" validate:"required"`
	ResourceDef string            `json:"resource_def" yaml:"resource_def" validate:"required"`
	Thresholds  []ConfigThreshold `json:"thresholds" yaml:"thresholds" validate:"dive"`
	OrderBy     []ConfigOrdering  `json:"order_by" yaml:"order_by" validate:"dive"`
}

// Validate checks required fields and that every name reference resolves
// within the bundle. All problems are reported together.
func (in AppletConfigInput) Validate() error {
	var problems []string

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	ranges := make(map[string]bool, len(in.Ranges))
	for _, r := range in.Ranges {
		if err := r.Kind.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("range %q: %v", r.Name, err))
		}
		ranges[r.Name] = true
	}

	dimensions := make(map[string]bool, len(in.Dimensions))
	for _, d := range in.Dimensions {
		if d.Range != "" && !ranges[d.Range] {
			problems = append(problems, fmt.Sprintf("dimension %q: unknown range %q", d.Name, d.Range))
		}
		dimensions[d.Name] = true
	}

	resourceDefs := make(map[string]bool, len(in.ResourceDefs))
	for _, rd := range in.ResourceDefs {
		resourceDefs[rd.Name] = true
	}

	for _, m := range in.Methods {
		if m.TargetResourceDef != "" && !resourceDefs[m.TargetResourceDef] {
			problems = append(problems, fmt.Sprintf("method %q: unknown resource def %q", m.Name, m.TargetResourceDef))
		}
		for _, d := range m.InputDimensions {
			if d != "" && !dimensions[d] {
				problems = append(problems, fmt.Sprintf("method %q: unknown input dimension %q", m.Name, d))
			}
		}
		if m.OutputDimension != "" && !dimensions[m.OutputDimension] {
			problems = append(problems, fmt.Sprintf("method %q: unknown output dimension %q", m.Name, m.OutputDimension))
		}
	}

	for _, cc := range in.CulturalContexts {
		if cc.ResourceDef != "" && !resourceDefs[cc.ResourceDef] {
			problems = append(problems, fmt.Sprintf("cultural context %q: unknown resource def %q", cc.Name, cc.ResourceDef))
		}
		for _, th := range cc.Thresholds {
			if !dimensions[th.Dimension] {
				problems = append(problems, fmt.Sprintf("cultural context %q: unknown threshold dimension %q", cc.Name, th.Dimension))
			}
			if !th.Value.Valid() {
				problems = append(problems, fmt.Sprintf("cultural context %q: threshold on %q has no value", cc.Name, th.Dimension))
			}
		}
		for _, o := range cc.OrderBy {
			if !dimensions[o.Dimension] {
				problems = append(problems, fmt.Sprintf("cultural context %q: unknown ordering dimension %q", cc.Name, o.Dimension))
			}
		}
	}

	if len(problems) > 0 {
		return fault.Newf(fault.CodeInvalidInput, "applet config %q: %s", in.Name, strings.Join(problems, "; "))
	}
	return nil
}
