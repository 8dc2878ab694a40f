package domain

// ResourceDef declares a kind of resource that can be assessed.
type ResourceDef struct {
	Name      string   `json:"resource_name" yaml:"resource_name" validate:"required"`
	AppletID  string   `json:"applet_id,omitempty" yaml:"applet_id,omitempty"`
	BaseTypes []string `json:"base_types,omitempty" yaml:"base_types,omitempty"`
	RoleName  string   `json:"role_name,omitempty" yaml:"role_name,omitempty"`
	ZomeName  string   `json:"zome_name,omitempty" yaml:"zome_name,omitempty"`
}

// EntryType implements ledger.Entity.
func (ResourceDef) EntryType() string { return "resource_def" }

// ThresholdKind compares an assessment value against a threshold.
type ThresholdKind string

const (
	ThresholdGreaterThan ThresholdKind = "GreaterThan"
	ThresholdLessThan    ThresholdKind = "LessThan"
	ThresholdEqual       ThresholdKind = "Equal"
)

// OrderingKind sorts resources on a dimension.
type OrderingKind string

const (
	OrderBiggest  OrderingKind = "Biggest"
	OrderSmallest OrderingKind = "Smallest"
)

// Threshold filters resources whose assessment on Dimension passes Kind/Value.
type Threshold struct {
	Dimension Address       `json:"dimension_eh"`
	Kind      ThresholdKind `json:"kind"`
	Value     RangeValue    `json:"value"`
}

// Ordering sorts resources by their assessment on Dimension.
type Ordering struct {
	Dimension Address      `json:"dimension_eh"`
	Kind      OrderingKind `json:"kind"`
}

// CulturalContext is a named view over the resources of one ResourceDef.
type CulturalContext struct {
	Name        string      `json:"name"`
	ResourceDef Address     `json:"resource_def_eh"`
	Thresholds  []Threshold `json:"thresholds"`
	OrderBy     []Ordering  `json:"order_by"`
}

// EntryType implements ledger.Entity.
func (CulturalContext) EntryType() string { return "cultural_context" }
