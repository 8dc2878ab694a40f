package domain

// LinkType tags a directed edge in the link index.
type LinkType string

const (
	LinkTypePath                      LinkType = "path"
	LinkTypeRange                     LinkType = "range"
	LinkTypeDimension                 LinkType = "dimension"
	LinkTypeResourceDef               LinkType = "resource_def"
	LinkTypeCulturalContext           LinkType = "cultural_context"
	LinkTypeMethod                    LinkType = "method"
	LinkTypeDimensionToMethod         LinkType = "dimension_to_method"
	LinkTypeResourceToAssessment      LinkType = "resource_to_assessment"
	LinkTypeAppletName                LinkType = "applet_name"
	LinkTypeAppletConfig              LinkType = "applet_config"
	LinkTypeResourceDefToAppletConfig LinkType = "resource_def_to_applet_config"
	LinkTypeTrayConfig                LinkType = "assessment_tray_config"
	LinkTypeDefaultTrayConfig         LinkType = "resource_def_default_tray_config"
	LinkTypeAssessmentControl         LinkType = "assessment_control"
)

// DimensionRole selects which side of a method a dimension sits on.
type DimensionRole string

const (
	RoleInput  DimensionRole = "input"
	RoleOutput DimensionRole = "output"
)

// Valid reports whether r is one of the known roles.
func (r DimensionRole) Valid() bool {
	return r == RoleInput || r == RoleOutput
}
