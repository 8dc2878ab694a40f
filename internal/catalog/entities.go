package catalog

import (
	"context"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/resolver"
)

// CreateRange creates a range.
func (c *Catalog) CreateRange(ctx context.Context, r domain.Range) (*ledger.Action, error) {
	if r.Name == "" {
		return nil, fault.New(fault.CodeInvalidInput, "range name is required")
	}
	if err := r.Kind.Validate(); err != nil {
		return nil, fault.Wrap(fault.CodeInvalidInput, "range "+r.Name, err)
	}
	return c.createIndexed(ctx, r, PathRanges, domain.LinkTypeRange)
}

// GetRange returns the range at addr, or nil.
func (c *Catalog) GetRange(ctx context.Context, addr domain.Address) (*domain.Range, error) {
	return ledger.GetEntity[domain.Range](ctx, c.l, addr)
}

// ListRanges returns every range.
func (c *Catalog) ListRanges(ctx context.Context) ([]resolver.Resolved[domain.Range], error) {
	return listIndexed[domain.Range](ctx, c, PathRanges, domain.LinkTypeRange)
}

// CreateDimension creates a dimension over an existing range.
func (c *Catalog) CreateDimension(ctx context.Context, d domain.Dimension) (*ledger.Action, error) {
	if d.Name == "" {
		return nil, fault.New(fault.CodeInvalidInput, "dimension name is required")
	}
	if err := requireEntity("dimension range", d.Range); err != nil {
		return nil, err
	}
	r, err := c.GetRange(ctx, d.Range)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fault.Newf(fault.CodeNotFound, "range %s not found", d.Range)
	}
	return c.createIndexed(ctx, d, PathDimensions, domain.LinkTypeDimension)
}

// GetDimension returns the dimension at addr, or nil.
func (c *Catalog) GetDimension(ctx context.Context, addr domain.Address) (*domain.Dimension, error) {
	return ledger.GetEntity[domain.Dimension](ctx, c.l, addr)
}

// ListDimensions returns every dimension.
func (c *Catalog) ListDimensions(ctx context.Context) ([]resolver.Resolved[domain.Dimension], error) {
	return listIndexed[domain.Dimension](ctx, c, PathDimensions, domain.LinkTypeDimension)
}

// CreateResourceDef creates a resource definition.
func (c *Catalog) CreateResourceDef(ctx context.Context, rd domain.ResourceDef) (*ledger.Action, error) {
	if rd.Name == "" {
		return nil, fault.New(fault.CodeInvalidInput, "resource name is required")
	}
	return c.createIndexed(ctx, rd, PathResourceDefs, domain.LinkTypeResourceDef)
}

// GetResourceDef returns the resource definition at addr, or nil.
func (c *Catalog) GetResourceDef(ctx context.Context, addr domain.Address) (*domain.ResourceDef, error) {
	return ledger.GetEntity[domain.ResourceDef](ctx, c.l, addr)
}

// ListResourceDefs returns every resource definition.
func (c *Catalog) ListResourceDefs(ctx context.Context) ([]resolver.Resolved[domain.ResourceDef], error) {
	return listIndexed[domain.ResourceDef](ctx, c, PathResourceDefs, domain.LinkTypeResourceDef)
}

// CreateCulturalContext creates a cultural context.
func (c *Catalog) CreateCulturalContext(ctx context.Context, cc domain.CulturalContext) (*ledger.Action, error) {
	if cc.Name == "" {
		return nil, fault.New(fault.CodeInvalidInput, "cultural context name is required")
	}
	if err := requireEntity("cultural context resource def", cc.ResourceDef); err != nil {
		return nil, err
	}
	for _, th := range cc.Thresholds {
		if err := requireEntity("threshold dimension", th.Dimension); err != nil {
			return nil, err
		}
		if !th.Value.Valid() {
			return nil, fault.Newf(fault.CodeInvalidInput, "threshold on %s has no value", th.Dimension)
		}
	}
	for _, o := range cc.OrderBy {
		if err := requireEntity("ordering dimension", o.Dimension); err != nil {
			return nil, err
		}
	}
	return c.createIndexed(ctx, cc, PathCulturalContexts, domain.LinkTypeCulturalContext)
}

// GetCulturalContext returns the cultural context at addr, or nil.
func (c *Catalog) GetCulturalContext(ctx context.Context, addr domain.Address) (*domain.CulturalContext, error) {
	return ledger.GetEntity[domain.CulturalContext](ctx, c.l, addr)
}

// ListCulturalContexts returns every cultural context.
func (c *Catalog) ListCulturalContexts(ctx context.Context) ([]resolver.Resolved[domain.CulturalContext], error) {
	return listIndexed[domain.CulturalContext](ctx, c, PathCulturalContexts, domain.LinkTypeCulturalContext)
}

// RegisterControl records an assessment control an applet provides.
func (c *Catalog) RegisterControl(ctx context.Context, reg domain.AssessmentControlRegistration) (*ledger.Action, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return c.createIndexed(ctx, reg, PathControls, domain.LinkTypeAssessmentControl)
}

// ListControls returns every registered assessment control.
func (c *Catalog) ListControls(ctx context.Context) ([]resolver.Resolved[domain.AssessmentControlRegistration], error) {
	return listIndexed[domain.AssessmentControlRegistration](ctx, c, PathControls, domain.LinkTypeAssessmentControl)
}
