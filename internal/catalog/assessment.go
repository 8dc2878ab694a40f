package catalog

import (
	"context"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// CreateAssessment records a value for a (resource, dimension) pair and
// indexes it from the resource, tagged with the dimension. Values on a
// non-computed dimension must fall within the dimension's range.
func (c *Catalog) CreateAssessment(ctx context.Context, in domain.CreateAssessmentInput) (*domain.Assessment, *ledger.Action, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	dim, err := c.GetDimension(ctx, in.Dimension)
	if err != nil {
		return nil, nil, err
	}
	if dim == nil {
		return nil, nil, fault.Newf(fault.CodeNotFound, "dimension %s not found", in.Dimension)
	}
	if !dim.Computed {
		r, err := c.GetRange(ctx, dim.Range)
		if err != nil {
			return nil, nil, err
		}
		if r != nil && !r.Kind.Contains(in.Value) {
			return nil, nil, fault.Newf(fault.CodeInvalidInput, "value %s is outside range %q of dimension %q", in.Value, r.Name, dim.Name)
		}
	}

	assessment := domain.Assessment{
		Value:        in.Value,
		Dimension:    in.Dimension,
		Resource:     in.Resource,
		ResourceDef:  in.ResourceDef,
		InputDataset: in.InputDataset,
		Author:       c.author,
		Timestamp:    c.now().UnixMilli(),
	}
	a, err := ledger.CreateEntity(ctx, c.l, assessment)
	if err != nil {
		return nil, nil, err
	}
	if _, err := c.l.CreateLink(ctx, in.Resource, a.EntryAddress, domain.LinkTypeResourceToAssessment, string(in.Dimension)); err != nil {
		return nil, nil, fault.Write("index assessment", err)
	}
	return &assessment, a, nil
}

// GetAssessment returns the assessment at addr, or nil.
func (c *Catalog) GetAssessment(ctx context.Context, addr domain.Address) (*domain.Assessment, error) {
	return ledger.GetEntity[domain.Assessment](ctx, c.l, addr)
}

// AssessmentsFor returns every assessment of resource on dimension, in
// insertion order. Assessments from different authors are all kept.
func (c *Catalog) AssessmentsFor(ctx context.Context, resource, dimension domain.Address) ([]domain.Assessment, error) {
	links, err := c.l.Links(ctx, resource, domain.LinkTypeResourceToAssessment, string(dimension))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Assessment, 0, len(links))
	for _, link := range links {
		if link.Tag != string(dimension) {
			continue
		}
		a, err := c.GetAssessment(ctx, link.Target)
		if err != nil {
			return nil, err
		}
		if a == nil {
			c.logger.Warn("assessment link has no target", "link", link.Address, "target", link.Target)
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}
