package catalog

import (
	"context"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/resolver"
)

// CreateMethod creates a method, indexes it under the methods path and
// links it from each of its dimensions, tagged with the dimension's role.
func (c *Catalog) CreateMethod(ctx context.Context, m domain.Method) (*ledger.Action, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	a, err := c.createIndexed(ctx, m, PathMethods, domain.LinkTypeMethod)
	if err != nil {
		return nil, err
	}
	if err := c.linkDimensions(ctx, m, a.EntryAddress); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *Catalog) linkDimensions(ctx context.Context, m domain.Method, target domain.Address) error {
	if _, err := c.l.CreateLink(ctx, m.OutputDimension, target, domain.LinkTypeDimensionToMethod, string(domain.RoleOutput)); err != nil {
		return fault.Write("link output dimension", err)
	}
	for _, d := range m.InputDimensions {
		if _, err := c.l.CreateLink(ctx, d, target, domain.LinkTypeDimensionToMethod, string(domain.RoleInput)); err != nil {
			return fault.Write("link input dimension", err)
		}
	}
	return nil
}

// GetMethod resolves the current version of the method at addr, or nil.
func (c *Catalog) GetMethod(ctx context.Context, addr domain.Address) (*resolver.Resolved[domain.Method], error) {
	return resolver.Latest[domain.Method](ctx, c.l, addr)
}

// ListMethods returns the current version of every method.
func (c *Catalog) ListMethods(ctx context.Context) ([]resolver.Resolved[domain.Method], error) {
	return listIndexed[domain.Method](ctx, c, PathMethods, domain.LinkTypeMethod)
}

// UpdateMethod writes m as a revision of original and returns the new
// entity address. The new version is linked from its dimensions.
func (c *Catalog) UpdateMethod(ctx context.Context, original domain.Address, m domain.Method) (domain.Address, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	a, err := ledger.UpdateEntity(ctx, c.l, original, m)
	if err != nil {
		return "", err
	}
	if err := c.linkDimensions(ctx, m, a.EntryAddress); err != nil {
		return "", err
	}
	return a.EntryAddress, nil
}

// DeleteMethod tombstones the method write at revision.
func (c *Catalog) DeleteMethod(ctx context.Context, revision domain.Address) (domain.Address, error) {
	a, err := c.l.Delete(ctx, revision)
	if err != nil {
		return "", fault.Write("delete method", err)
	}
	return a.Address, nil
}

// MethodsForDimension returns the methods that take dimension as an input
// or produce it as output, depending on role. Links left behind by earlier
// versions of a method are checked against its current version.
func (c *Catalog) MethodsForDimension(ctx context.Context, dimension domain.Address, role domain.DimensionRole) ([]resolver.Resolved[domain.Method], error) {
	if !role.Valid() {
		return nil, fault.Newf(fault.CodeInvalidInput, "invalid dimension role %q", role)
	}
	dim, err := c.GetDimension(ctx, dimension)
	if err != nil {
		return nil, err
	}
	if dim == nil {
		return nil, fault.Newf(fault.CodeNotFound, "dimension %s not found", dimension)
	}

	links, err := c.l.Links(ctx, dimension, domain.LinkTypeDimensionToMethod, string(role))
	if err != nil {
		return nil, err
	}
	exact := links[:0]
	for _, link := range links {
		if link.Tag == string(role) {
			exact = append(exact, link)
		}
	}
	methods, err := resolver.Each[domain.Method](ctx, c.l, exact)
	if err != nil {
		return nil, err
	}

	out := methods[:0]
	for _, m := range methods {
		switch role {
		case domain.RoleInput:
			if m.Value.HasInput(dimension) {
				out = append(out, m)
			}
		case domain.RoleOutput:
			if m.Value.OutputDimension == dimension {
				out = append(out, m)
			}
		}
	}
	return out, nil
}
