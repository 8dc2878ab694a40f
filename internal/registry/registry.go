// Package registry registers applet configurations: a bundle of ranges,
// dimensions, resource definitions, methods and cultural contexts created
// together and indexed by applet name.
//
// Register is create-if-absent. The existence check and the writes are not
// atomic, so two racing registrations of one name can both write a
// configuration; lookups then pick the last one indexed. A registration that
// fails part way leaves the sub-entities it already wrote in place and can
// be retried, since the name is only indexed once the aggregate exists.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sensemaker/internal/catalog"
	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Root is the path under which every applet name is indexed.
const Root = "all_applets"

// Registration is a stored applet configuration.
type Registration struct {
	Config  domain.AppletConfig `json:"config"`
	Address domain.Address      `json:"address"`
	// Created is true when this call wrote the configuration.
	Created bool `json:"created"`
}

// Registry registers and looks up applet configurations.
type Registry struct {
	catalog *catalog.Catalog
	l       ledger.Ledger
	paths   *ledger.Paths
	logger  *slog.Logger
}

// New returns a Registry writing through c.
func New(c *catalog.Catalog, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		catalog: c,
		l:       c.Ledger(),
		paths:   c.Paths().Typed(domain.LinkTypeAppletName),
		logger:  logger.With("component", "registry"),
	}
}

func namePath(name string) string {
	return ledger.Join(Root, name)
}

// Register returns the configuration registered under in.Name, creating it
// and all of its sub-entities if there is none.
func (r *Registry) Register(ctx context.Context, in domain.AppletConfigInput) (*Registration, error) {
	if in.Name == "" || strings.Contains(in.Name, ".") {
		registrations.WithLabelValues("failed").Inc()
		return nil, fault.Newf(fault.CodeInvalidInput, "applet name %q must be non-empty and contain no dots", in.Name)
	}
	if err := in.Validate(); err != nil {
		r.logger.Warn("applet config format problems", "applet", in.Name, "error", err)
	}

	existing, err := r.Lookup(ctx, in.Name)
	if err != nil {
		registrations.WithLabelValues("failed").Inc()
		return nil, err
	}
	if existing != nil {
		registrations.WithLabelValues("existing").Inc()
		r.logger.Debug("applet already registered", "applet", in.Name, "address", existing.Address)
		return existing, nil
	}

	reg, err := r.create(ctx, in)
	if err != nil {
		registrations.WithLabelValues("failed").Inc()
		return nil, err
	}
	registrations.WithLabelValues("created").Inc()
	r.logger.Info("applet registered", "applet", in.Name, "address", reg.Address,
		"ranges", len(reg.Config.Ranges), "dimensions", len(reg.Config.Dimensions),
		"resource_defs", len(reg.Config.ResourceDefs), "methods", len(reg.Config.Methods),
		"cultural_contexts", len(reg.Config.CulturalContexts))
	return reg, nil
}

// create writes sub-entities in dependency order, then the aggregate, then
// the name index and the reverse links from each resource definition.
func (r *Registry) create(ctx context.Context, in domain.AppletConfigInput) (*Registration, error) {
	cfg := domain.AppletConfig{
		Name:             in.Name,
		AppletID:         in.AppletID,
		Ranges:           make(map[string]domain.Address, len(in.Ranges)),
		Dimensions:       make(map[string]domain.Address, len(in.Dimensions)),
		ResourceDefs:     make(map[string]domain.Address, len(in.ResourceDefs)),
		Methods:          make(map[string]domain.Address, len(in.Methods)),
		CulturalContexts: make(map[string]domain.Address, len(in.CulturalContexts)),
	}

	for _, rg := range in.Ranges {
		a, err := r.catalog.CreateRange(ctx, rg)
		if err != nil {
			return nil, fmt.Errorf("register %s: range %q: %w", in.Name, rg.Name, err)
		}
		cfg.Ranges[rg.Name] = a.EntryAddress
		entitiesCreated.WithLabelValues("range").Inc()
	}

	for _, d := range in.Dimensions {
		rng, err := lookup(cfg.Ranges, "range", d.Range)
		if err != nil {
			return nil, fmt.Errorf("register %s: dimension %q: %w", in.Name, d.Name, err)
		}
		a, err := r.catalog.CreateDimension(ctx, domain.Dimension{Name: d.Name, Range: rng, Computed: d.Computed})
		if err != nil {
			return nil, fmt.Errorf("register %s: dimension %q: %w", in.Name, d.Name, err)
		}
		cfg.Dimensions[d.Name] = a.EntryAddress
		entitiesCreated.WithLabelValues("dimension").Inc()
	}

	for _, rd := range in.ResourceDefs {
		if rd.AppletID == "" {
			rd.AppletID = in.AppletID
		}
		a, err := r.catalog.CreateResourceDef(ctx, rd)
		if err != nil {
			return nil, fmt.Errorf("register %s: resource def %q: %w", in.Name, rd.Name, err)
		}
		cfg.ResourceDefs[rd.Name] = a.EntryAddress
		entitiesCreated.WithLabelValues("resource_def").Inc()
	}

	for _, m := range in.Methods {
		method, err := buildMethod(cfg, m)
		if err != nil {
			return nil, fmt.Errorf("register %s: method %q: %w", in.Name, m.Name, err)
		}
		a, err := r.catalog.CreateMethod(ctx, method)
		if err != nil {
			return nil, fmt.Errorf("register %s: method %q: %w", in.Name, m.Name, err)
		}
		cfg.Methods[m.Name] = a.EntryAddress
		entitiesCreated.WithLabelValues("method").Inc()
	}

	for _, cc := range in.CulturalContexts {
		culturalContext, err := buildCulturalContext(cfg, cc)
		if err != nil {
			return nil, fmt.Errorf("register %s: cultural context %q: %w", in.Name, cc.Name, err)
		}
		a, err := r.catalog.CreateCulturalContext(ctx, culturalContext)
		if err != nil {
			return nil, fmt.Errorf("register %s: cultural context %q: %w", in.Name, cc.Name, err)
		}
		cfg.CulturalContexts[cc.Name] = a.EntryAddress
		entitiesCreated.WithLabelValues("cultural_context").Inc()
	}

	a, err := ledger.CreateEntity(ctx, r.l, cfg)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", in.Name, err)
	}
	anchor, err := r.paths.Ensure(ctx, namePath(in.Name))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", in.Name, fault.Write("ensure name path", err))
	}
	if _, err := r.l.CreateLink(ctx, anchor, a.EntryAddress, domain.LinkTypeAppletConfig, ""); err != nil {
		return nil, fault.Write("index applet config "+in.Name, err)
	}
	for name, rd := range cfg.ResourceDefs {
		if _, err := r.l.CreateLink(ctx, rd, a.EntryAddress, domain.LinkTypeResourceDefToAppletConfig, ""); err != nil {
			return nil, fault.Write("link resource def "+name, err)
		}
	}
	return &Registration{Config: cfg, Address: a.EntryAddress, Created: true}, nil
}

func lookup(names map[string]domain.Address, kind, name string) (domain.Address, error) {
	addr, ok := names[name]
	if !ok {
		return "", fault.Newf(fault.CodeInvalidInput, "unknown %s %q", kind, name)
	}
	return addr, nil
}

func buildMethod(cfg domain.AppletConfig, m domain.ConfigMethod) (domain.Method, error) {
	target, err := lookup(cfg.ResourceDefs, "resource def", m.TargetResourceDef)
	if err != nil {
		return domain.Method{}, err
	}
	output, err := lookup(cfg.Dimensions, "dimension", m.OutputDimension)
	if err != nil {
		return domain.Method{}, err
	}
	inputs := make([]domain.Address, 0, len(m.InputDimensions))
	for _, name := range m.InputDimensions {
		in, err := lookup(cfg.Dimensions, "dimension", name)
		if err != nil {
			return domain.Method{}, err
		}
		inputs = append(inputs, in)
	}
	return domain.Method{
		Name:               m.Name,
		TargetResourceDef:  target,
		InputDimensions:    inputs,
		OutputDimension:    output,
		Program:            m.Program,
		CanComputeLive:     m.CanComputeLive,
		RequiresValidation: m.RequiresValidation,
	}, nil
}

func buildCulturalContext(cfg domain.AppletConfig, cc domain.ConfigCulturalContext) (domain.CulturalContext, error) {
	rd, err := lookup(cfg.ResourceDefs, "resource def", cc.ResourceDef)
	if err != nil {
		return domain.CulturalContext{}, err
	}
	out := domain.CulturalContext{Name: cc.Name, ResourceDef: rd}
	for _, th := range cc.Thresholds {
		d, err := lookup(cfg.Dimensions, "dimension", th.Dimension)
		if err != nil {
			return domain.CulturalContext{}, err
		}
		out.Thresholds = append(out.Thresholds, domain.Threshold{Dimension: d, Kind: th.Kind, Value: th.Value})
	}
	for _, o := range cc.OrderBy {
		d, err := lookup(cfg.Dimensions, "dimension", o.Dimension)
		if err != nil {
			return domain.CulturalContext{}, err
		}
		out.OrderBy = append(out.OrderBy, domain.Ordering{Dimension: d, Kind: o.Kind})
	}
	return out, nil
}

// Lookup returns the configuration registered under name, or nil. When
// racing registrations left several, the last one indexed wins.
func (r *Registry) Lookup(ctx context.Context, name string) (*Registration, error) {
	anchor, err := r.paths.Anchor(namePath(name))
	if err != nil {
		return nil, err
	}
	links, err := r.l.Links(ctx, anchor, domain.LinkTypeAppletConfig, "")
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	if len(links) > 1 {
		r.logger.Warn("applet registered more than once", "applet", name, "count", len(links))
	}
	return r.load(ctx, links[len(links)-1].Target)
}

func (r *Registry) load(ctx context.Context, addr domain.Address) (*Registration, error) {
	cfg, err := ledger.GetEntity[domain.AppletConfig](ctx, r.l, addr)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fault.Newf(fault.CodeNotFound, "applet config %s is indexed but missing", addr)
	}
	return &Registration{Config: *cfg, Address: addr}, nil
}

// List returns one configuration per registered applet name.
func (r *Registry) List(ctx context.Context) ([]Registration, error) {
	names, err := r.paths.Children(ctx, Root)
	if err != nil {
		return nil, err
	}
	out := make([]Registration, 0, len(names))
	for _, name := range names {
		reg, err := r.Lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		if reg != nil {
			out = append(out, *reg)
		}
	}
	return out, nil
}

// ForResourceDef returns every configuration that declared resourceDef.
func (r *Registry) ForResourceDef(ctx context.Context, resourceDef domain.Address) ([]Registration, error) {
	links, err := r.l.Links(ctx, resourceDef, domain.LinkTypeResourceDefToAppletConfig, "")
	if err != nil {
		return nil, err
	}
	out := make([]Registration, 0, len(links))
	for _, link := range links {
		reg, err := r.load(ctx, link.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, nil
}
