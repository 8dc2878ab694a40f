package service

import (
	"context"
	"log/slog"

	"sensemaker/internal/catalog"
	"sensemaker/internal/domain"
	"sensemaker/internal/ledger"
	"sensemaker/internal/method"
	"sensemaker/internal/registry"
	"sensemaker/internal/resolver"
	"sensemaker/internal/tray"
)

// Service exposes the sensemaker operations over a single ledger
type Service struct {
	catalog  *catalog.Catalog
	trays    *tray.Store
	registry *registry.Registry
	engine   *method.Engine
	events   *EventBus
	logger   *slog.Logger
}

// New wires every component onto l. A nil bus gets a private one.
func New(l ledger.Ledger, author string, bus *EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if bus == nil {
		bus = NewEventBus()
	}
	paths := ledger.NewPaths(l)
	c := catalog.New(l, paths, author, logger)
	return &Service{
		catalog:  c,
		trays:    tray.New(l, paths, logger),
		registry: registry.New(c, logger),
		engine:   method.New(c, logger),
		events:   bus,
		logger:   logger.With("component", "service"),
	}
}

// Events returns the bus this service publishes on.
func (s *Service) Events() *EventBus { return s.events }

// Catalog returns the entity catalog for direct reads.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// GetConfig returns the current version of a tray configuration, or nil.
func (s *Service) GetConfig(ctx context.Context, addr domain.Address) (*tray.Config, error) {
	return s.trays.Get(ctx, addr)
}

// ListConfigs returns every live tray configuration.
func (s *Service) ListConfigs(ctx context.Context) ([]tray.Config, error) {
	return s.trays.List(ctx)
}

// SetConfig creates a named tray configuration
func (s *Service) SetConfig(ctx context.Context, name string, controls []domain.AssessmentControlConfig) (*tray.Config, error) {
	cfg, err := s.trays.Set(ctx, name, controls)
	if err != nil {
		return nil, err
	}
	s.events.Publish(Event{
		Type:    EventTrayConfigSet,
		Payload: map[string]string{"name": name, "address": cfg.Address.String()},
	})
	return cfg, nil
}

// UpdateConfig revises the configuration written at original.
func (s *Service) UpdateConfig(ctx context.Context, original domain.Address, cfg domain.AssessmentTrayConfig) (domain.Address, error) {
	addr, err := s.trays.Update(ctx, original, cfg)
	if err != nil {
		return "", err
	}
	s.events.Publish(Event{
		Type:    EventTrayConfigUpdated,
		Payload: map[string]string{"original": original.String(), "address": addr.String()},
	})
	return addr, nil
}

// DeleteConfig tombstones the configuration written at revision.
func (s *Service) DeleteConfig(ctx context.Context, revision domain.Address) (domain.Address, error) {
	addr, err := s.trays.Delete(ctx, revision)
	if err != nil {
		return "", err
	}
	s.events.Publish(Event{
		Type:    EventTrayConfigDeleted,
		Payload: map[string]string{"revision": revision.String()},
	})
	return addr, nil
}

// GetDefaultConfig returns the default tray configuration of resourceDef, or nil.
func (s *Service) GetDefaultConfig(ctx context.Context, resourceDef domain.Address) (*tray.Config, error) {
	return s.trays.GetDefault(ctx, resourceDef)
}

// SetDefaultConfig points resourceDef at config.
func (s *Service) SetDefaultConfig(ctx context.Context, resourceDef, config domain.Address) (domain.Address, error) {
	addr, err := s.trays.SetDefault(ctx, resourceDef, config)
	if err != nil {
		return "", err
	}
	s.events.Publish(Event{
		Type:    EventDefaultTrayConfigSet,
		Payload: map[string]string{"resource_def": resourceDef.String(), "config": addr.String()},
	})
	return addr, nil
}

// RegisterApplet registers a bundle, or returns the existing registration of
// the same name.
func (s *Service) RegisterApplet(ctx context.Context, in domain.AppletConfigInput) (*registry.Registration, error) {
	reg, err := s.registry.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if reg.Created {
		s.events.Publish(Event{Type: EventAppletRegistered, Payload: reg})
	}
	return reg, nil
}

// GetApplet returns the registration under name, or nil.
func (s *Service) GetApplet(ctx context.Context, name string) (*registry.Registration, error) {
	return s.registry.Lookup(ctx, name)
}

// ListApplets returns one registration per applet name.
func (s *Service) ListApplets(ctx context.Context) ([]registry.Registration, error) {
	return s.registry.List(ctx)
}

// AppletsForResourceDef returns the registrations that declared resourceDef.
func (s *Service) AppletsForResourceDef(ctx context.Context, resourceDef domain.Address) ([]registry.Registration, error) {
	return s.registry.ForResourceDef(ctx, resourceDef)
}

// RunMethod computes and records the method's output assessment.
func (s *Service) RunMethod(ctx context.Context, in method.RunInput) (*method.Result, error) {
	res, err := s.engine.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.Publish(Event{Type: EventMethodRun, Payload: res})
	s.events.Publish(Event{
		Type:    EventAssessmentCreated,
		Payload: map[string]any{"address": res.Address, "assessment": res.Assessment},
	})
	return res, nil
}

// MethodsForDimension returns the methods that use dimension in role.
func (s *Service) MethodsForDimension(ctx context.Context, dimension domain.Address, role domain.DimensionRole) ([]resolver.Resolved[domain.Method], error) {
	return s.catalog.MethodsForDimension(ctx, dimension, role)
}

// UpdateMethod revises the method written at original.
func (s *Service) UpdateMethod(ctx context.Context, original domain.Address, m domain.Method) (domain.Address, error) {
	addr, err := s.catalog.UpdateMethod(ctx, original, m)
	if err != nil {
		return "", err
	}
	s.events.Publish(Event{
		Type:    EventMethodUpdated,
		Payload: map[string]string{"original": original.String(), "address": addr.String()},
	})
	return addr, nil
}

// DeleteMethod tombstones the method written at revision.
func (s *Service) DeleteMethod(ctx context.Context, revision domain.Address) (domain.Address, error) {
	addr, err := s.catalog.DeleteMethod(ctx, revision)
	if err != nil {
		return "", err
	}
	s.events.Publish(Event{
		Type:    EventMethodDeleted,
		Payload: map[string]string{"revision": revision.String()},
	})
	return addr, nil
}

// CreateAssessment records a hand-entered assessment.
func (s *Service) CreateAssessment(ctx context.Context, in domain.CreateAssessmentInput) (*domain.Assessment, domain.Address, error) {
	a, action, err := s.catalog.CreateAssessment(ctx, in)
	if err != nil {
		return nil, "", err
	}
	s.events.Publish(Event{
		Type:    EventAssessmentCreated,
		Payload: map[string]any{"address": action.EntryAddress, "assessment": a},
	})
	return a, action.EntryAddress, nil
}

// AssessmentsFor returns the assessments of resource along dimension.
func (s *Service) AssessmentsFor(ctx context.Context, resource, dimension domain.Address) ([]domain.Assessment, error) {
	return s.catalog.AssessmentsFor(ctx, resource, dimension)
}

// RegisterControl records an assessment control registration.
func (s *Service) RegisterControl(ctx context.Context, reg domain.AssessmentControlRegistration) (domain.Address, error) {
	a, err := s.catalog.RegisterControl(ctx, reg)
	if err != nil {
		return "", err
	}
	return a.EntryAddress, nil
}

// ListControls returns every registered assessment control.
func (s *Service) ListControls(ctx context.Context) ([]resolver.Resolved[domain.AssessmentControlRegistration], error) {
	return s.catalog.ListControls(ctx)
}
