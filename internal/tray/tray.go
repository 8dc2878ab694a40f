// Package tray manages assessment tray configurations and the default tray
// pointer kept per resource definition.
package tray

import (
	"context"
	"log/slog"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/pointer"
	"sensemaker/internal/resolver"
)

// Path is the anchor every tray configuration is indexed under.
const Path = "assessment_tray_config"

// Config is a resolved tray configuration.
type Config = resolver.Resolved[domain.AssessmentTrayConfig]

// Store reads and writes tray configurations.
type Store struct {
	l        ledger.Ledger
	paths    *ledger.Paths
	defaults *pointer.Manager
	logger   *slog.Logger
}

// New returns a Store.
func New(l ledger.Ledger, paths *ledger.Paths, logger *slog.Logger) *Store {
	if paths == nil {
		paths = ledger.NewPaths(l)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		l:        l,
		paths:    paths,
		defaults: pointer.New(l, domain.LinkTypeDefaultTrayConfig, logger),
		logger:   logger.With("component", "tray"),
	}
}

// Get resolves the current version of the configuration at addr, or nil if
// it does not exist or was deleted.
func (s *Store) Get(ctx context.Context, addr domain.Address) (*Config, error) {
	return resolver.Latest[domain.AssessmentTrayConfig](ctx, s.l, addr)
}

// List returns the current version of every configuration.
func (s *Store) List(ctx context.Context) ([]Config, error) {
	anchor, err := s.paths.Anchor(Path)
	if err != nil {
		return nil, err
	}
	links, err := s.l.Links(ctx, anchor, domain.LinkTypeTrayConfig, "")
	if err != nil {
		return nil, err
	}
	return resolver.Each[domain.AssessmentTrayConfig](ctx, s.l, links)
}

// Set creates a named configuration and indexes it.
func (s *Store) Set(ctx context.Context, name string, controls []domain.AssessmentControlConfig) (*Config, error) {
	cfg := domain.AssessmentTrayConfig{Name: name, Controls: controls}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := ledger.CreateEntity(ctx, s.l, cfg)
	if err != nil {
		return nil, err
	}
	anchor, err := s.paths.Ensure(ctx, Path)
	if err != nil {
		return nil, fault.Write("ensure path "+Path, err)
	}
	if _, err := s.l.CreateLink(ctx, anchor, a.EntryAddress, domain.LinkTypeTrayConfig, ""); err != nil {
		return nil, fault.Write("index tray config", err)
	}
	s.logger.Info("tray config created", "name", name, "address", a.EntryAddress)
	return &Config{Value: cfg, Origin: a.EntryAddress, Address: a.EntryAddress, Revision: a.Address}, nil
}

// Update writes cfg as a revision of original and returns the new entity
// address.
func (s *Store) Update(ctx context.Context, original domain.Address, cfg domain.AssessmentTrayConfig) (domain.Address, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	a, err := ledger.UpdateEntity(ctx, s.l, original, cfg)
	if err != nil {
		return "", err
	}
	return a.EntryAddress, nil
}

// Delete tombstones the configuration write at revision.
func (s *Store) Delete(ctx context.Context, revision domain.Address) (domain.Address, error) {
	a, err := s.l.Delete(ctx, revision)
	if err != nil {
		return "", fault.Write("delete tray config", err)
	}
	return a.Address, nil
}

// GetDefault resolves the default configuration of a resource definition,
// or nil if none is set or the one set was deleted.
func (s *Store) GetDefault(ctx context.Context, resourceDef domain.Address) (*Config, error) {
	target, ok, err := s.defaults.Get(ctx, resourceDef)
	if err != nil || !ok {
		return nil, err
	}
	return s.Get(ctx, target)
}

// SetDefault makes config the default for resourceDef. The pointer is best
// effort; see package pointer.
func (s *Store) SetDefault(ctx context.Context, resourceDef, config domain.Address) (domain.Address, error) {
	if !resourceDef.IsEntity() {
		return "", fault.Newf(fault.CodeInvalidReference, "resource def %q is not an entity address", resourceDef)
	}
	current, err := s.Get(ctx, config)
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", fault.Newf(fault.CodeNotFound, "tray config %s not found", config)
	}
	if err := s.defaults.Set(ctx, resourceDef, config); err != nil {
		return "", err
	}
	return config, nil
}

// Defaults returns every default pointer set for resourceDef.
func (s *Store) Defaults(ctx context.Context, resourceDef domain.Address) ([]ledger.Link, error) {
	return s.defaults.All(ctx, resourceDef)
}
