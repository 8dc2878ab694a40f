// Package catalog creates and looks up the entities the sensemaker core
// works with. Every kind is discoverable from a path anchor; assessments and
// methods are also indexed from the addresses they refer to.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/resolver"
)

// Path anchors that index every entity of a kind.
const (
	PathRanges           = "ranges"
	PathDimensions       = "dimensions"
	PathResourceDefs     = "resource_defs"
	PathCulturalContexts = "cultural_contexts"
	PathMethods          = "methods"
	PathControls         = "assessment_controls"
)

// Catalog writes and reads entities on a ledger.
type Catalog struct {
	l      ledger.Ledger
	paths  *ledger.Paths
	author string
	now    func() time.Time
	logger *slog.Logger
}

// New returns a Catalog. author is recorded on the assessments it writes.
func New(l ledger.Ledger, paths *ledger.Paths, author string, logger *slog.Logger) *Catalog {
	if paths == nil {
		paths = ledger.NewPaths(l)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		l:      l,
		paths:  paths,
		author: author,
		now:    time.Now,
		logger: logger.With("component", "catalog"),
	}
}

// Ledger returns the underlying ledger.
func (c *Catalog) Ledger() ledger.Ledger { return c.l }

// Paths returns the path index shared by this catalog.
func (c *Catalog) Paths() *ledger.Paths { return c.paths }

// createIndexed creates v and links it from the anchor of path.
func (c *Catalog) createIndexed(ctx context.Context, v ledger.Entity, path string, typ domain.LinkType) (*ledger.Action, error) {
	a, err := ledger.CreateEntity(ctx, c.l, v)
	if err != nil {
		return nil, err
	}
	anchor, err := c.paths.Ensure(ctx, path)
	if err != nil {
		return nil, fault.Write("ensure path "+path, err)
	}
	if _, err := c.l.CreateLink(ctx, anchor, a.EntryAddress, typ, ""); err != nil {
		return nil, fault.Write("index "+v.EntryType(), err)
	}
	c.logger.Debug("entity created", "type", v.EntryType(), "address", a.EntryAddress)
	return a, nil
}

// listIndexed resolves every entity linked from the anchor of path. Deleted
// entities are skipped, as are links that resolve to an entity already seen.
func listIndexed[T ledger.Entity](ctx context.Context, c *Catalog, path string, typ domain.LinkType) ([]resolver.Resolved[T], error) {
	anchor, err := c.paths.Anchor(path)
	if err != nil {
		return nil, err
	}
	links, err := c.l.Links(ctx, anchor, typ, "")
	if err != nil {
		return nil, err
	}
	return resolver.Each[T](ctx, c.l, links)
}

func requireEntity(what string, addr domain.Address) error {
	if !addr.IsEntity() {
		return fault.Newf(fault.CodeInvalidReference, "%s %q is not an entity address", what, addr)
	}
	return nil
}
