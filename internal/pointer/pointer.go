// Package pointer keeps a best-effort "current target" per key on top of the
// link index.
//
// The link index has no atomic replace. Set deletes every existing pointer
// link and then creates one, as independent writes. Concurrent writers, or
// a failure between the deletes and the create, can leave several pointer
// links or none. Readers take the first link and ignore the rest; All
// exposes the full set for callers that want to see or repair duplicates.
package pointer

import (
	"context"
	"log/slog"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Manager maintains pointers of one link type.
type Manager struct {
	l      ledger.Ledger
	typ    domain.LinkType
	logger *slog.Logger
}

// New returns a Manager for pointer links of typ.
func New(l ledger.Ledger, typ domain.LinkType, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{l: l, typ: typ, logger: logger.With("pointer", string(typ))}
}

// Get returns the target of the first pointer link from key. ok is false
// when key has no pointer.
func (m *Manager) Get(ctx context.Context, key domain.Address) (target domain.Address, ok bool, err error) {
	links, err := m.l.Links(ctx, key, m.typ, "")
	if err != nil {
		return "", false, err
	}
	if len(links) == 0 {
		return "", false, nil
	}
	target = links[0].Target
	if !target.IsEntity() {
		return "", false, fault.Newf(fault.CodeInvalidReference, "pointer %s from %s targets non-entity %q", links[0].Address, key, target).
			With("link", string(links[0].Address))
	}
	return target, true, nil
}

// All returns every live pointer link from key. More than one means writers
// raced.
func (m *Manager) All(ctx context.Context, key domain.Address) ([]ledger.Link, error) {
	return m.l.Links(ctx, key, m.typ, "")
}

// Set points key at target. Failures deleting old links are logged and
// skipped; failure creating the new link is returned.
func (m *Manager) Set(ctx context.Context, key, target domain.Address) error {
	if !target.IsEntity() {
		return fault.Newf(fault.CodeInvalidReference, "pointer target %q is not an entity address", target)
	}
	existing, err := m.l.Links(ctx, key, m.typ, "")
	if err != nil {
		return err
	}
	for _, link := range existing {
		if err := m.l.DeleteLink(ctx, link.Address); err != nil {
			m.logger.Warn("failed to delete previous pointer",
				"key", key, "link", link.Address, "error", err)
		}
	}
	if _, err := m.l.CreateLink(ctx, key, target, m.typ, ""); err != nil {
		return fault.Write("set pointer", err)
	}
	return nil
}
