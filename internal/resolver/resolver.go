// Package resolver recovers the current value of a versioned entity from
// its revision history.
package resolver

import (
	"context"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Resolved is the current value of an entity lineage.
type Resolved[T ledger.Entity] struct {
	Value T `json:"value"`
	// Origin is the entity address resolution started from.
	Origin domain.Address `json:"origin"`
	// Address is the entity address of Value.
	Address domain.Address `json:"address"`
	// Revision is the action that wrote Value: the update followed last,
	// or the first create when the entity was never updated.
	Revision domain.Address `json:"revision"`
}

// Latest walks the revisions of origin and returns the current value, or
// nil if origin is unknown or was deleted.
//
// At each step the most recently indexed update is followed to the entity
// it wrote. Deletes only matter at the frontier, when there is no update
// left to follow. A lineage that returns to content it already passed
// through ends at that content.
//
// A revision address is a caller error and fails with INVALID_REFERENCE.
func Latest[T ledger.Entity](ctx context.Context, l ledger.Ledger, origin domain.Address) (*Resolved[T], error) {
	if !origin.IsEntity() {
		return nil, fault.Newf(fault.CodeInvalidReference, "%s is not an entity address", origin).
			With("address", string(origin))
	}

	var (
		addr    = origin
		via     *ledger.Action
		visited = make(map[domain.Address]bool)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		visited[addr] = true

		d, err := l.Details(ctx, addr)
		if err != nil {
			return nil, err
		}
		if d == nil {
			if via == nil {
				return nil, nil
			}
			return nil, fault.Newf(fault.CodeNotFound, "revision %s points at missing entry %s", via.Address, addr)
		}
		if d.Kind != ledger.DetailsEntry {
			return nil, fault.Newf(fault.CodeInvalidReference, "%s resolves to a record, not an entry", addr).
				With("address", string(addr))
		}

		if n := len(d.Updates); n > 0 {
			update := d.Updates[n-1]
			value, next, err := follow[T](ctx, l, update)
			if err != nil {
				return nil, err
			}
			via = &update
			if visited[next] {
				return &Resolved[T]{Value: value, Origin: origin, Address: next, Revision: update.Address}, nil
			}
			addr = next
			continue
		}

		if len(d.Deletes) > 0 {
			return nil, nil
		}

		value, err := ledger.Decode[T](d.Entry)
		if err != nil {
			return nil, err
		}
		res := &Resolved[T]{Value: value, Origin: origin, Address: addr}
		switch {
		case via != nil:
			res.Revision = via.Address
		case len(d.Creates) > 0:
			res.Revision = d.Creates[0].Address
		}
		return res, nil
	}
}

// follow loads the entry an update wrote and recomputes its address.
func follow[T ledger.Entity](ctx context.Context, l ledger.Ledger, update ledger.Action) (T, domain.Address, error) {
	var zero T
	rec, err := l.Get(ctx, update.Address)
	if err != nil {
		return zero, "", err
	}
	if rec == nil || rec.Entry == nil {
		return zero, "", fault.Newf(fault.CodeNotFound, "update %s has no entry", update.Address)
	}
	value, err := ledger.Decode[T](rec.Entry)
	if err != nil {
		return zero, "", err
	}
	next, err := ledger.HashEntity(value)
	if err != nil {
		return zero, "", err
	}
	return value, next, nil
}

// Each resolves the target of every link. Targets that are absent, or that
// resolve to an entity already returned, are skipped.
func Each[T ledger.Entity](ctx context.Context, l ledger.Ledger, links []ledger.Link) ([]Resolved[T], error) {
	out := make([]Resolved[T], 0, len(links))
	seen := make(map[domain.Address]bool, len(links))
	for _, link := range links {
		res, err := Latest[T](ctx, l, link.Target)
		if err != nil {
			return nil, err
		}
		if res == nil || seen[res.Address] {
			continue
		}
		seen[res.Address] = true
		out = append(out, *res)
	}
	return out, nil
}
