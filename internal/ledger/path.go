package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
)

// anchor is the entry committed for each component of a path.
type anchor struct {
	Path string `json:"path"`
}

func (anchor) EntryType() string { return "path" }

// Paths maintains dot-segmented anchor chains. Each prefix of a path is an
// anchor entry linked from its parent with the Paths' link type, tagged with
// the component name. The root is the anchor of the empty path.
type Paths struct {
	l     Ledger
	typ   domain.LinkType
	cache *cache.Cache
}

// NewPaths returns a Paths over l linking with LinkTypePath. Anchors already
// ensured by this instance are remembered so repeated Ensure calls do not
// re-read the link index.
func NewPaths(l Ledger) *Paths {
	return newPaths(l, domain.LinkTypePath)
}

func newPaths(l Ledger, typ domain.LinkType) *Paths {
	return &Paths{
		l:     l,
		typ:   typ,
		cache: cache.New(30*time.Minute, time.Hour),
	}
}

// Typed returns a Paths over the same ledger that links with typ. Anchor
// addresses do not depend on the link type.
func (p *Paths) Typed(typ domain.LinkType) *Paths {
	if typ == p.typ {
		return p
	}
	return newPaths(p.l, typ)
}

// Join builds a path from components.
func Join(components ...string) string {
	return strings.Join(components, ".")
}

func split(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fault.Newf(fault.CodeInvalidInput, "path %q has an empty component", path)
		}
	}
	return parts, nil
}

// Anchor returns the address of the anchor for path without writing.
func (p *Paths) Anchor(path string) (Address, error) {
	if _, err := split(path); err != nil {
		return "", err
	}
	return HashEntity(anchor{Path: path})
}

// Ensure commits any missing anchors and links along path and returns the
// address of its last anchor.
func (p *Paths) Ensure(ctx context.Context, path string) (Address, error) {
	parts, err := split(path)
	if err != nil {
		return "", err
	}
	if addr, ok := p.cache.Get(path); ok {
		return addr.(Address), nil
	}

	parent, err := p.Anchor("")
	if err != nil {
		return "", err
	}
	for i, part := range parts {
		prefix := Join(parts[:i+1]...)
		child, err := p.ensureChild(ctx, parent, prefix, part)
		if err != nil {
			return "", err
		}
		parent = child
	}
	p.cache.SetDefault(path, parent)
	return parent, nil
}

func (p *Paths) ensureChild(ctx context.Context, parent Address, prefix, component string) (Address, error) {
	if addr, ok := p.cache.Get(prefix); ok {
		return addr.(Address), nil
	}
	child, err := HashEntity(anchor{Path: prefix})
	if err != nil {
		return "", err
	}

	links, err := p.l.Links(ctx, parent, p.typ, component)
	if err != nil {
		return "", err
	}
	for _, link := range links {
		if link.Tag == component && link.Target == child {
			p.cache.SetDefault(prefix, child)
			return child, nil
		}
	}

	if _, err := CreateEntity(ctx, p.l, anchor{Path: prefix}); err != nil {
		return "", err
	}
	if _, err := p.l.CreateLink(ctx, parent, child, p.typ, component); err != nil {
		return "", fault.Write("link path "+prefix, err)
	}
	p.cache.SetDefault(prefix, child)
	return child, nil
}

// Children returns the component names linked under path, in insertion
// order. Names linked more than once are reported once.
func (p *Paths) Children(ctx context.Context, path string) ([]string, error) {
	base, err := p.Anchor(path)
	if err != nil {
		return nil, err
	}
	links, err := p.l.Links(ctx, base, p.typ, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(links))
	var names []string
	for _, link := range links {
		if seen[link.Tag] {
			continue
		}
		seen[link.Tag] = true
		names = append(names, link.Tag)
	}
	return names, nil
}
