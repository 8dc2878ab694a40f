package domain

// Address identifies an immutable record in the ledger.
type Address string

// Space tells which address space an Address belongs to.
type Space byte

const (
	SpaceUnknown  Space = 0
	SpaceEntity   Space = 'E' // hash of an entry's canonical content
	SpaceRevision Space = 'R' // hash of one write action
)

// Space returns the address space encoded in the address prefix.
func (a Address) Space() Space {
	if len(a) < 2 {
		return SpaceUnknown
	}
	switch Space(a[0]) {
	case SpaceEntity, SpaceRevision:
		return Space(a[0])
	}
	return SpaceUnknown
}

// IsEntity reports whether a is an entity address.
func (a Address) IsEntity() bool { return a.Space() == SpaceEntity }

// IsRevision reports whether a is a revision address.
func (a Address) IsRevision() bool { return a.Space() == SpaceRevision }

func (a Address) String() string { return string(a) }

func (s Space) String() string {
	switch s {
	case SpaceEntity:
		return "entity"
	case SpaceRevision:
		return "revision"
	}
	return "unknown"
}
