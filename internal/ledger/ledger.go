package ledger

import (
	"context"
	"strings"
	"time"

	"sensemaker/internal/domain"
)

// Address is re-exported for brevity inside this package tree.
type Address = domain.Address

// Entry is an immutable record: an application type and its canonical bytes.
type Entry struct {
	Type    string `json:"type"`
	Content []byte `json:"content"`
}

// ActionKind enumerates the writes a ledger accepts.
type ActionKind string

const (
	ActionCreate     ActionKind = "create"
	ActionUpdate     ActionKind = "update"
	ActionDelete     ActionKind = "delete"
	ActionCreateLink ActionKind = "create_link"
	ActionDeleteLink ActionKind = "delete_link"
)

// WritesEntry reports whether actions of this kind carry an entry.
func (k ActionKind) WritesEntry() bool {
	return k == ActionCreate || k == ActionUpdate
}

// Action is one write. Its Address is the hash of every other field, so two
// otherwise identical writes differ by Seq.
type Action struct {
	Address   Address    `json:"-"`
	Kind      ActionKind `json:"kind"`
	Author    string     `json:"author"`
	Seq       uint64     `json:"seq"`
	Timestamp int64      `json:"timestamp"` // unix millis

	// create, update
	EntryType    string  `json:"entry_type,omitempty"`
	EntryAddress Address `json:"entry_address,omitempty"`

	// update, delete: the revision replaced and the entry it wrote
	OriginalAction Address `json:"original_action,omitempty"`
	OriginalEntry  Address `json:"original_entry,omitempty"`

	// delete_link: the create_link revision removed
	Deletes Address `json:"deletes,omitempty"`

	// create_link
	Base     Address         `json:"base,omitempty"`
	Target   Address         `json:"target,omitempty"`
	LinkType domain.LinkType `json:"link_type,omitempty"`
	Tag      string          `json:"tag,omitempty"`
}

// Record is an action together with the entry it wrote, if any.
type Record struct {
	Action Action
	Entry  *Entry
}

// DetailsKind says what an address resolved to.
type DetailsKind int

const (
	// DetailsEntry: the address is an entity address.
	DetailsEntry DetailsKind = iota + 1
	// DetailsRecord: the address is a revision address.
	DetailsRecord
)

// Details is the metadata known for an address.
//
// For an entity address, Creates lists the actions that wrote the entry,
// Updates the actions that replaced one of those writes, and Deletes the
// tombstones on them. All three are in ledger insertion order.
type Details struct {
	Kind    DetailsKind
	Entry   *Entry
	Creates []Action
	Updates []Action
	Deletes []Action

	// Record is set when Kind is DetailsRecord.
	Record *Record
}

// Link is a live create_link action.
type Link struct {
	Address   Address         `json:"address"`
	Base      Address         `json:"base"`
	Target    Address         `json:"target"`
	Type      domain.LinkType `json:"type"`
	Tag       string          `json:"tag"`
	Author    string          `json:"author"`
	Timestamp int64           `json:"timestamp"`
	Seq       uint64          `json:"-"`
}

// LinkFromAction projects a create_link action onto a Link.
func LinkFromAction(a Action) Link {
	return Link{
		Address:   a.Address,
		Base:      a.Base,
		Target:    a.Target,
		Type:      a.LinkType,
		Tag:       a.Tag,
		Author:    a.Author,
		Timestamp: a.Timestamp,
		Seq:       a.Seq,
	}
}

// Ledger is the substrate interface. Every call is individually fallible;
// there are no transactions spanning calls.
//
// Lookups return a nil value and a nil error for an unknown address.
type Ledger interface {
	// Create writes e and returns the create action.
	Create(ctx context.Context, e Entry) (*Action, error)
	// Update writes e as a revision of the entry written by original,
	// which must be a create or update revision address.
	Update(ctx context.Context, original Address, e Entry) (*Action, error)
	// Delete tombstones the entry written by revision.
	Delete(ctx context.Context, revision Address) (*Action, error)

	// Get returns the record at an entity or revision address. For an
	// entity address the earliest write of that entry is returned.
	Get(ctx context.Context, addr Address) (*Record, error)
	// Details returns the metadata for an entity or revision address.
	Details(ctx context.Context, addr Address) (*Details, error)

	// CreateLink indexes target under base.
	CreateLink(ctx context.Context, base, target Address, typ domain.LinkType, tag string) (*Link, error)
	// DeleteLink removes the link created by the given revision.
	DeleteLink(ctx context.Context, link Address) error
	// Links returns the live links of typ from base whose tag starts with
	// tagPrefix, in insertion order. An empty prefix matches every tag.
	Links(ctx context.Context, base Address, typ domain.LinkType, tagPrefix string) ([]Link, error)

	Close() error
}

// MatchTag reports whether tag passes a prefix filter.
func MatchTag(tag, prefix string) bool {
	return strings.HasPrefix(tag, prefix)
}

// Stamp fills the bookkeeping fields of a and seals its address.
func Stamp(a *Action, author string, seq uint64, now time.Time) error {
	a.Author = author
	a.Seq = seq
	a.Timestamp = now.UnixMilli()
	addr, err := HashAction(*a)
	if err != nil {
		return err
	}
	a.Address = addr
	return nil
}
