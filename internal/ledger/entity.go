package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"sensemaker/internal/fault"
)

// Entity is an application value that can be stored as an Entry.
type Entity interface {
	EntryType() string
}

// EncodeEntity returns the canonical entry for v.
func EncodeEntity(v Entity) (Entry, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return Entry{}, fault.Wrap(fault.CodeInvalidInput, fmt.Sprintf("encode %s", v.EntryType()), err)
	}
	return Entry{Type: v.EntryType(), Content: content}, nil
}

// HashEntity returns the entity address v would be stored under.
func HashEntity(v Entity) (Address, error) {
	e, err := EncodeEntity(v)
	if err != nil {
		return "", err
	}
	return HashEntry(e), nil
}

// CreateEntity encodes and creates v.
func CreateEntity(ctx context.Context, l Ledger, v Entity) (*Action, error) {
	e, err := EncodeEntity(v)
	if err != nil {
		return nil, err
	}
	a, err := l.Create(ctx, e)
	if err != nil {
		return nil, fault.Write("create "+e.Type, err)
	}
	return a, nil
}

// UpdateEntity encodes v and writes it as a revision of original.
func UpdateEntity(ctx context.Context, l Ledger, original Address, v Entity) (*Action, error) {
	e, err := EncodeEntity(v)
	if err != nil {
		return nil, err
	}
	a, err := l.Update(ctx, original, e)
	if err != nil {
		return nil, fault.Write("update "+e.Type, err)
	}
	return a, nil
}

// Decode unmarshals e as a T. An entry of another type, or content that
// does not decode, is a TYPE_MISMATCH.
func Decode[T Entity](e *Entry) (T, error) {
	var v T
	if e == nil {
		return v, fault.Newf(fault.CodeTypeMismatch, "no entry to decode as %s", v.EntryType())
	}
	if e.Type != v.EntryType() {
		return v, fault.Newf(fault.CodeTypeMismatch, "entry is %s, want %s", e.Type, v.EntryType())
	}
	if err := json.Unmarshal(e.Content, &v); err != nil {
		return v, fault.Wrap(fault.CodeTypeMismatch, fmt.Sprintf("decode %s", e.Type), err)
	}
	return v, nil
}

// GetEntity fetches the record at addr and decodes it as a T. An unknown
// address yields nil, nil.
func GetEntity[T Entity](ctx context.Context, l Ledger, addr Address) (*T, error) {
	rec, err := l.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Entry == nil {
		return nil, fault.Newf(fault.CodeInvalidReference, "%s is a %s action without an entry", addr, rec.Action.Kind).
			With("address", string(addr))
	}
	v, err := Decode[T](rec.Entry)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
