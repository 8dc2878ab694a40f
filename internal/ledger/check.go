package ledger

import (
	"sensemaker/internal/fault"
)

// CheckUpdate validates an update of the revision rec against e. Backends
// call it with the record they loaded for the original revision.
func CheckUpdate(original Address, rec *Record, e Entry) error {
	if err := checkEntryRevision(original, rec); err != nil {
		return err
	}
	if rec.Entry.Type != e.Type {
		return fault.Newf(fault.CodeTypeMismatch, "cannot update %s entry with %s", rec.Entry.Type, e.Type).
			With("revision", string(original))
	}
	return nil
}

// CheckDelete validates a delete of the revision rec.
func CheckDelete(revision Address, rec *Record) error {
	return checkEntryRevision(revision, rec)
}

// CheckDeleteLink validates a delete_link of the revision rec.
func CheckDeleteLink(link Address, rec *Record) error {
	if !link.IsRevision() {
		return fault.Newf(fault.CodeInvalidReference, "%s is not a revision address", link)
	}
	if rec == nil {
		return fault.Newf(fault.CodeNotFound, "link %s not found", link)
	}
	if rec.Action.Kind != ActionCreateLink {
		return fault.Newf(fault.CodeInvalidReference, "%s is a %s action, not a link", link, rec.Action.Kind)
	}
	return nil
}

func checkEntryRevision(revision Address, rec *Record) error {
	if !revision.IsRevision() {
		return fault.Newf(fault.CodeInvalidReference, "%s is not a revision address", revision)
	}
	if rec == nil {
		return fault.Newf(fault.CodeNotFound, "revision %s not found", revision)
	}
	if !rec.Action.Kind.WritesEntry() || rec.Entry == nil {
		return fault.Newf(fault.CodeInvalidReference, "%s is a %s action, not an entry write", revision, rec.Action.Kind)
	}
	return nil
}
