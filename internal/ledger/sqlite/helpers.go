package sqlite

import (
	"database/sql"

	"sensemaker/internal/domain"
	"sensemaker/internal/ledger"
)

const actionColumns = `address, kind, author, seq, timestamp, entry_type, entry_address,
	original_action, original_entry, deletes, base, target, link_type, tag`

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(s scanner) (ledger.Action, error) {
	var (
		address, kind, author, entryType, entryAddress string
		originalAction, originalEntry, deletes         string
		base, target, linkType, tag                    string
		seq, timestamp                                 int64
	)
	if err := s.Scan(&address, &kind, &author, &seq, &timestamp, &entryType, &entryAddress,
		&originalAction, &originalEntry, &deletes, &base, &target, &linkType, &tag); err != nil {
		return ledger.Action{}, err
	}
	return ledger.Action{
		Address:        domain.Address(address),
		Kind:           ledger.ActionKind(kind),
		Author:         author,
		Seq:            uint64(seq),
		Timestamp:      timestamp,
		EntryType:      entryType,
		EntryAddress:   domain.Address(entryAddress),
		OriginalAction: domain.Address(originalAction),
		OriginalEntry:  domain.Address(originalEntry),
		Deletes:        domain.Address(deletes),
		Base:           domain.Address(base),
		Target:         domain.Address(target),
		LinkType:       domain.LinkType(linkType),
		Tag:            tag,
	}, nil
}

func scanActions(rows *sql.Rows) ([]ledger.Action, error) {
	defer rows.Close()
	var out []ledger.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func actionArgs(a ledger.Action) []any {
	return []any{
		string(a.Address), string(a.Kind), a.Author, int64(a.Seq), a.Timestamp,
		a.EntryType, string(a.EntryAddress), string(a.OriginalAction), string(a.OriginalEntry),
		string(a.Deletes), string(a.Base), string(a.Target), string(a.LinkType), a.Tag,
	}
}
