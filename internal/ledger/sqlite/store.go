// Package sqlite is the durable ledger backend, built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Store implements ledger.Ledger on a single SQLite database.
type Store struct {
	db     *sql.DB
	author string
	now    func() time.Time
}

var _ ledger.Ledger = (*Store)(nil)

// Open opens (creating if needed) the ledger at path and applies migrations.
// A path of ":memory:" gives a private in-memory ledger. Every action written
// through the store is signed with author.
func Open(path, author string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	dsn := path + "?_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn = "file:" + dsn + "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// Sequence numbers are allocated inside a transaction; one connection
	// keeps them gap-free and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Store{db: db, author: author, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create implements ledger.Ledger.
func (s *Store) Create(ctx context.Context, e ledger.Entry) (*ledger.Action, error) {
	a := ledger.Action{
		Kind:         ledger.ActionCreate,
		EntryType:    e.Type,
		EntryAddress: ledger.HashEntry(e),
	}
	if err := s.write(ctx, &a, &e); err != nil {
		return nil, err
	}
	return &a, nil
}

// Update implements ledger.Ledger.
func (s *Store) Update(ctx context.Context, original domain.Address, e ledger.Entry) (*ledger.Action, error) {
	rec, err := s.getRevision(ctx, original)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckUpdate(original, rec, e); err != nil {
		return nil, err
	}
	a := ledger.Action{
		Kind:           ledger.ActionUpdate,
		EntryType:      e.Type,
		EntryAddress:   ledger.HashEntry(e),
		OriginalAction: original,
		OriginalEntry:  rec.Action.EntryAddress,
	}
	if err := s.write(ctx, &a, &e); err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete implements ledger.Ledger.
func (s *Store) Delete(ctx context.Context, revision domain.Address) (*ledger.Action, error) {
	rec, err := s.getRevision(ctx, revision)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckDelete(revision, rec); err != nil {
		return nil, err
	}
	a := ledger.Action{
		Kind:           ledger.ActionDelete,
		OriginalAction: revision,
		OriginalEntry:  rec.Action.EntryAddress,
	}
	if err := s.write(ctx, &a, nil); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateLink implements ledger.Ledger.
func (s *Store) CreateLink(ctx context.Context, base, target domain.Address, typ domain.LinkType, tag string) (*ledger.Link, error) {
	a := ledger.Action{
		Kind:     ledger.ActionCreateLink,
		Base:     base,
		Target:   target,
		LinkType: typ,
		Tag:      tag,
	}
	if err := s.write(ctx, &a, nil); err != nil {
		return nil, err
	}
	link := ledger.LinkFromAction(a)
	return &link, nil
}

// DeleteLink implements ledger.Ledger.
func (s *Store) DeleteLink(ctx context.Context, link domain.Address) error {
	rec, err := s.getRevision(ctx, link)
	if err != nil {
		return err
	}
	if err := ledger.CheckDeleteLink(link, rec); err != nil {
		return err
	}
	a := ledger.Action{Kind: ledger.ActionDeleteLink, Deletes: link}
	return s.write(ctx, &a, nil)
}

// write allocates the next sequence number, seals a and stores it along
// with e.
func (s *Store) write(ctx context.Context, a *ledger.Action, e *ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fault.Write("begin write", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM actions`).Scan(&seq); err != nil {
		return fault.Write("allocate sequence", err)
	}
	if err := ledger.Stamp(a, s.author, uint64(seq), s.now()); err != nil {
		return fault.Write("seal action", err)
	}

	if e != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entries (address, entry_type, content) VALUES (?, ?, ?)`,
			string(a.EntryAddress), e.Type, e.Content,
		); err != nil {
			return fault.Write("store entry", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		actionArgs(*a)...,
	); err != nil {
		return fault.Write("store "+string(a.Kind), err)
	}
	if err := tx.Commit(); err != nil {
		return fault.Write("commit "+string(a.Kind), err)
	}
	return nil
}

// Get implements ledger.Ledger.
func (s *Store) Get(ctx context.Context, addr domain.Address) (*ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch addr.Space() {
	case domain.SpaceRevision:
		return s.getRevision(ctx, addr)
	case domain.SpaceEntity:
		row := s.db.QueryRowContext(ctx, `
			SELECT `+actionColumns+` FROM actions
			WHERE entry_address = ? AND kind IN ('create', 'update')
			ORDER BY seq LIMIT 1`, string(addr))
		a, err := scanAction(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", addr, err)
		}
		return s.withEntry(ctx, a)
	}
	return nil, nil
}

func (s *Store) getRevision(ctx context.Context, addr domain.Address) (*ledger.Record, error) {
	if !addr.IsRevision() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM actions WHERE address = ?`, string(addr))
	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get revision %s: %w", addr, err)
	}
	return s.withEntry(ctx, a)
}

func (s *Store) withEntry(ctx context.Context, a ledger.Action) (*ledger.Record, error) {
	rec := &ledger.Record{Action: a}
	if !a.Kind.WritesEntry() {
		return rec, nil
	}
	e, err := s.entry(ctx, a.EntryAddress)
	if err != nil {
		return nil, err
	}
	rec.Entry = e
	return rec, nil
}

func (s *Store) entry(ctx context.Context, addr domain.Address) (*ledger.Entry, error) {
	var e ledger.Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_type, content FROM entries WHERE address = ?`, string(addr),
	).Scan(&e.Type, &e.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", addr, err)
	}
	if !ledger.VerifyEntry(addr, e) {
		return nil, fmt.Errorf("entry %s does not hash to its address", addr)
	}
	return &e, nil
}

// Details implements ledger.Ledger.
func (s *Store) Details(ctx context.Context, addr domain.Address) (*ledger.Details, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if addr.IsRevision() {
		rec, err := s.getRevision(ctx, addr)
		if err != nil || rec == nil {
			return nil, err
		}
		return &ledger.Details{Kind: ledger.DetailsRecord, Record: rec}, nil
	}
	if !addr.IsEntity() {
		return nil, nil
	}

	e, err := s.entry(ctx, addr)
	if err != nil || e == nil {
		return nil, err
	}
	d := &ledger.Details{Kind: ledger.DetailsEntry, Entry: e}

	if d.Creates, err = s.actions(ctx, `entry_address = ? AND kind IN ('create', 'update')`, addr); err != nil {
		return nil, err
	}
	if d.Updates, err = s.actions(ctx, `original_entry = ? AND kind = 'update'`, addr); err != nil {
		return nil, err
	}
	if d.Deletes, err = s.actions(ctx, `original_entry = ? AND kind = 'delete'`, addr); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) actions(ctx context.Context, where string, args ...any) ([]ledger.Action, error) {
	for i, arg := range args {
		if a, ok := arg.(domain.Address); ok {
			args[i] = string(a)
		}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+actionColumns+` FROM actions WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	return scanActions(rows)
}

// Links implements ledger.Ledger.
func (s *Store) Links(ctx context.Context, base domain.Address, typ domain.LinkType, tagPrefix string) ([]ledger.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	actions, err := s.actions(ctx, `
		kind = 'create_link' AND base = ? AND link_type = ?
		AND substr(tag, 1, length(?)) = ?
		AND NOT EXISTS (
			SELECT 1 FROM actions d WHERE d.kind = 'delete_link' AND d.deletes = actions.address
		)`, base, string(typ), tagPrefix, tagPrefix)
	if err != nil {
		return nil, err
	}
	links := make([]ledger.Link, 0, len(actions))
	for _, a := range actions {
		links = append(links, ledger.LinkFromAction(a))
	}
	return links, nil
}
