// Package badger is the embedded key-value ledger backend. It also serves as
// the in-memory ledger the higher layers test against.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Key layout. Every index key ends in the big-endian sequence number so
// prefix scans come back in insertion order.
//
// Each address or link type in a key is preceded by its uvarint length.
//
//	e/<entry>                     entry
//	a/<revision>                  action
//	w/<entry>/<seq>               create or update that wrote entry
//	u/<entry>/<seq>               update replacing a write of entry
//	t/<entry>/<seq>               delete of a write of entry
//	l/<base><link type>/<seq>     create_link
//	d/<revision>                  delete_link of that create_link
const (
	prefixEntry   = "e/"
	prefixAction  = "a/"
	prefixWrote   = "w/"
	prefixUpdated = "u/"
	prefixDeleted = "t/"
	prefixLink    = "l/"
	prefixUnlink  = "d/"
)

// Config configures a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps everything in RAM.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Author signs every action written through the store.
	Author string
	// Logger receives badger's own log output. Nil silences it.
	Logger *slog.Logger
}

// InMemoryConfig returns a config for a throwaway ledger.
func InMemoryConfig(author string) Config {
	return Config{InMemory: true, Author: author}
}

// Store implements ledger.Ledger on BadgerDB.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	author string
	now    func() time.Time
}

var _ ledger.Ledger = (*Store)(nil)

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the ledger described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required for a persistent ledger")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create ledger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	seq, err := db.GetSequence([]byte("seq"), 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open ledger sequence: %w", err)
	}
	return &Store{db: db, seq: seq, author: cfg.Author, now: time.Now}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	relErr := s.seq.Release()
	return errors.Join(relErr, s.db.Close())
}

func seqBytes(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

// key joins prefix with length-prefixed parts, so no part can run into the
// next one whatever bytes it holds.
func key(prefix string, parts ...string) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += binary.MaxVarintLen64 + len(p)
	}
	b := make([]byte, 0, n)
	b = append(b, prefix...)
	for _, p := range parts {
		b = binary.AppendUvarint(b, uint64(len(p)))
		b = append(b, p...)
	}
	return b
}

func indexKey(prefix []byte, seq uint64) []byte {
	return append(append(append([]byte{}, prefix...), '/'), seqBytes(seq)...)
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
	rec, err := s.revision(ctx, original)
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
	rec, err := s.revision(ctx, revision)
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
	rec, err := s.revision(ctx, link)
	if err != nil {
		return err
	}
	if err := ledger.CheckDeleteLink(link, rec); err != nil {
		return err
	}
	a := ledger.Action{Kind: ledger.ActionDeleteLink, Deletes: link}
	return s.write(ctx, &a, nil)
}

func (s *Store) write(ctx context.Context, a *ledger.Action, e *ledger.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := s.seq.Next()
	if err != nil {
		return fault.Write("allocate sequence", err)
	}
	if err := ledger.Stamp(a, s.author, next+1, s.now()); err != nil {
		return fault.Write("seal action", err)
	}
	value, err := json.Marshal(a)
	if err != nil {
		return fault.Write("encode action", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if e != nil {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err := txn.Set(key(prefixEntry, string(a.EntryAddress)), data); err != nil {
				return err
			}
		}
		if err := txn.Set(key(prefixAction, string(a.Address)), value); err != nil {
			return err
		}
		ref := []byte(a.Address)
		for _, idx := range indexKeys(*a) {
			if err := txn.Set(indexKey(idx, a.Seq), ref); err != nil {
				return err
			}
		}
		if a.Kind == ledger.ActionDeleteLink {
			return txn.Set(key(prefixUnlink, string(a.Deletes)), ref)
		}
		return nil
	})
	if err != nil {
		return fault.Write("store "+string(a.Kind), err)
	}
	return nil
}

// indexKeys returns the ordered-index prefixes an action is filed under.
func indexKeys(a ledger.Action) [][]byte {
	switch a.Kind {
	case ledger.ActionCreate:
		return [][]byte{key(prefixWrote, string(a.EntryAddress))}
	case ledger.ActionUpdate:
		return [][]byte{
			key(prefixWrote, string(a.EntryAddress)),
			key(prefixUpdated, string(a.OriginalEntry)),
		}
	case ledger.ActionDelete:
		return [][]byte{key(prefixDeleted, string(a.OriginalEntry))}
	case ledger.ActionCreateLink:
		return [][]byte{key(prefixLink, string(a.Base), string(a.LinkType))}
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
		return s.revision(ctx, addr)
	case domain.SpaceEntity:
		var rec *ledger.Record
		err := s.db.View(func(txn *badger.Txn) error {
			writes, err := scanIndex(txn, key(prefixWrote, string(addr)), 1)
			if err != nil || len(writes) == 0 {
				return err
			}
			rec, err = loadRecord(txn, writes[0])
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", addr, err)
		}
		return rec, nil
	}
	return nil, nil
}

func (s *Store) revision(ctx context.Context, addr domain.Address) (*ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !addr.IsRevision() {
		return nil, nil
	}
	var rec *ledger.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = loadRecord(txn, addr)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get revision %s: %w", addr, err)
	}
	return rec, nil
}

// Details implements ledger.Ledger.
func (s *Store) Details(ctx context.Context, addr domain.Address) (*ledger.Details, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if addr.IsRevision() {
		rec, err := s.revision(ctx, addr)
		if err != nil || rec == nil {
			return nil, err
		}
		return &ledger.Details{Kind: ledger.DetailsRecord, Record: rec}, nil
	}
	if !addr.IsEntity() {
		return nil, nil
	}

	var d *ledger.Details
	err := s.db.View(func(txn *badger.Txn) error {
		e, err := loadEntry(txn, addr)
		if err != nil || e == nil {
			return err
		}
		d = &ledger.Details{Kind: ledger.DetailsEntry, Entry: e}
		if d.Creates, err = loadIndexed(txn, key(prefixWrote, string(addr))); err != nil {
			return err
		}
		if d.Updates, err = loadIndexed(txn, key(prefixUpdated, string(addr))); err != nil {
			return err
		}
		d.Deletes, err = loadIndexed(txn, key(prefixDeleted, string(addr)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("details %s: %w", addr, err)
	}
	return d, nil
}

// Links implements ledger.Ledger.
func (s *Store) Links(ctx context.Context, base domain.Address, typ domain.LinkType, tagPrefix string) ([]ledger.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var links []ledger.Link
	err := s.db.View(func(txn *badger.Txn) error {
		actions, err := loadIndexed(txn, key(prefixLink, string(base), string(typ)))
		if err != nil {
			return err
		}
		for _, a := range actions {
			if a.Base != base || a.LinkType != typ || !ledger.MatchTag(a.Tag, tagPrefix) {
				continue
			}
			_, err := txn.Get(key(prefixUnlink, string(a.Address)))
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			links = append(links, ledger.LinkFromAction(a))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("links from %s: %w", base, err)
	}
	return links, nil
}

// scanIndex returns up to limit revision addresses filed under prefix.
// A limit of zero means no limit.
func scanIndex(txn *badger.Txn, prefix []byte, limit int) ([]domain.Address, error) {
	prefix = append(append([]byte{}, prefix...), '/')
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []domain.Address
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		v, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Address(v))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func loadIndexed(txn *badger.Txn, prefix []byte) ([]ledger.Action, error) {
	refs, err := scanIndex(txn, prefix, 0)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Action, 0, len(refs))
	for _, ref := range refs {
		a, err := loadAction(txn, ref)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("index refers to missing action %s", ref)
		}
		out = append(out, *a)
	}
	return out, nil
}

func loadAction(txn *badger.Txn, addr domain.Address) (*ledger.Action, error) {
	item, err := txn.Get(key(prefixAction, string(addr)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a ledger.Action
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &a) }); err != nil {
		return nil, err
	}
	a.Address = addr
	return &a, nil
}

func loadEntry(txn *badger.Txn, addr domain.Address) (*ledger.Entry, error) {
	item, err := txn.Get(key(prefixEntry, string(addr)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e ledger.Entry
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &e) }); err != nil {
		return nil, err
	}
	if !ledger.VerifyEntry(addr, e) {
		return nil, fmt.Errorf("entry %s does not hash to its address", addr)
	}
	return &e, nil
}

func loadRecord(txn *badger.Txn, addr domain.Address) (*ledger.Record, error) {
	a, err := loadAction(txn, addr)
	if err != nil || a == nil {
		return nil, err
	}
	rec := &ledger.Record{Action: *a}
	if a.Kind.WritesEntry() {
		if rec.Entry, err = loadEntry(txn, a.EntryAddress); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
