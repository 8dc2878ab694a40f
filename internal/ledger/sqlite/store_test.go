package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/ledger"
	"sensemaker/internal/ledger/ledgertest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", "tester")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger { return newTestStore(t) })
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", "tester")
	assert.Error(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := Open(path, "tester")
	require.NoError(t, err)
	a, err := s.Create(ctx, ledger.Entry{Type: "note", Content: []byte(`{}`)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, "tester")
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.Get(ctx, a.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "tester", rec.Action.Author)

	next, err := s.Create(ctx, ledger.Entry{Type: "note", Content: []byte(`{"n":2}`)})
	require.NoError(t, err)
	assert.Equal(t, a.Seq+1, next.Seq)
}

func TestCorruptEntryRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, err := s.Create(ctx, ledger.Entry{Type: "note", Content: []byte(`{"n":1}`)})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE entries SET content = ? WHERE address = ?`, []byte(`{"n":2}`), string(a.EntryAddress))
	require.NoError(t, err)

	_, err = s.Get(ctx, a.EntryAddress)
	assert.Error(t, err)
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE t (x);\n-- +migrate Down\nDROP TABLE t;\n"
	assert.Equal(t, "\nCREATE TABLE t (x);\n", upSection(content))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
