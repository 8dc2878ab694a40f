package pointer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/ledger/badger"
)

func newTestLedger(t *testing.T) ledger.Ledger {
	t.Helper()
	l, err := badger.Open(badger.InMemoryConfig("tester"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func addr(t *testing.T, name string) domain.Address {
	t.Helper()
	a, err := ledger.HashEntity(domain.ResourceDef{Name: name})
	require.NoError(t, err)
	return a
}

func TestSetThenGet(t *testing.T) {
	ctx := context.Background()
	m := New(newTestLedger(t), domain.LinkTypeDefaultTrayConfig, nil)
	key := addr(t, "task")

	_, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, key, addr(t, "first")))
	require.NoError(t, m.Set(ctx, key, addr(t, "second")))

	got, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr(t, "second"), got)

	all, err := m.All(ctx, key)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetToleratesDuplicates(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	m := New(l, domain.LinkTypeDefaultTrayConfig, nil)
	key := addr(t, "task")

	// Two writers that both saw no existing pointer.
	_, err := l.CreateLink(ctx, key, addr(t, "a"), domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)
	_, err = l.CreateLink(ctx, key, addr(t, "b"), domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)

	got, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addr(t, "a"), got)

	all, err := m.All(ctx, key)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, m.Set(ctx, key, addr(t, "c")))
	all, err = m.All(ctx, key)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, addr(t, "c"), all[0].Target)
}

func TestSetRejectsRevisionTarget(t *testing.T) {
	m := New(newTestLedger(t), domain.LinkTypeDefaultTrayConfig, nil)
	err := m.Set(context.Background(), addr(t, "task"), "Rnot-an-entity")
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func TestGetRejectsNonEntityTarget(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	m := New(l, domain.LinkTypeDefaultTrayConfig, nil)
	key := addr(t, "task")

	_, err := l.CreateLink(ctx, key, "Rrevision", domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)

	_, _, err = m.Get(ctx, key)
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

// flakyLedger fails every DeleteLink.
type flakyLedger struct {
	ledger.Ledger
}

func (flakyLedger) DeleteLink(context.Context, domain.Address) error {
	return errors.New("replica unavailable")
}

func TestSetContinuesPastFailedDeletes(t *testing.T) {
	ctx := context.Background()
	l := flakyLedger{newTestLedger(t)}
	m := New(l, domain.LinkTypeDefaultTrayConfig, nil)
	key := addr(t, "task")

	require.NoError(t, m.Set(ctx, key, addr(t, "first")))
	require.NoError(t, m.Set(ctx, key, addr(t, "second")))

	all, err := m.All(ctx, key)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, _, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, addr(t, "first"), got)
}
