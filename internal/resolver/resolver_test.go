package resolver

import (
	"context"
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

func tray(name string) domain.AssessmentTrayConfig {
	return domain.AssessmentTrayConfig{Name: name}
}

func TestLatestWithoutRevisions(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("original"))
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "original", got.Value.Name)
	assert.Equal(t, created.EntryAddress, got.Address)
	assert.Equal(t, created.Address, got.Revision)
}

func TestLatestFollowsChain(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)

	rev := created.Address
	var last *ledger.Action
	for _, name := range []string{"v1", "v2", "v3"} {
		last, err = ledger.UpdateEntity(ctx, l, rev, tray(name))
		require.NoError(t, err)
		rev = last.Address
	}

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v3", got.Value.Name)
	assert.Equal(t, last.EntryAddress, got.Address)
	assert.Equal(t, last.Address, got.Revision)
	assert.Equal(t, created.EntryAddress, got.Origin)
}

func TestLatestUsesMostRecentUpdate(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)
	_, err = ledger.UpdateEntity(ctx, l, created.Address, tray("branch a"))
	require.NoError(t, err)
	_, err = ledger.UpdateEntity(ctx, l, created.Address, tray("branch b"))
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	assert.Equal(t, "branch b", got.Value.Name)
}

func TestLatestDeletedAtFrontier(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)
	updated, err := ledger.UpdateEntity(ctx, l, created.Address, tray("v1"))
	require.NoError(t, err)
	_, err = l.Delete(ctx, updated.Address)
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestDeleteBeforeUpdateIsIgnored(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)
	_, err = l.Delete(ctx, created.Address)
	require.NoError(t, err)
	_, err = ledger.UpdateEntity(ctx, l, created.Address, tray("v1"))
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.Value.Name)
}

func TestLatestRevertedContent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)
	updated, err := ledger.UpdateEntity(ctx, l, created.Address, tray("v1"))
	require.NoError(t, err)
	_, err = ledger.UpdateEntity(ctx, l, updated.Address, tray("v0"))
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v0", got.Value.Name)
}

func TestLatestUnknownIsAbsent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	missing, err := ledger.HashEntity(tray("never written"))
	require.NoError(t, err)

	got, err := Latest[domain.AssessmentTrayConfig](ctx, l, missing)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestRejectsRevisionAddress(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, tray("v0"))
	require.NoError(t, err)

	_, err = Latest[domain.AssessmentTrayConfig](ctx, l, created.Address)
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func TestLatestWrongType(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	created, err := ledger.CreateEntity(ctx, l, domain.Dimension{Name: "importance"})
	require.NoError(t, err)

	_, err = Latest[domain.AssessmentTrayConfig](ctx, l, created.EntryAddress)
	assert.Equal(t, fault.CodeTypeMismatch, fault.CodeOf(err))
}

func TestEachSkipsAbsentAndDuplicates(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	a, err := ledger.CreateEntity(ctx, l, tray("a"))
	require.NoError(t, err)
	b, err := ledger.CreateEntity(ctx, l, tray("b"))
	require.NoError(t, err)
	_, err = l.Delete(ctx, b.Address)
	require.NoError(t, err)
	a2, err := ledger.UpdateEntity(ctx, l, a.Address, tray("a2"))
	require.NoError(t, err)

	links := []ledger.Link{{Target: a.EntryAddress}, {Target: b.EntryAddress}, {Target: a2.EntryAddress}}
	got, err := Each[domain.AssessmentTrayConfig](ctx, l, links)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a2", got[0].Value.Name)
}
