// Package ledgertest checks that a ledger.Ledger behaves the way the rest of
// the module assumes.
package ledgertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
)

// Opener returns a fresh, empty ledger. It should register its own cleanup.
type Opener func(t *testing.T) ledger.Ledger

// Run runs the conformance suite against ledgers produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, open(t)) })
	t.Run("DuplicateCreate", func(t *testing.T) { testDuplicateCreate(t, open(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, open(t)) })
	t.Run("UpdateRejects", func(t *testing.T) { testUpdateRejects(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("DetailsOfRevision", func(t *testing.T) { testDetailsOfRevision(t, open(t)) })
	t.Run("UnknownAddress", func(t *testing.T) { testUnknownAddress(t, open(t)) })
	t.Run("Links", func(t *testing.T) { testLinks(t, open(t)) })
	t.Run("LinkBaseCollision", func(t *testing.T) { testLinkBaseCollision(t, open(t)) })
	t.Run("DeleteLink", func(t *testing.T) { testDeleteLink(t, open(t)) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceledContext(t, open(t)) })
	t.Run("Paths", func(t *testing.T) { testPaths(t, open(t)) })
}

func entry(body string) ledger.Entry {
	return ledger.Entry{Type: "note", Content: []byte(`{"body":"` + body + `"}`)}
}

func testCreateAndGet(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	e := entry("first")

	a, err := l.Create(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionCreate, a.Kind)
	assert.True(t, a.Address.IsRevision())
	assert.Equal(t, ledger.HashEntry(e), a.EntryAddress)
	assert.Equal(t, "note", a.EntryType)
	assert.NotZero(t, a.Timestamp)

	byEntity, err := l.Get(ctx, a.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, byEntity)
	require.NotNil(t, byEntity.Entry)
	assert.Equal(t, e.Content, byEntity.Entry.Content)
	assert.Equal(t, a.Address, byEntity.Action.Address)

	byRevision, err := l.Get(ctx, a.Address)
	require.NoError(t, err)
	require.NotNil(t, byRevision)
	assert.Equal(t, e.Content, byRevision.Entry.Content)

	rehashed, err := ledger.HashAction(byRevision.Action)
	require.NoError(t, err)
	assert.Equal(t, a.Address, rehashed)
}

func testDuplicateCreate(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	first, err := l.Create(ctx, entry("same"))
	require.NoError(t, err)
	second, err := l.Create(ctx, entry("same"))
	require.NoError(t, err)

	assert.Equal(t, first.EntryAddress, second.EntryAddress)
	assert.NotEqual(t, first.Address, second.Address)

	d, err := l.Details(ctx, first.EntryAddress)
	require.NoError(t, err)
	require.NotNil(t, d)
	require.Len(t, d.Creates, 2)
	assert.Equal(t, first.Address, d.Creates[0].Address)
	assert.Equal(t, second.Address, d.Creates[1].Address)

	rec, err := l.Get(ctx, first.EntryAddress)
	require.NoError(t, err)
	assert.Equal(t, first.Address, rec.Action.Address)
}

func testUpdate(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	created, err := l.Create(ctx, entry("v1"))
	require.NoError(t, err)

	updated, err := l.Update(ctx, created.Address, entry("v2"))
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionUpdate, updated.Kind)
	assert.Equal(t, created.Address, updated.OriginalAction)
	assert.Equal(t, created.EntryAddress, updated.OriginalEntry)
	assert.Equal(t, ledger.HashEntry(entry("v2")), updated.EntryAddress)

	d, err := l.Details(ctx, created.EntryAddress)
	require.NoError(t, err)
	assert.Equal(t, ledger.DetailsEntry, d.Kind)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, updated.Address, d.Updates[0].Address)
	assert.Empty(t, d.Deletes)

	next, err := l.Details(ctx, updated.EntryAddress)
	require.NoError(t, err)
	require.Len(t, next.Creates, 1)
	assert.Equal(t, ledger.ActionUpdate, next.Creates[0].Kind)
	assert.Equal(t, entry("v2").Content, next.Entry.Content)

	again, err := l.Update(ctx, updated.Address, entry("v3"))
	require.NoError(t, err)
	d, err = l.Details(ctx, updated.EntryAddress)
	require.NoError(t, err)
	require.Len(t, d.Updates, 1)
	assert.Equal(t, again.Address, d.Updates[0].Address)
}

func testUpdateRejects(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	created, err := l.Create(ctx, entry("v1"))
	require.NoError(t, err)

	_, err = l.Update(ctx, created.EntryAddress, entry("v2"))
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))

	_, err = l.Update(ctx, created.Address, ledger.Entry{Type: "other", Content: []byte(`{}`)})
	assert.Equal(t, fault.CodeTypeMismatch, fault.CodeOf(err))

	link, err := l.CreateLink(ctx, created.EntryAddress, created.EntryAddress, domain.LinkTypePath, "self")
	require.NoError(t, err)
	_, err = l.Update(ctx, link.Address, entry("v2"))
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))

	_, err = l.Update(ctx, domain.Address("R1111111111111111111111111111111"), entry("v2"))
	assert.Equal(t, fault.CodeNotFound, fault.CodeOf(err))
}

func testDelete(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	created, err := l.Create(ctx, entry("doomed"))
	require.NoError(t, err)

	del, err := l.Delete(ctx, created.Address)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionDelete, del.Kind)
	assert.Equal(t, created.Address, del.OriginalAction)
	assert.Equal(t, created.EntryAddress, del.OriginalEntry)

	d, err := l.Details(ctx, created.EntryAddress)
	require.NoError(t, err)
	assert.Empty(t, d.Updates)
	require.Len(t, d.Deletes, 1)
	assert.Equal(t, del.Address, d.Deletes[0].Address)

	_, err = l.Delete(ctx, del.Address)
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func testDetailsOfRevision(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	created, err := l.Create(ctx, entry("x"))
	require.NoError(t, err)

	d, err := l.Details(ctx, created.Address)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, ledger.DetailsRecord, d.Kind)
	require.NotNil(t, d.Record)
	assert.Equal(t, created.Address, d.Record.Action.Address)
}

func testUnknownAddress(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	missing := ledger.HashEntry(entry("never written"))

	rec, err := l.Get(ctx, missing)
	require.NoError(t, err)
	assert.Nil(t, rec)

	d, err := l.Details(ctx, missing)
	require.NoError(t, err)
	assert.Nil(t, d)

	links, err := l.Links(ctx, missing, domain.LinkTypePath, "")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func testLinks(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	base := ledger.HashEntry(entry("base"))
	targets := []domain.Address{
		ledger.HashEntry(entry("a")),
		ledger.HashEntry(entry("b")),
		ledger.HashEntry(entry("c")),
	}

	_, err := l.CreateLink(ctx, base, targets[0], domain.LinkTypeResourceToAssessment, "dim-1")
	require.NoError(t, err)
	_, err = l.CreateLink(ctx, base, targets[1], domain.LinkTypeResourceToAssessment, "dim-2")
	require.NoError(t, err)
	_, err = l.CreateLink(ctx, base, targets[2], domain.LinkTypeResourceToAssessment, "dim-1")
	require.NoError(t, err)
	_, err = l.CreateLink(ctx, base, targets[0], domain.LinkTypeMethod, "dim-1")
	require.NoError(t, err)

	all, err := l.Links(ctx, base, domain.LinkTypeResourceToAssessment, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, targets, []domain.Address{all[0].Target, all[1].Target, all[2].Target})

	tagged, err := l.Links(ctx, base, domain.LinkTypeResourceToAssessment, "dim-1")
	require.NoError(t, err)
	require.Len(t, tagged, 2)
	assert.Equal(t, targets[0], tagged[0].Target)
	assert.Equal(t, targets[2], tagged[1].Target)
	assert.Equal(t, domain.LinkTypeResourceToAssessment, tagged[0].Type)
	assert.Equal(t, base, tagged[0].Base)

	prefixed, err := l.Links(ctx, base, domain.LinkTypeResourceToAssessment, "dim-")
	require.NoError(t, err)
	assert.Len(t, prefixed, 3)
}

func testLinkBaseCollision(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	target := ledger.HashEntry(entry("target"))

	foreign := domain.Address("E/x/" + string(domain.LinkTypeResourceToAssessment))
	_, err := l.CreateLink(ctx, foreign, target, domain.LinkTypeResourceToAssessment, "Edim")
	require.NoError(t, err)
	_, err = l.CreateLink(ctx, "E/x", target, domain.LinkTypeDimension, "Edim")
	require.NoError(t, err)

	links, err := l.Links(ctx, "E/x", domain.LinkTypeResourceToAssessment, "")
	require.NoError(t, err)
	assert.Empty(t, links)

	links, err = l.Links(ctx, foreign, domain.LinkTypeResourceToAssessment, "")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, foreign, links[0].Base)
}

func testDeleteLink(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	base := ledger.HashEntry(entry("base"))
	first, err := l.CreateLink(ctx, base, ledger.HashEntry(entry("a")), domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)
	second, err := l.CreateLink(ctx, base, ledger.HashEntry(entry("b")), domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)

	require.NoError(t, l.DeleteLink(ctx, first.Address))

	links, err := l.Links(ctx, base, domain.LinkTypeDefaultTrayConfig, "")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, second.Address, links[0].Address)

	created, err := l.Create(ctx, entry("not a link"))
	require.NoError(t, err)
	err = l.DeleteLink(ctx, created.Address)
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func testCanceledContext(t *testing.T, l ledger.Ledger) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Create(ctx, entry("late"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = l.Links(ctx, ledger.HashEntry(entry("base")), domain.LinkTypePath, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func testPaths(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	paths := ledger.NewPaths(l)

	leaf, err := paths.Ensure(ctx, "all_applets.todo")
	require.NoError(t, err)
	want, err := paths.Anchor("all_applets.todo")
	require.NoError(t, err)
	assert.Equal(t, want, leaf)

	again, err := ledger.NewPaths(l).Ensure(ctx, "all_applets.todo")
	require.NoError(t, err)
	assert.Equal(t, leaf, again)

	_, err = paths.Ensure(ctx, "all_applets.notes")
	require.NoError(t, err)

	children, err := paths.Children(ctx, "all_applets")
	require.NoError(t, err)
	assert.Equal(t, []string{"todo", "notes"}, children)

	typed := paths.Typed(domain.LinkTypeAppletName)
	other, err := typed.Ensure(ctx, "all_applets.other")
	require.NoError(t, err)
	want, err = paths.Anchor("all_applets.other")
	require.NoError(t, err)
	assert.Equal(t, want, other)
	children, err = typed.Children(ctx, "all_applets")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, children)
	children, err = paths.Children(ctx, "all_applets")
	require.NoError(t, err)
	assert.Equal(t, []string{"todo", "notes"}, children)

	_, err = paths.Ensure(ctx, "all_applets..todo")
	assert.Equal(t, fault.CodeInvalidInput, fault.CodeOf(err))
}
