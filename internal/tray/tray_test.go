package tray

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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l, err := badger.Open(badger.InMemoryConfig("tester"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return New(l, nil, nil)
}

func controls(dimension domain.Address) []domain.AssessmentControlConfig {
	return []domain.AssessmentControlConfig{{
		Input:  domain.AssessmentWidgetConfig{Dimension: dimension, AppletID: "todo", ComponentName: "stars"},
		Output: domain.AssessmentWidgetConfig{Dimension: dimension, AppletID: "todo", ComponentName: "total"},
	}}
}

func resourceDef(t *testing.T, name string) domain.Address {
	t.Helper()
	a, err := ledger.HashEntity(domain.ResourceDef{Name: name})
	require.NoError(t, err)
	return a
}

func TestSetGetList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Set(ctx, "compact", controls("Eimportance"))
	require.NoError(t, err)
	_, err = s.Set(ctx, "full", controls("Eurgency"))
	require.NoError(t, err)

	got, err := s.Get(ctx, first.Address)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "compact", got.Value.Name)
	assert.Equal(t, first.Revision, got.Revision)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "compact", all[0].Value.Name)
	assert.Equal(t, "full", all[1].Value.Name)
}

func TestSetValidates(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set(context.Background(), "", nil)
	assert.Equal(t, fault.CodeInvalidInput, fault.CodeOf(err))
}

func TestUpdateThenGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Set(ctx, "compact", controls("Eimportance"))
	require.NoError(t, err)

	next, err := s.Update(ctx, created.Revision, domain.AssessmentTrayConfig{Name: "compact v2", Controls: controls("Eurgency")})
	require.NoError(t, err)

	got, err := s.Get(ctx, created.Address)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "compact v2", got.Value.Name)
	assert.Equal(t, next, got.Address)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "compact v2", all[0].Value.Name)

	_, err = s.Update(ctx, created.Address, domain.AssessmentTrayConfig{Name: "x"})
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.Set(ctx, "compact", controls("Eimportance"))
	require.NoError(t, err)
	_, err = s.Delete(ctx, created.Revision)
	require.NoError(t, err)

	got, err := s.Get(ctx, created.Address)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	task := resourceDef(t, "task")

	none, err := s.GetDefault(ctx, task)
	require.NoError(t, err)
	assert.Nil(t, none)

	a, err := s.Set(ctx, "a", controls("Eimportance"))
	require.NoError(t, err)
	b, err := s.Set(ctx, "b", controls("Eurgency"))
	require.NoError(t, err)

	set, err := s.SetDefault(ctx, task, a.Address)
	require.NoError(t, err)
	assert.Equal(t, a.Address, set)

	got, err := s.GetDefault(ctx, task)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Value.Name)

	_, err = s.SetDefault(ctx, task, b.Address)
	require.NoError(t, err)
	got, err = s.GetDefault(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Value.Name)

	links, err := s.Defaults(ctx, task)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestDefaultFollowsUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	task := resourceDef(t, "task")

	a, err := s.Set(ctx, "a", controls("Eimportance"))
	require.NoError(t, err)
	_, err = s.SetDefault(ctx, task, a.Address)
	require.NoError(t, err)
	_, err = s.Update(ctx, a.Revision, domain.AssessmentTrayConfig{Name: "a2", Controls: controls("Eimportance")})
	require.NoError(t, err)

	got, err := s.GetDefault(ctx, task)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a2", got.Value.Name)
}

func TestSetDefaultRequiresConfig(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SetDefault(ctx, resourceDef(t, "task"), resourceDef(t, "not a config"))
	assert.Equal(t, fault.CodeNotFound, fault.CodeOf(err))

	_, err = s.SetDefault(ctx, "Rrevision", resourceDef(t, "x"))
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}
