package method

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/catalog"
	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
	"sensemaker/internal/ledger"
	"sensemaker/internal/ledger/badger"
)

type fixture struct {
	catalog     *catalog.Catalog
	engine      *Engine
	resourceDef domain.Address
	importance  domain.Address
	weight      domain.Address
	total       domain.Address
	task        domain.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	l, err := badger.Open(badger.InMemoryConfig("tester"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	c := catalog.New(l, nil, "tester", nil)

	ints, err := c.CreateRange(ctx, domain.Range{Name: "0-10", Kind: domain.RangeKind{Integer: &domain.IntegerRange{Min: 0, Max: 10}}})
	require.NoError(t, err)
	floats, err := c.CreateRange(ctx, domain.Range{Name: "weights", Kind: domain.RangeKind{Float: &domain.FloatRange{Min: 0, Max: 10}}})
	require.NoError(t, err)
	rd, err := c.CreateResourceDef(ctx, domain.ResourceDef{Name: "task_item"})
	require.NoError(t, err)
	importance, err := c.CreateDimension(ctx, domain.Dimension{Name: "importance", Range: ints.EntryAddress})
	require.NoError(t, err)
	weight, err := c.CreateDimension(ctx, domain.Dimension{Name: "weight", Range: floats.EntryAddress})
	require.NoError(t, err)
	total, err := c.CreateDimension(ctx, domain.Dimension{Name: "total", Range: ints.EntryAddress, Computed: true})
	require.NoError(t, err)
	task, err := ledger.HashEntity(domain.ResourceDef{Name: "some task"})
	require.NoError(t, err)

	return &fixture{
		catalog:     c,
		engine:      New(c, nil),
		resourceDef: rd.EntryAddress,
		importance:  importance.EntryAddress,
		weight:      weight.EntryAddress,
		total:       total.EntryAddress,
		task:        task,
	}
}

func (f *fixture) assess(t *testing.T, dim domain.Address, v domain.RangeValue) {
	t.Helper()
	_, _, err := f.catalog.CreateAssessment(context.Background(), domain.CreateAssessmentInput{
		Value: v, Dimension: dim, Resource: f.task, ResourceDef: f.resourceDef,
	})
	require.NoError(t, err)
}

func (f *fixture) method(t *testing.T, program domain.Program, inputs ...domain.Address) domain.Address {
	t.Helper()
	a, err := f.catalog.CreateMethod(context.Background(), domain.Method{
		Name:              string(program),
		TargetResourceDef: f.resourceDef,
		InputDimensions:   inputs,
		OutputDimension:   f.total,
		Program:           program,
	})
	require.NoError(t, err)
	return a.EntryAddress
}

func (f *fixture) run(m domain.Address) (*Result, error) {
	return f.engine.Run(context.Background(), RunInput{Resource: f.task, ResourceDef: f.resourceDef, Method: m})
}

func TestRunSum(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(2))
	f.assess(t, f.importance, domain.IntegerValue(3))

	res, err := f.run(f.method(t, domain.ProgramSum, f.importance))
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerValue(5), res.Assessment.Value)
	assert.Equal(t, f.total, res.Assessment.Dimension)
	assert.Equal(t, f.task, res.Assessment.Resource)
	assert.Equal(t, f.resourceDef, res.Assessment.ResourceDef)
	assert.Nil(t, res.Assessment.InputDataset)
	assert.Equal(t, 2, res.Inputs)

	stored, err := f.catalog.AssessmentsFor(context.Background(), f.task, f.total)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Assessment, stored[0])
}

func TestRunPromotesAcrossDimensions(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(2))
	f.assess(t, f.weight, domain.FloatValue(1.5))

	res, err := f.run(f.method(t, domain.ProgramSum, f.importance, f.weight))
	require.NoError(t, err)
	assert.Equal(t, domain.FloatValue(3.5), res.Assessment.Value)
}

func TestRunAverage(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(2))
	f.assess(t, f.importance, domain.IntegerValue(3))

	res, err := f.run(f.method(t, domain.ProgramAverage, f.importance))
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerValue(2), res.Assessment.Value)
}

func TestRunAverageMixed(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(3))
	f.assess(t, f.weight, domain.FloatValue(3.0))

	res, err := f.run(f.method(t, domain.ProgramAverage, f.importance, f.weight))
	require.NoError(t, err)
	assert.Equal(t, domain.FloatValue(3.0), res.Assessment.Value)
}

func TestRunWithoutAssessmentsFails(t *testing.T) {
	f := newFixture(t)
	m := f.method(t, domain.ProgramAverage, f.importance)

	_, err := f.run(m)
	assert.Equal(t, fault.CodeComputation, fault.CodeOf(err))

	stored, err := f.catalog.AssessmentsFor(context.Background(), f.task, f.total)
	require.NoError(t, err)
	assert.Empty(t, stored, "failed run must not write")
}

func TestRunUnknownMethod(t *testing.T) {
	f := newFixture(t)
	missing, err := ledger.HashEntity(domain.Method{Name: "missing"})
	require.NoError(t, err)

	_, err = f.run(missing)
	assert.Equal(t, fault.CodeNotFound, fault.CodeOf(err))

	_, err = f.run("Rrevision")
	assert.Equal(t, fault.CodeInvalidReference, fault.CodeOf(err))
}

func TestRunUsesCurrentMethodVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(2))
	f.assess(t, f.importance, domain.IntegerValue(3))

	created, err := f.catalog.CreateMethod(ctx, domain.Method{
		Name: "m", TargetResourceDef: f.resourceDef, Program: domain.ProgramSum,
		InputDimensions: []domain.Address{f.importance}, OutputDimension: f.total,
	})
	require.NoError(t, err)
	next, err := f.catalog.UpdateMethod(ctx, created.Address, domain.Method{
		Name: "m", TargetResourceDef: f.resourceDef, Program: domain.ProgramAverage,
		InputDimensions: []domain.Address{f.importance}, OutputDimension: f.total,
	})
	require.NoError(t, err)

	res, err := f.run(created.EntryAddress)
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerValue(2), res.Assessment.Value)
	assert.Equal(t, next, res.Method)
}

func TestGather(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(1))
	f.assess(t, f.importance, domain.IntegerValue(4))
	f.assess(t, f.weight, domain.FloatValue(0.5))

	got, order, err := f.engine.gather(context.Background(), f.task, []domain.Address{f.importance, f.weight, f.total, f.importance})
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{f.importance, f.weight, f.total}, order)
	assert.Len(t, got[f.importance], 2)
	assert.Len(t, got[f.weight], 1)
	assert.Empty(t, got[f.total])
}

func TestRunRepeatedInputDimensionCountsOnce(t *testing.T) {
	f := newFixture(t)
	f.assess(t, f.importance, domain.IntegerValue(4))

	res, err := f.run(f.method(t, domain.ProgramSum, f.importance, f.importance))
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerValue(4), res.Assessment.Value)
	assert.Equal(t, 1, res.Inputs)

	res, err = f.run(f.method(t, domain.ProgramAverage, f.importance, f.weight, f.importance))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inputs)
}

func TestFlattenKeepsDimensionOrder(t *testing.T) {
	a, b, c := domain.Address("Ea"), domain.Address("Eb"), domain.Address("Ec")
	found := map[domain.Address][]domain.Assessment{
		a: {{Value: domain.IntegerValue(1)}, {Value: domain.IntegerValue(2)}},
		c: {{Value: domain.FloatValue(3)}},
	}
	assert.Equal(t, []domain.RangeValue{domain.IntegerValue(1), domain.IntegerValue(2), domain.FloatValue(3)}, flatten(found, []domain.Address{a, b, c}))
}
