// Package method runs methods: it gathers the assessments of a resource on
// a method's input dimensions, reduces them with the method's program and
// records the result as a new assessment on the output dimension.
package method

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sensemaker/internal/catalog"
	"sensemaker/internal/domain"
	"sensemaker/internal/fault"
)

// maxParallelGathers bounds concurrent per-dimension link reads.
const maxParallelGathers = 8

// RunInput names what to compute.
type RunInput struct {
	Resource    domain.Address `json:"resource_eh"`
	ResourceDef domain.Address `json:"resource_def_eh"`
	Method      domain.Address `json:"method_eh"`
}

// Result is a persisted computed assessment.
type Result struct {
	Assessment domain.Assessment `json:"assessment"`
	Address    domain.Address    `json:"address"`
	Revision   domain.Address    `json:"revision"`
	Method     domain.Address    `json:"method"`
	Inputs     int               `json:"inputs"`
}

// Engine runs methods against a catalog.
type Engine struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New returns an Engine.
func New(c *catalog.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: c, logger: logger.With("component", "method")}
}

// Run computes and persists the method's output for a resource. Nothing is
// written unless every step succeeds.
func (e *Engine) Run(ctx context.Context, in RunInput) (*Result, error) {
	start := time.Now()
	program := "unknown"
	res, err := e.run(ctx, in, &program)
	runDuration.WithLabelValues(program).Observe(time.Since(start).Seconds())
	runs.WithLabelValues(program, outcome(err)).Inc()
	if err != nil {
		e.logger.Warn("method run failed", "method", in.Method, "resource", in.Resource, "error", err)
		return nil, err
	}
	e.logger.Info("method run", "method", in.Method, "resource", in.Resource,
		"program", program, "inputs", res.Inputs, "value", res.Assessment.Value.String())
	return res, nil
}

func (e *Engine) run(ctx context.Context, in RunInput, program *string) (*Result, error) {
	for _, a := range []domain.Address{in.Resource, in.ResourceDef, in.Method} {
		if !a.IsEntity() {
			return nil, fault.Newf(fault.CodeInvalidReference, "%q is not an entity address", a)
		}
	}

	resolved, err := e.catalog.GetMethod(ctx, in.Method)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, fault.Newf(fault.CodeNotFound, "method %s not found", in.Method)
	}
	m := resolved.Value
	*program = string(m.Program)
	if len(m.InputDimensions) == 0 {
		return nil, fault.Newf(fault.CodeComputation, "method %s has no input dimensions", m.Name)
	}

	gathered, order, err := e.gather(ctx, in.Resource, m.InputDimensions)
	if err != nil {
		return nil, err
	}
	values := flatten(gathered, order)
	inputValues.Observe(float64(len(values)))

	value, err := m.Program.Reduce(values)
	if err != nil {
		return nil, err
	}

	assessment, action, err := e.catalog.CreateAssessment(ctx, domain.CreateAssessmentInput{
		Value:       value,
		Dimension:   m.OutputDimension,
		Resource:    in.Resource,
		ResourceDef: in.ResourceDef,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Assessment: *assessment,
		Address:    action.EntryAddress,
		Revision:   action.Address,
		Method:     resolved.Address,
		Inputs:     len(values),
	}, nil
}

// gather fetches the assessments of resource on each distinct dimension,
// keyed by dimension. order lists the distinct dimensions as first seen.
func (e *Engine) gather(ctx context.Context, resource domain.Address, dimensions []domain.Address) (found map[domain.Address][]domain.Assessment, order []domain.Address, err error) {
	order = distinct(dimensions)
	slots := make([][]domain.Assessment, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelGathers)
	for i, dim := range order {
		g.Go(func() error {
			as, err := e.catalog.AssessmentsFor(gctx, resource, dim)
			if err != nil {
				return err
			}
			slots[i] = as
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	found = make(map[domain.Address][]domain.Assessment, len(order))
	for i, dim := range order {
		found[dim] = slots[i]
	}
	return found, order, nil
}

func distinct(dimensions []domain.Address) []domain.Address {
	seen := make(map[domain.Address]struct{}, len(dimensions))
	out := make([]domain.Address, 0, len(dimensions))
	for _, d := range dimensions {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// flatten concatenates the values gathered for each dimension in order.
func flatten(found map[domain.Address][]domain.Assessment, order []domain.Address) []domain.RangeValue {
	n := 0
	for _, as := range found {
		n += len(as)
	}
	values := make([]domain.RangeValue, 0, n)
	for _, dim := range order {
		for _, a := range found[dim] {
			values = append(values, a.Value)
		}
	}
	return values
}

func outcome(err error) string {
	switch fault.CodeOf(err) {
	case fault.CodeUnknown:
		if err == nil {
			return "ok"
		}
		return "error"
	case fault.CodeNotFound:
		return "not_found"
	case fault.CodeComputation:
		return "computation"
	}
	return "error"
}
