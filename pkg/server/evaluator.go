// Package server evaluates declared rules against submitted models and runs
// the imperative checks registered for a schema, producing a field keyed
// report.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard/pkg/model"
	"github.com/goliatone/go-formguard/pkg/report"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// CheckFunc is an imperative check. It reads the snapshot, adds messages to
// out and returns an error only for faults, never for validation failures.
type CheckFunc func(ctx context.Context, snap rules.Snapshot, out report.Report) error

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Evaluator validates models. It is safe for concurrent use.
type Evaluator struct {
	registry *rules.Registry
	compiler *model.Compiler
	logger   zerolog.Logger
	recorder Recorder

	mu     sync.RWMutex
	checks map[string][]namedCheck
}

// New constructs an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: rules.Default(),
		logger:   zerolog.Nop(),
		checks:   make(map[string][]namedCheck),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.compiler == nil {
		e.compiler = model.NewCompiler(e.registry)
	}
	return e
}

// Schema compiles, or fetches from cache, the schema of model v.
func (e *Evaluator) Schema(v any) (*rules.Schema, error) {
	info, err := e.compiler.For(v)
	if err != nil {
		return nil, err
	}
	return info.Schema, nil
}

// AddCheck registers an imperative check for the named schema. Checks run in
// registration order after the declarative rules.
func (e *Evaluator) AddCheck(schema, name string, fn CheckFunc) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.checks[schema] = append(e.checks[schema], namedCheck{name: name, fn: fn})
}

// Validate evaluates a struct model.
func (e *Evaluator) Validate(ctx context.Context, v any) (report.Report, error) {
	info, err := e.compiler.For(v)
	if err != nil {
		return nil, err
	}
	snap, err := info.Snapshot(v)
	if err != nil {
		return nil, err
	}
	return e.ValidateSnapshot(ctx, info.Schema, snap)
}

// ValidateSnapshot evaluates schema against snap. Every field is evaluated and
// contributes at most one declarative message, the first failure in rule
// order. Imperative checks for the schema then run unconditionally and append
// their messages. A check error aborts with the partial report discarded.
func (e *Evaluator) ValidateSnapshot(ctx context.Context, schema *rules.Schema, snap rules.Snapshot) (report.Report, error) {
	if schema == nil {
		return nil, fmt.Errorf("server: schema is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	out := report.New()

	env := rules.Env{
		Registry: e.registry,
		Snapshot: snap,
		DependentMissing: func(rule rules.Rule, err error) error {
			return fmt.Errorf("server: schema %s: %w", schema.Name(), err)
		},
	}

	for _, field := range schema.Fields() {
		if len(field.Rules) == 0 {
			continue
		}
		value, ok := snap.Lookup(field.Name)
		if !ok {
			value = rules.Absent()
		}
		failure, failed, err := rules.Evaluate(field, value, env)
		if err != nil {
			return nil, err
		}
		if failed {
			out.Add(field.Name, failure.Message)
			if e.recorder != nil {
				e.recorder.ObserveFieldFailure(schema.Name(), field.Name, string(failure.Rule.Kind))
			}
		}
	}

	e.mu.RLock()
	checks := append([]namedCheck(nil), e.checks[schema.Name()]...)
	e.mu.RUnlock()

	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := out.Fields()
		if err := check.fn(ctx, snap, out); err != nil {
			e.logger.Error().Err(err).Str("schema", schema.Name()).Str("check", check.name).Msg("imperative check failed")
			return nil, fmt.Errorf("server: check %s: %w", check.name, err)
		}
		if e.recorder != nil {
			for _, field := range newFields(before, out.Fields()) {
				e.recorder.ObserveFieldFailure(schema.Name(), field, check.name)
			}
		}
	}

	valid := out.Valid()
	if e.recorder != nil {
		e.recorder.ObserveValidation(schema.Name(), time.Since(started), valid)
	}
	e.logger.Debug().
		Str("schema", schema.Name()).
		Bool("valid", valid).
		Strs("fields", out.Fields()).
		Msg("validated")
	return out, nil
}

func newFields(before, after []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, f := range before {
		seen[f] = struct{}{}
	}
	var out []string
	for _, f := range after {
		if _, ok := seen[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
