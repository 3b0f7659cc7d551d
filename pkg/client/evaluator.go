// Package client validates live form state with the rules encoded on each
// element, shows messages in the message targets, and reconciles server
// error reports onto the form.
package client

import (
	"context"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Evaluator runs the encoded rules of form elements. It is safe for
// concurrent use; form state is guarded by each form's own lock.
type Evaluator struct {
	registry *rules.Registry
	logger   zerolog.Logger
	remote   RemoteChecker
	classes  Classes
	policy   *bluemonday.Policy

	bindMu   sync.Mutex
	bindings map[*Element]*binding
}

// New constructs an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: rules.Default(),
		logger:   zerolog.Nop(),
		classes:  DefaultClasses(),
		policy:   bluemonday.StrictPolicy(),
		bindings: make(map[*Element]*binding),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Classes returns the classes the evaluator toggles.
func (e *Evaluator) Classes() Classes { return e.classes }

// fieldPlan is everything a single evaluation needs, captured under the form
// lock so the checks themselves run without it.
type fieldPlan struct {
	field    rules.FieldRules
	value    rules.Value
	snapshot rules.MapSnapshot
}

func (e *Evaluator) plan(el *Element) (fieldPlan, bool) {
	if el == nil || el.form == nil {
		return fieldPlan{}, false
	}
	f := el.form
	f.mu.Lock()
	if el.excludedLocked() || !encoding.Enabled(el.attrs) {
		f.mu.Unlock()
		return fieldPlan{}, false
	}
	attrs := encoding.NewAttributeSet(el.attrs.Attributes()...)
	label := el.Label()
	f.mu.Unlock()

	field := encoding.DecodeField(el.name, attrs)
	field.Display = label
	if len(field.Rules) == 0 {
		return fieldPlan{}, false
	}
	snap := f.snapshot()
	value, ok := snap[el.name]
	if !ok {
		value = rules.Absent()
	}
	return fieldPlan{field: field, value: value, snapshot: snap}, true
}

// ValidateFieldSync runs the synchronous rules of el and returns at most one
// message. Hidden, disabled and excluded elements never produce messages.
func (e *Evaluator) ValidateFieldSync(el *Element) []string {
	p, ok := e.plan(el)
	if !ok {
		return nil
	}
	return e.evaluate(el, p)
}

func (e *Evaluator) evaluate(el *Element, p fieldPlan) []string {
	env := rules.Env{
		Registry: e.registry,
		Snapshot: p.snapshot,
		DependentMissing: func(rule rules.Rule, err error) error {
			e.logger.Warn().
				Err(err).
				Str("form", el.form.ID()).
				Str("field", el.name).
				Str("kind", rule.Kind.String()).
				Str("dependent", rules.StripPrefix(rule.DependentProperty())).
				Msg("conditional rule references a field missing from the form")
			return nil
		},
	}
	failure, failed, err := rules.Evaluate(p.field, p.value, env)
	if err != nil {
		e.logger.Warn().Err(err).Str("field", el.name).Msg("field evaluation aborted")
		return nil
	}
	if !failed {
		return nil
	}
	return []string{e.message(p.field, failure)}
}

func (e *Evaluator) message(field rules.FieldRules, failure rules.Failure) string {
	if strings.TrimSpace(failure.Message) != "" {
		return failure.Message
	}
	msg, err := e.registry.DefaultMessage(field.Label(), failure.Rule)
	if err != nil || msg == "" {
		return field.Label() + " is invalid."
	}
	return msg
}

// ValidateFieldAsync runs the synchronous rules and, when they pass and the
// field declares a remote rule with a non-blank value, the remote check.
// Remote faults pass the value.
func (e *Evaluator) ValidateFieldAsync(ctx context.Context, el *Element) []string {
	p, ok := e.plan(el)
	if !ok {
		return nil
	}
	if errs := e.evaluate(el, p); len(errs) > 0 {
		return errs
	}
	rule, ok := p.field.Remote()
	if !ok || p.value.Blank() {
		return nil
	}
	if e.remote == nil {
		e.logger.Debug().Str("field", el.name).Msg("no remote checker configured, skipping remote rule")
		return nil
	}

	target, _ := rule.Param(rules.ParamURL)
	method, _ := rule.Param(rules.ParamMethod)
	req := RemoteRequest{
		URL:    target,
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Field:  el.name,
		Values: remoteValues(el.name, p.value, rule, p.snapshot),
	}
	if req.Method == "" {
		req.Method = "POST"
	}

	valid, err := e.remote.Check(ctx, req)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("field", el.name).
			Str("url", req.URL).
			Msg("remote check failed, accepting value")
		return nil
	}
	if valid {
		return nil
	}
	return []string{e.message(p.field, rules.Failure{Rule: rule, Message: rule.Message})}
}

func remoteValues(name string, value rules.Value, rule rules.Rule, snap rules.MapSnapshot) map[string][]string {
	values := make(map[string][]string)
	addValue(values, name, value)
	additional, _ := rule.Param(rules.ParamAdditionalFields)
	for _, raw := range strings.Split(additional, ",") {
		other := rules.StripPrefix(strings.TrimSpace(raw))
		if other == "" || other == name {
			continue
		}
		v, ok := snap.Lookup(other)
		if !ok {
			continue
		}
		addValue(values, other, v)
	}
	return values
}

func addValue(values map[string][]string, name string, v rules.Value) {
	if v.Kind() == rules.ValueList {
		values[name] = append(values[name], v.Items()...)
		return
	}
	values[name] = append(values[name], v.Text())
}

// HasRemote reports whether el carries a remote rule.
func (e *Evaluator) HasRemote(el *Element) bool {
	attrs := e.attrsOf(el)
	_, ok := encoding.DecodeField(el.name, attrs).Remote()
	return ok
}

func (e *Evaluator) attrsOf(el *Element) encoding.AttributeSet {
	el.form.mu.Lock()
	defer el.form.mu.Unlock()
	return encoding.NewAttributeSet(el.attrs.Attributes()...)
}

// SetShouldValidate toggles validation for el. Turning it off clears the
// displayed messages and the value; turning it on revalidates a non-empty
// value.
func (e *Evaluator) SetShouldValidate(el *Element, on bool) []string {
	f := el.form
	f.mu.Lock()
	el.attrs.Set(AttrShouldValidate, boolText(on))
	if !on {
		switch el.typ {
		case InputCheckbox, InputRadio:
			el.checked = false
		default:
			el.value = ""
		}
	}
	f.mu.Unlock()

	if !on {
		e.DisplayErrors(el, nil)
		return nil
	}
	p, ok := e.plan(el)
	if !ok || p.value.Blank() {
		return nil
	}
	errs := e.evaluate(el, p)
	e.DisplayErrors(el, errs)
	return errs
}
