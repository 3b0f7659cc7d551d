package client

import (
	"context"
	"sync"

	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/report"
)

// Event is a user interaction delivered to a bound element.
type Event int

const (
	EventBlur Event = iota
	EventInput
	EventChange
)

func (ev Event) String() string {
	switch ev {
	case EventBlur:
		return "blur"
	case EventInput:
		return "input"
	case EventChange:
		return "change"
	default:
		return "unknown"
	}
}

// State is the validation state of one element. It reads StateValidating
// while any sync or remote pass over the element is running.
type State int

const (
	StateUnbound State = iota
	StateIdle
	StateValidating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	default:
		return "unbound"
	}
}

type binding struct {
	mu         sync.Mutex
	state      State
	generation uint64
	pending    int
}

// Attach binds every element of f that opts into validation and marks the
// form as attached. Calling it again only binds elements added since; it
// returns the number of newly bound elements.
func (e *Evaluator) Attach(f *Form) int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	f.attrs.Set(AttrAttached, "true")
	candidates := make([]*Element, 0, len(f.elements))
	for _, el := range f.elements {
		if encoding.Enabled(el.attrs) {
			candidates = append(candidates, el)
		}
	}
	f.mu.Unlock()

	e.bindMu.Lock()
	defer e.bindMu.Unlock()
	bound := 0
	for _, el := range candidates {
		if _, ok := e.bindings[el]; ok {
			continue
		}
		e.bindings[el] = &binding{state: StateIdle}
		bound++
	}
	if bound > 0 {
		e.logger.Debug().Str("form", f.ID()).Int("bound", bound).Msg("form attached")
	}
	return bound
}

// Attached reports whether Attach ran for f.
func (e *Evaluator) Attached(f *Form) bool {
	v, ok := f.Attr(AttrAttached)
	return ok && v == "true"
}

// State reports the validation state of el.
func (e *Evaluator) State(el *Element) State {
	b := e.binding(el)
	if b == nil {
		return StateUnbound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (e *Evaluator) binding(el *Element) *binding {
	e.bindMu.Lock()
	defer e.bindMu.Unlock()
	return e.bindings[el]
}

// Dispatch delivers ev to el and returns the messages now displayed for it.
// Blur validates, including the remote check when the field declares one.
// Input revalidates only while the field shows an error. Change revalidates
// checkboxes and radios. Events on unbound elements are ignored.
func (e *Evaluator) Dispatch(ctx context.Context, el *Element, ev Event) []string {
	b := e.binding(el)
	if b == nil {
		return nil
	}
	switch ev {
	case EventBlur:
		if e.HasRemote(el) {
			return e.validateAsync(ctx, el, b)
		}
		return e.validateSync(el, b)
	case EventInput:
		if !e.showingError(el) {
			return nil
		}
		return e.validateSync(el, b)
	case EventChange:
		if el.typ != InputCheckbox && el.typ != InputRadio {
			return nil
		}
		return e.validateSync(el, b)
	default:
		return nil
	}
}

func (e *Evaluator) validateSync(el *Element, b *binding) []string {
	b.mu.Lock()
	b.generation++
	b.pending++
	b.state = StateValidating
	b.mu.Unlock()

	errs := e.ValidateFieldSync(el)

	b.mu.Lock()
	b.pending--
	if b.pending == 0 {
		b.state = StateIdle
	}
	b.mu.Unlock()

	e.DisplayErrors(el, errs)
	return errs
}

// validateAsync runs the remote path. A result is displayed only if no
// newer validation of the same element started meanwhile.
func (e *Evaluator) validateAsync(ctx context.Context, el *Element, b *binding) []string {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.pending++
	b.state = StateValidating
	b.mu.Unlock()

	errs := e.ValidateFieldAsync(ctx, el)

	b.mu.Lock()
	b.pending--
	if b.pending == 0 {
		b.state = StateIdle
	}
	current := b.generation == gen
	b.mu.Unlock()

	if !current {
		e.logger.Debug().Str("field", el.name).Msg("discarding stale remote result")
		return nil
	}
	e.DisplayErrors(el, errs)
	return errs
}

// ValidateForm is the submit gate. It synchronously validates every element
// that opts into validation, once per field name, displays the outcome and
// returns the messages. Submission should proceed only when the report is
// valid. Pending remote checks are not awaited.
func (e *Evaluator) ValidateForm(f *Form) report.Report {
	out := report.New()
	if f == nil {
		return out
	}
	seen := make(map[string]struct{})
	for _, el := range f.Elements("") {
		if _, done := seen[el.name]; done {
			continue
		}
		attrs := e.attrsOf(el)
		if !encoding.Enabled(attrs) {
			continue
		}
		seen[el.name] = struct{}{}
		errs := e.ValidateFieldSync(el)
		e.DisplayErrors(el, errs)
		for _, msg := range errs {
			out.Add(el.name, msg)
		}
	}
	return out
}
