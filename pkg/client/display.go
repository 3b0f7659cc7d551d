package client

import (
	"html"
	"strings"
)

// DisplayErrors shows the first message of errs for el, or clears the field
// when errs is empty. Every element sharing el's name is styled, so checkbox
// and radio groups change together.
func (e *Evaluator) DisplayErrors(el *Element, errs []string) {
	if el == nil || el.form == nil {
		return
	}
	f := el.form
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(errs) == 0 {
		e.clearFieldLocked(f, el.name)
		return
	}
	e.showFieldLocked(f, el.name, e.sanitize(errs[0]))
}

// ClearErrors removes every displayed message and error style from f.
func (e *Evaluator) ClearErrors(f *Form) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.clearAllLocked(f)
}

func (e *Evaluator) clearAllLocked(f *Form) {
	seen := make(map[string]struct{})
	for _, el := range f.elements {
		if _, ok := seen[el.name]; ok {
			continue
		}
		seen[el.name] = struct{}{}
		e.clearFieldLocked(f, el.name)
	}
	for _, t := range f.targets {
		e.clearTargetLocked(t)
	}
	f.formErrors = nil
}

func (e *Evaluator) showFieldLocked(f *Form, name, msg string) {
	for _, el := range f.elementsLocked(name) {
		swapClass(el.classes, e.classes.InputValid, e.classes.InputError)
		el.attrs.Set(AttrError, msg)
	}
	if t := f.targetLocked(name); t != nil {
		t.text = msg
		t.visible = true
		swapClass(t.classes, e.classes.MessageValid, e.classes.MessageError)
	}
}

func (e *Evaluator) clearFieldLocked(f *Form, name string) {
	for _, el := range f.elementsLocked(name) {
		swapClass(el.classes, e.classes.InputError, e.classes.InputValid)
		el.attrs.Delete(AttrError)
	}
	if t := f.targetLocked(name); t != nil {
		e.clearTargetLocked(t)
	}
}

func (e *Evaluator) clearTargetLocked(t *DisplayTarget) {
	t.text = ""
	t.visible = false
	swapClass(t.classes, e.classes.MessageError, e.classes.MessageValid)
}

// showingError reports whether el's field currently displays a message.
func (e *Evaluator) showingError(el *Element) bool {
	f := el.form
	f.mu.Lock()
	defer f.mu.Unlock()
	if t := f.targetLocked(el.name); t != nil {
		_, ok := t.classes[e.classes.MessageError]
		return ok
	}
	_, ok := el.classes[e.classes.InputError]
	return ok
}

// sanitize reduces a message to plain text. Server messages are untrusted,
// and targets hold text, so markup is stripped and entities decoded.
func (e *Evaluator) sanitize(msg string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(msg)))
}

func swapClass(classes map[string]struct{}, remove, add string) {
	if remove != "" {
		delete(classes, remove)
	}
	if add != "" {
		classes[add] = struct{}{}
	}
}
