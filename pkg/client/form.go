package client

import (
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-formguard/pkg/encoding"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Attribute names the binder reads and writes.
const (
	AttrMessageFor     = "data-valmsg-for"
	AttrShouldValidate = "data-should-validate"
	AttrAttached       = "data-validation-attached"
	AttrError          = "data-validation-error"
)

// ElementType is the input type of a form element.
type ElementType string

const (
	InputText     ElementType = "text"
	InputPassword ElementType = "password"
	InputEmail    ElementType = "email"
	InputNumber   ElementType = "number"
	InputTel      ElementType = "tel"
	InputURL      ElementType = "url"
	InputCheckbox ElementType = "checkbox"
	InputRadio    ElementType = "radio"
	InputSelect   ElementType = "select"
	InputTextArea ElementType = "textarea"
	InputHidden   ElementType = "hidden"
)

// ElementSpec describes an element to add to a form.
type ElementSpec struct {
	Name       string
	ID         string
	Type       ElementType
	Label      string
	Value      string
	Checked    bool
	Hidden     bool
	Disabled   bool
	Attributes encoding.AttributeSet
}

// Form is the live state of a rendered form: its elements, their current
// values and the message targets. All state is guarded by the form lock, so a
// form may be driven from several goroutines.
type Form struct {
	mu         sync.Mutex
	id         string
	attrs      encoding.AttributeSet
	elements   []*Element
	targets    []*DisplayTarget
	formErrors []string
}

// NewForm creates an empty form.
func NewForm(id string) *Form {
	return &Form{id: id}
}

// ID returns the form identifier.
func (f *Form) ID() string { return f.id }

// Attr reads a form level attribute.
func (f *Form) Attr(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attrs.Get(key)
}

// SetAttr writes a form level attribute.
func (f *Form) SetAttr(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attrs.Set(key, value)
}

// AddElement appends an element built from spec.
func (f *Form) AddElement(spec ElementSpec) *Element {
	if spec.Type == "" {
		spec.Type = InputText
	}
	el := &Element{
		form:     f,
		name:     spec.Name,
		id:       spec.ID,
		typ:      spec.Type,
		label:    spec.Label,
		attrs:    encoding.NewAttributeSet(spec.Attributes.Attributes()...),
		value:    spec.Value,
		checked:  spec.Checked,
		hidden:   spec.Hidden,
		disabled: spec.Disabled,
		classes:  make(map[string]struct{}),
	}
	f.mu.Lock()
	f.elements = append(f.elements, el)
	f.mu.Unlock()
	return el
}

// AddTarget appends a message target for the named field.
func (f *Form) AddTarget(name string) *DisplayTarget {
	t := &DisplayTarget{form: f, name: name, classes: make(map[string]struct{})}
	f.mu.Lock()
	f.targets = append(f.targets, t)
	f.mu.Unlock()
	return t
}

// Element returns the first element with the given name.
func (f *Form) Element(name string) *Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, el := range f.elements {
		if el.name == name {
			return el
		}
	}
	return nil
}

// Elements returns every element with the given name, or all elements when
// name is empty.
func (f *Form) Elements(name string) []*Element {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elementsLocked(name)
}

func (f *Form) elementsLocked(name string) []*Element {
	var out []*Element
	for _, el := range f.elements {
		if name == "" || el.name == name {
			out = append(out, el)
		}
	}
	return out
}

// Target returns the first message target for name.
func (f *Form) Target(name string) *DisplayTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.targetLocked(name)
}

func (f *Form) targetLocked(name string) *DisplayTarget {
	for _, t := range f.targets {
		if t.name == name {
			return t
		}
	}
	return nil
}

// Targets returns every message target.
func (f *Form) Targets() []*DisplayTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*DisplayTarget(nil), f.targets...)
}

// Names lists the distinct element names in document order.
func (f *Form) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, el := range f.elements {
		if _, ok := seen[el.name]; ok || el.name == "" {
			continue
		}
		seen[el.name] = struct{}{}
		out = append(out, el.name)
	}
	return out
}

// FormErrors returns messages the last reconciliation could not map to a
// field.
func (f *Form) FormErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formErrors...)
}

// Values serialises the form the way a browser submits it. Disabled elements
// are skipped, unchecked radios are skipped, and a lone checkbox posts
// "true" or "false".
func (f *Form) Values() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := url.Values{}
	groups := make(map[string]int)
	for _, el := range f.elements {
		groups[el.name]++
	}
	for _, el := range f.elements {
		if el.disabled || el.name == "" {
			continue
		}
		switch el.typ {
		case InputCheckbox:
			if groups[el.name] == 1 {
				out.Set(el.name, boolText(el.checked))
			} else if el.checked {
				out.Add(el.name, el.value)
			}
		case InputRadio:
			if el.checked {
				out.Set(el.name, el.value)
			}
		default:
			out.Add(el.name, el.value)
		}
	}
	return out
}

// snapshot captures every field value under the lock.
func (f *Form) snapshot() rules.MapSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(rules.MapSnapshot)
	for _, el := range f.elements {
		if _, done := snap[el.name]; done || el.name == "" {
			continue
		}
		snap[el.name] = f.valueLocked(el.name)
	}
	return snap
}

func (f *Form) valueLocked(name string) rules.Value {
	group := f.elementsLocked(name)
	if len(group) == 0 {
		return rules.Absent()
	}
	first := group[0]
	switch first.typ {
	case InputCheckbox:
		if len(group) == 1 {
			return rules.Bool(first.checked)
		}
		var items []string
		for _, el := range group {
			if el.checked {
				items = append(items, el.value)
			}
		}
		return rules.List(items...)
	case InputRadio:
		for _, el := range group {
			if el.checked {
				return rules.String(el.value)
			}
		}
		return rules.String("")
	default:
		return rules.String(first.value)
	}
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Element is one input of a form.
type Element struct {
	form     *Form
	name     string
	id       string
	typ      ElementType
	label    string
	attrs    encoding.AttributeSet
	value    string
	checked  bool
	hidden   bool
	disabled bool
	classes  map[string]struct{}
}

func (e *Element) Form() *Form       { return e.form }
func (e *Element) Name() string      { return e.name }
func (e *Element) ID() string        { return e.id }
func (e *Element) Type() ElementType { return e.typ }

// Label returns the human readable label, falling back to the name.
func (e *Element) Label() string {
	if strings.TrimSpace(e.label) != "" {
		return e.label
	}
	return e.name
}

func (e *Element) Value() string {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	return e.value
}

func (e *Element) SetValue(v string) {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	e.value = v
}

func (e *Element) Checked() bool {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	return e.checked
}

// SetChecked toggles a checkbox. Checking a radio unchecks its siblings.
func (e *Element) SetChecked(v bool) {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	if v && e.typ == InputRadio {
		for _, sib := range e.form.elementsLocked(e.name) {
			sib.checked = false
		}
	}
	e.checked = v
}

func (e *Element) Hidden() bool {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	return e.hidden
}

func (e *Element) SetHidden(v bool) {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	e.hidden = v
}

func (e *Element) Disabled() bool {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	return e.disabled
}

func (e *Element) SetDisabled(v bool) {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	e.disabled = v
}

// Attr reads an attribute.
func (e *Element) Attr(key string) (string, bool) {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	return e.attrs.Get(key)
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	e.form.mu.Lock()
	defer e.form.mu.Unlock()
	_, ok := e.classes[class]
	return ok
}

// ValidationError returns the message recorded on the element, if any.
func (e *Element) ValidationError() string {
	v, _ := e.Attr(AttrError)
	return v
}

// excludedLocked reports whether validation must skip the element.
func (e *Element) excludedLocked() bool {
	if e.hidden || e.disabled || e.typ == InputHidden {
		return true
	}
	v, ok := e.attrs.Get(AttrShouldValidate)
	return ok && strings.EqualFold(strings.TrimSpace(v), "false")
}

// DisplayTarget is the message slot bound to a field name.
type DisplayTarget struct {
	form    *Form
	name    string
	text    string
	visible bool
	classes map[string]struct{}
}

// For returns the field name the target displays messages for.
func (t *DisplayTarget) For() string { return t.name }

func (t *DisplayTarget) Text() string {
	t.form.mu.Lock()
	defer t.form.mu.Unlock()
	return t.text
}

func (t *DisplayTarget) Visible() bool {
	t.form.mu.Lock()
	defer t.form.mu.Unlock()
	return t.visible
}

func (t *DisplayTarget) HasClass(class string) bool {
	t.form.mu.Lock()
	defer t.form.mu.Unlock()
	_, ok := t.classes[class]
	return ok
}
