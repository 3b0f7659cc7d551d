package rules

import (
	"fmt"
	"sort"
	"sync"
)

// CheckFunc decides whether value satisfies rule. The snapshot gives access to
// sibling fields for kinds such as equalto.
type CheckFunc func(value Value, rule Rule, snap Snapshot) bool

// KindSpec describes how a kind is evaluated.
type KindSpec struct {
	Kind  Kind
	Check CheckFunc
	// Message is the pongo2 template rendered when a rule of this kind is
	// declared without an explicit message. The template sees the field
	// display name as "field" plus every rule parameter by name.
	Message string
	// Presence marks kinds that still run on blank values.
	Presence bool
	// Async marks kinds evaluated out of band (remote).
	Async bool
}

// Registry maps kinds to their evaluation spec. Hosts add custom kinds with
// Register before compiling schemas.
type Registry struct {
	mu       sync.RWMutex
	specs    map[Kind]KindSpec
	messages *Messages
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry seeded with the built-in kinds.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry constructs a registry with the built-in kinds registered.
func NewRegistry() *Registry {
	reg := &Registry{
		specs:    make(map[Kind]KindSpec),
		messages: NewMessages(),
	}
	for _, spec := range builtinSpecs() {
		reg.specs[spec.Kind] = spec
	}
	return reg
}

// Register adds a custom kind. Kinds must be lowercase alphanumeric tokens and
// may only be registered once.
func (r *Registry) Register(spec KindSpec) error {
	if r == nil {
		return fmt.Errorf("rules: registry is nil")
	}
	spec.Kind = NormalizeKind(string(spec.Kind))
	if !spec.Kind.Valid() {
		return fmt.Errorf("%w: kind %q must be lowercase alphanumeric", ErrInvalidRule, spec.Kind)
	}
	if spec.Check == nil {
		return fmt.Errorf("%w: kind %q has no check", ErrInvalidRule, spec.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, spec.Kind)
	}
	r.specs[spec.Kind] = spec
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(spec KindSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Lookup returns the KindSpec registered for kind.
func (r *Registry) Lookup(kind Kind) (KindSpec, bool) {
	if r == nil {
		return KindSpec{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[kind]
	return spec, ok
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.Lookup(kind)
	return ok
}

// Kinds lists registered kinds in lexical order.
func (r *Registry) Kinds() []Kind {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.specs))
	for kind := range r.specs {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultMessage renders the default message for rule on the named field.
func (r *Registry) DefaultMessage(display string, rule Rule) (string, error) {
	spec, ok := r.Lookup(rule.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, rule.Kind)
	}
	if spec.Message == "" {
		return fmt.Sprintf("The %s field is invalid.", display), nil
	}
	return r.messages.Render(spec.Message, display, rule)
}

func builtinSpecs() []KindSpec {
	return []KindSpec{
		{Kind: KindRequired, Check: checkRequired, Presence: true,
			Message: `The {{ field }} field is required.`},
		{Kind: KindEmail, Check: checkEmail,
			Message: `The {{ field }} field is not a valid e-mail address.`},
		{Kind: KindMinLength, Check: checkMinLength,
			Message: `The field {{ field }} must have a minimum length of {{ min }}.`},
		{Kind: KindMaxLength, Check: checkMaxLength,
			Message: `The field {{ field }} must have a maximum length of {{ max }}.`},
		{Kind: KindLength, Check: checkLength,
			Message: `{% if min and max %}The field {{ field }} must be between {{ min }} and {{ max }} characters long.{% elif max %}The field {{ field }} must be at most {{ max }} characters long.{% else %}The field {{ field }} must be at least {{ min }} characters long.{% endif %}`},
		{Kind: KindRange, Check: checkRange,
			Message: `{% if min and max %}The field {{ field }} must be between {{ min }} and {{ max }}.{% elif max %}The field {{ field }} must be at most {{ max }}.{% else %}The field {{ field }} must be at least {{ min }}.{% endif %}`},
		{Kind: KindURL, Check: checkURL,
			Message: `The {{ field }} field is not a valid fully-qualified URL.`},
		{Kind: KindPhone, Check: checkPhone,
			Message: `The {{ field }} field is not a valid phone number.`},
		{Kind: KindCreditCard, Check: checkCreditCard,
			Message: `The {{ field }} field is not a valid credit card number.`},
		{Kind: KindRegex, Check: checkRegex,
			Message: `The field {{ field }} must match the regular expression '{{ pattern }}'.`},
		{Kind: KindEqualTo, Check: checkEqualTo,
			Message: `'{{ field }}' and '{{ other }}' do not match.`},
		{Kind: KindRemote, Check: checkRemote, Async: true,
			Message: `'{{ field }}' is invalid.`},
		{Kind: KindRequiredIf, Check: checkConditional, Presence: true,
			Message: `{{ field }} is required when {{ dependentproperty }} is {% if expectedvalue %}{{ expectedvalue }}{% else %}set{% endif %}.`},
		{Kind: KindRequiredUnless, Check: checkConditional, Presence: true,
			Message: `{{ field }} is required unless {{ dependentproperty }} is {% if expectedvalue %}{{ expectedvalue }}{% else %}set{% endif %}.`},
	}
}
