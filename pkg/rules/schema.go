package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldRules is the ordered rule set declared for one field. A kind appears at
// most once; redeclaring a kind replaces the earlier rule in place.
type FieldRules struct {
	Name    string    `json:"name" yaml:"name"`
	Display string    `json:"display,omitempty" yaml:"display,omitempty"`
	Type    FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	// Input is an optional HTML input type hint (password, email, ...).
	Input string `json:"input,omitempty" yaml:"input,omitempty"`
	Rules []Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Label returns the display name, falling back to the field name.
func (f FieldRules) Label() string {
	if strings.TrimSpace(f.Display) != "" {
		return f.Display
	}
	return f.Name
}

// Rule returns the rule of the given kind.
func (f FieldRules) Rule(kind Kind) (Rule, bool) {
	for _, r := range f.Rules {
		if r.Kind == kind {
			return r, true
		}
	}
	return Rule{}, false
}

// Remote returns the remote rule, if any.
func (f FieldRules) Remote() (Rule, bool) {
	return f.Rule(KindRemote)
}

func (f *FieldRules) add(rule Rule) {
	for i := range f.Rules {
		if f.Rules[i].Kind == rule.Kind {
			f.Rules[i] = rule
			return
		}
	}
	f.Rules = append(f.Rules, rule)
}

func (f FieldRules) clone() FieldRules {
	out := f
	out.Rules = make([]Rule, len(f.Rules))
	for i, r := range f.Rules {
		out.Rules[i] = r.Clone()
	}
	return out
}

// Schema is the compiled, immutable rule set of a form. Every declared field
// is known to the schema even when it carries no rules, which lets conditional
// rules reference plain dependent fields.
type Schema struct {
	name   string
	fields []FieldRules
	index  map[string]int
}

// Name returns the schema identifier.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Fields returns a copy of the declared fields in declaration order.
func (s *Schema) Fields() []FieldRules {
	if s == nil {
		return nil
	}
	out := make([]FieldRules, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (FieldRules, bool) {
	if s == nil {
		return FieldRules{}, false
	}
	idx, ok := s.index[name]
	if !ok {
		return FieldRules{}, false
	}
	return s.fields[idx].clone(), true
}

// Has reports whether the schema declares the field.
func (s *Schema) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[name]
	return ok
}

// Names lists the declared field names in order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithRegistry sets the kind registry used to validate and describe rules.
func WithRegistry(reg *Registry) BuilderOption {
	return func(b *Builder) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// Builder collects field declarations and compiles them into a Schema.
type Builder struct {
	name     string
	registry *Registry
	fields   []*FieldBuilder
	index    map[string]*FieldBuilder
}

// NewBuilder starts a schema declaration.
func NewBuilder(name string, opts ...BuilderOption) *Builder {
	b := &Builder{
		name:     strings.TrimSpace(name),
		registry: Default(),
		index:    make(map[string]*FieldBuilder),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Registry returns the registry the builder validates against.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Field returns the builder for name, declaring the field on first use.
func (b *Builder) Field(name string) *FieldBuilder {
	name = strings.TrimSpace(name)
	if fb, ok := b.index[name]; ok {
		return fb
	}
	fb := &FieldBuilder{rules: FieldRules{Name: name, Type: FieldTypeString}}
	b.fields = append(b.fields, fb)
	b.index[name] = fb
	return fb
}

// Declare adds a complete field declaration, merging rules into any existing
// declaration of the same name.
func (b *Builder) Declare(field FieldRules) *FieldBuilder {
	fb := b.Field(field.Name)
	if field.Display != "" {
		fb.rules.Display = field.Display
	}
	if field.Type != "" {
		fb.rules.Type = field.Type
	}
	if field.Input != "" {
		fb.rules.Input = field.Input
	}
	for _, r := range field.Rules {
		fb.Rule(r)
	}
	return fb
}

// Build validates every declaration and renders default messages. Errors for
// all fields are joined.
func (b *Builder) Build() (*Schema, error) {
	if b.name == "" {
		return nil, fmt.Errorf("%w: schema name is required", ErrInvalidRule)
	}
	schema := &Schema{
		name:   b.name,
		fields: make([]FieldRules, 0, len(b.fields)),
		index:  make(map[string]int, len(b.fields)),
	}

	var errs []error
	for _, fb := range b.fields {
		field := fb.rules.clone()
		if field.Name == "" {
			errs = append(errs, fmt.Errorf("%w: field name is required", ErrInvalidRule))
			continue
		}
		for i, rule := range field.Rules {
			if err := b.check(field, rule); err != nil {
				errs = append(errs, &FieldError{Field: field.Name, Kind: rule.Kind, Err: err})
				continue
			}
			if strings.TrimSpace(rule.Message) == "" {
				msg, err := b.registry.DefaultMessage(field.Label(), rule)
				if err != nil {
					errs = append(errs, &FieldError{Field: field.Name, Kind: rule.Kind, Err: err})
					continue
				}
				field.Rules[i].Message = msg
			}
		}
		schema.index[field.Name] = len(schema.fields)
		schema.fields = append(schema.fields, field)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return schema, nil
}

func (b *Builder) check(field FieldRules, rule Rule) error {
	if !rule.Kind.Valid() {
		return ErrInvalidRule
	}
	for _, name := range rule.ParamNames() {
		if !ValidParamName(name) {
			return fmt.Errorf("%w: parameter name %q must be lower case letters and digits", ErrInvalidRule, name)
		}
	}
	if !b.registry.Has(rule.Kind) {
		return ErrUnknownKind
	}
	switch rule.Kind {
	case KindRequiredIf, KindRequiredUnless:
		dep := rule.DependentProperty()
		if dep == "" {
			return fmt.Errorf("%w: dependentproperty is required", ErrInvalidRule)
		}
		if _, ok := b.index[dep]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingDependentField, dep)
		}
	case KindEqualTo:
		other, _ := rule.Param(ParamOther)
		other = StripPrefix(other)
		if _, ok := b.index[other]; !ok || other == "" {
			return fmt.Errorf("%w: %q", ErrMissingDependentField, other)
		}
	case KindRegex:
		pattern, _ := rule.Param(ParamPattern)
		if !ValidPattern(pattern) {
			return fmt.Errorf("%w: pattern %q does not compile", ErrInvalidRule, pattern)
		}
	case KindRemote:
		if u, _ := rule.Param(ParamURL); strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: remote url is required", ErrInvalidRule)
		}
	case KindMinLength, KindMaxLength, KindLength:
		for _, name := range []string{ParamMin, ParamMax} {
			if raw, ok := rule.Param(name); ok && raw != "" {
				if _, err := strconv.Atoi(raw); err != nil {
					return fmt.Errorf("%w: %s must be an integer", ErrInvalidRule, name)
				}
			}
		}
	case KindRange:
		for _, name := range []string{ParamMin, ParamMax} {
			if raw, ok := rule.Param(name); ok && raw != "" {
				if _, err := strconv.ParseFloat(raw, 64); err != nil {
					return fmt.Errorf("%w: %s must be numeric", ErrInvalidRule, name)
				}
			}
		}
	}
	return nil
}

// FieldBuilder declares rules for a single field. Methods accept an optional
// message; an empty message falls back to the kind's default template.
type FieldBuilder struct {
	rules FieldRules
}

// Display sets the human readable field name used in default messages.
func (f *FieldBuilder) Display(name string) *FieldBuilder {
	f.rules.Display = strings.TrimSpace(name)
	return f
}

// Type sets the field value type.
func (f *FieldBuilder) Type(t FieldType) *FieldBuilder {
	f.rules.Type = t
	return f
}

// Input sets the HTML input type hint.
func (f *FieldBuilder) Input(input string) *FieldBuilder {
	f.rules.Input = strings.TrimSpace(input)
	return f
}

// Rule adds an arbitrary rule, including custom kinds.
func (f *FieldBuilder) Rule(rule Rule) *FieldBuilder {
	rule = rule.Clone()
	rule.Kind = NormalizeKind(string(rule.Kind))
	if rule.Kind == KindRequiredUnless {
		rule.Invert = true
	}
	f.rules.add(rule)
	return f
}

// Param sets a parameter on the rule of kind declared earlier. It is a no-op
// when the field has no such rule. Names must satisfy ValidParamName; Build
// rejects anything else.
func (f *FieldBuilder) Param(kind Kind, name, value string) *FieldBuilder {
	kind = NormalizeKind(string(kind))
	for i := range f.rules.Rules {
		if f.rules.Rules[i].Kind != kind {
			continue
		}
		if f.rules.Rules[i].Params == nil {
			f.rules.Rules[i].Params = make(map[string]string)
		}
		f.rules.Rules[i].Params[name] = value
	}
	return f
}

func (f *FieldBuilder) simple(kind Kind, msg string, params map[string]string) *FieldBuilder {
	return f.Rule(Rule{Kind: kind, Message: msg, Params: params})
}

func (f *FieldBuilder) Required(msg string) *FieldBuilder {
	return f.simple(KindRequired, msg, nil)
}

func (f *FieldBuilder) Email(msg string) *FieldBuilder {
	return f.simple(KindEmail, msg, nil)
}

func (f *FieldBuilder) MinLength(min int, msg string) *FieldBuilder {
	return f.simple(KindMinLength, msg, map[string]string{ParamMin: strconv.Itoa(min)})
}

func (f *FieldBuilder) MaxLength(max int, msg string) *FieldBuilder {
	return f.simple(KindMaxLength, msg, map[string]string{ParamMax: strconv.Itoa(max)})
}

// Length bounds the value length; a zero min is not encoded.
func (f *FieldBuilder) Length(min, max int, msg string) *FieldBuilder {
	params := map[string]string{ParamMax: strconv.Itoa(max)}
	if min > 0 {
		params[ParamMin] = strconv.Itoa(min)
	}
	return f.simple(KindLength, msg, params)
}

func (f *FieldBuilder) Range(min, max float64, msg string) *FieldBuilder {
	return f.simple(KindRange, msg, map[string]string{
		ParamMin: strconv.FormatFloat(min, 'f', -1, 64),
		ParamMax: strconv.FormatFloat(max, 'f', -1, 64),
	})
}

func (f *FieldBuilder) URL(msg string) *FieldBuilder {
	return f.simple(KindURL, msg, nil)
}

func (f *FieldBuilder) Phone(msg string) *FieldBuilder {
	return f.simple(KindPhone, msg, nil)
}

func (f *FieldBuilder) CreditCard(msg string) *FieldBuilder {
	return f.simple(KindCreditCard, msg, nil)
}

func (f *FieldBuilder) Regex(pattern, msg string) *FieldBuilder {
	return f.simple(KindRegex, msg, map[string]string{ParamPattern: pattern})
}

func (f *FieldBuilder) EqualTo(other, msg string) *FieldBuilder {
	return f.simple(KindEqualTo, msg, map[string]string{ParamOther: "*." + StripPrefix(other)})
}

// Remote declares an asynchronous uniqueness style check against url. The
// additional fields are submitted alongside the value.
func (f *FieldBuilder) Remote(url, msg string, additional ...string) *FieldBuilder {
	params := map[string]string{ParamURL: url}
	if len(additional) > 0 {
		names := make([]string, 0, len(additional))
		for _, name := range additional {
			if name = StripPrefix(name); name != "" {
				names = append(names, "*."+name)
			}
		}
		params[ParamAdditionalFields] = strings.Join(names, ",")
	}
	return f.simple(KindRemote, msg, params)
}

// RequiredIf makes the field required while dependent matches expected. A nil
// expected value tests the dependent field for truthiness.
func (f *FieldBuilder) RequiredIf(dependent string, expected any, msg string) *FieldBuilder {
	return f.Rule(conditional(KindRequiredIf, dependent, expected, msg))
}

// RequiredUnless makes the field required unless dependent matches expected.
func (f *FieldBuilder) RequiredUnless(dependent string, expected any, msg string) *FieldBuilder {
	return f.Rule(conditional(KindRequiredUnless, dependent, expected, msg))
}

func conditional(kind Kind, dependent string, expected any, msg string) Rule {
	params := map[string]string{ParamDependentProperty: strings.TrimSpace(dependent)}
	if text, ok := FormatExpected(expected); ok {
		params[ParamExpectedValue] = text
	}
	return Rule{Kind: kind, Message: msg, Params: params}
}
