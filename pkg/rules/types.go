package rules

import (
	"sort"
	"strings"
)

// Kind names a validation rule. Kinds are lowercase tokens because they become
// part of HTML attribute names (data-val-<kind>).
type Kind string

// Built-in rule kinds.
const (
	KindRequired       Kind = "required"
	KindEmail          Kind = "email"
	KindMinLength      Kind = "minlength"
	KindMaxLength      Kind = "maxlength"
	KindLength         Kind = "length"
	KindRange          Kind = "range"
	KindURL            Kind = "url"
	KindPhone          Kind = "phone"
	KindCreditCard     Kind = "creditcard"
	KindRegex          Kind = "regex"
	KindEqualTo        Kind = "equalto"
	KindRemote         Kind = "remote"
	KindRequiredIf     Kind = "requiredif"
	KindRequiredUnless Kind = "requiredunless"
)

// Parameter names shared by the built-in kinds.
const (
	ParamMin               = "min"
	ParamMax               = "max"
	ParamPattern           = "pattern"
	ParamOther             = "other"
	ParamURL               = "url"
	ParamAdditionalFields  = "additionalfields"
	ParamMethod            = "type"
	ParamDependentProperty = "dependentproperty"
	ParamExpectedValue     = "expectedvalue"
	ParamInvert            = "invert"
)

// NormalizeKind lowercases and trims a kind token.
func NormalizeKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// ValidParamName reports whether name can be encoded as the trailing segment
// of a data-val-<kind>-<param> attribute: lowercase ASCII letters and digits,
// and not the reserved invert flag.
func ValidParamName(name string) bool {
	return name != ParamInvert && Kind(name).Valid()
}

// Conditional reports whether the kind is gated by a dependent field.
func (k Kind) Conditional() bool {
	return k == KindRequiredIf || k == KindRequiredUnless
}

// Valid reports whether the kind can be used as an attribute token: lowercase
// ASCII letters and digits only.
func (k Kind) Valid() bool {
	if k == "" {
		return false
	}
	for _, r := range string(k) {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// FieldType is the simplified value type of a form field. It drives how raw
// submitted text is typed into a Value.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
)

// Rule is a single declarative validation constraint attached to a field.
// Params hold kind specific arguments as strings so the rule survives the
// attribute encoding unchanged. Invert is only meaningful for conditional
// kinds and is set for requiredunless.
type Rule struct {
	Kind    Kind              `json:"kind" yaml:"kind"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Invert  bool              `json:"invert,omitempty" yaml:"invert,omitempty"`
}

// Param returns the named parameter.
func (r Rule) Param(name string) (string, bool) {
	if r.Params == nil {
		return "", false
	}
	v, ok := r.Params[name]
	return v, ok
}

// DependentProperty returns the field a conditional rule is gated by.
func (r Rule) DependentProperty() string {
	v, _ := r.Param(ParamDependentProperty)
	return strings.TrimSpace(v)
}

// ExpectedValue returns the comparison value of a conditional rule. The second
// result is false when no expected value was declared, in which case the
// dependent field is tested for truthiness.
func (r Rule) ExpectedValue() (string, bool) {
	return r.Param(ParamExpectedValue)
}

// Inverted reports whether the gating predicate is negated.
func (r Rule) Inverted() bool {
	return r.Invert || r.Kind == KindRequiredUnless
}

// ParamNames returns the parameter names in sorted order.
func (r Rule) ParamNames() []string {
	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	out := r
	if r.Params != nil {
		out.Params = make(map[string]string, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	return out
}
