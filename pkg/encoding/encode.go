package encoding

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// Attribute names shared with the client runtime.
const (
	AttrEnabled = "data-val"
	AttrPrefix  = "data-val-"
)

// EncodeFunc writes the attributes for a single rule.
type EncodeFunc func(rule rules.Rule, set *AttributeSet)

// Registry maps kinds to encoders. Kinds without a registered encoder use
// EncodeRule.
type Registry struct {
	mu       sync.RWMutex
	encoders map[rules.Kind]EncodeFunc
}

// NewRegistry creates an empty encoder registry.
func NewRegistry() *Registry {
	return &Registry{encoders: make(map[rules.Kind]EncodeFunc)}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide encoder registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register installs fn for kind. Duplicate kinds return an error.
func (r *Registry) Register(kind rules.Kind, fn EncodeFunc) error {
	if fn == nil {
		return fmt.Errorf("encoding: encoder is required")
	}
	kind = rules.NormalizeKind(string(kind))
	if !kind.Valid() {
		return fmt.Errorf("encoding: invalid kind %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.encoders[kind]; exists {
		return fmt.Errorf("encoding: encoder %q already registered", kind)
	}
	r.encoders[kind] = fn
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(kind rules.Kind, fn EncodeFunc) {
	if err := r.Register(kind, fn); err != nil {
		panic(err)
	}
}

func (r *Registry) encoder(kind rules.Kind) EncodeFunc {
	if r != nil {
		r.mu.RLock()
		fn, ok := r.encoders[kind]
		r.mu.RUnlock()
		if ok {
			return fn
		}
	}
	return EncodeRule
}

// EncodeRule is the standard encoding: data-val-<kind> carries the message,
// each parameter becomes data-val-<kind>-<param> in lexical order, and
// inverted conditionals add data-val-<kind>-invert="true".
func EncodeRule(rule rules.Rule, set *AttributeSet) {
	prefix := AttrPrefix + string(rule.Kind)
	set.Set(prefix, rule.Message)
	for _, name := range rule.ParamNames() {
		if name == rules.ParamInvert {
			continue
		}
		set.Set(prefix+"-"+name, rule.Params[name])
	}
	if rule.Kind.Conditional() && rule.Inverted() {
		set.Set(prefix+"-"+rules.ParamInvert, "true")
	}
}

// Encode renders the attributes of a field. Fields without rules produce an
// empty set.
func (r *Registry) Encode(field rules.FieldRules) AttributeSet {
	var set AttributeSet
	if len(field.Rules) == 0 {
		return set
	}
	set.Set(AttrEnabled, "true")
	for _, rule := range field.Rules {
		r.encoder(rule.Kind)(rule, &set)
	}
	return set
}

// Encode renders a field with the default registry.
func Encode(field rules.FieldRules) AttributeSet {
	return Default().Encode(field)
}

// Enabled reports whether the set opts the element into validation.
func Enabled(set AttributeSet) bool {
	v, ok := set.Get(AttrEnabled)
	return ok && strings.EqualFold(strings.TrimSpace(v), "true")
}

// Decode reconstructs rules from attributes in first-seen order. Attributes of
// the form data-val-<kind>-<param>[-...] contribute <param>; anything after the
// parameter segment is ignored. Unknown kinds are decoded too.
func Decode(set AttributeSet) []rules.Rule {
	if !Enabled(set) {
		return nil
	}
	var out []rules.Rule
	index := make(map[rules.Kind]int)

	ruleFor := func(kind rules.Kind) *rules.Rule {
		if idx, ok := index[kind]; ok {
			return &out[idx]
		}
		index[kind] = len(out)
		out = append(out, rules.Rule{Kind: kind})
		return &out[len(out)-1]
	}

	for _, attr := range set.attrs {
		if !strings.HasPrefix(attr.Key, AttrPrefix) {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(attr.Key, AttrPrefix), "-")
		kind := rules.Kind(parts[0])
		if !kind.Valid() {
			continue
		}
		rule := ruleFor(kind)
		if len(parts) == 1 {
			rule.Message = attr.Value
			continue
		}
		param := parts[1]
		if param == "" {
			continue
		}
		if param == rules.ParamInvert {
			rule.Invert = strings.EqualFold(strings.TrimSpace(attr.Value), "true")
			continue
		}
		if rule.Params == nil {
			rule.Params = make(map[string]string)
		}
		rule.Params[param] = attr.Value
	}
	return out
}

// DecodeField wraps Decode into a FieldRules value.
func DecodeField(name string, set AttributeSet) rules.FieldRules {
	return rules.FieldRules{Name: name, Rules: Decode(set)}
}
