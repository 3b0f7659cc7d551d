package rules

// Snapshot resolves field values by name. The second result is false when the
// field does not exist at all, as opposed to existing without a value.
type Snapshot interface {
	Lookup(name string) (Value, bool)
}

// MapSnapshot is a Snapshot backed by a plain map.
type MapSnapshot map[string]Value

// Lookup implements Snapshot.
func (m MapSnapshot) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Armed decides whether a conditional rule applies to the current snapshot.
// Without an expected value the dependent field is tested for truthiness,
// otherwise it is compared with EqualFold. Inverted rules negate the result.
// The error is ErrMissingDependentField when the snapshot has no such field.
func Armed(rule Rule, snap Snapshot) (bool, error) {
	dep := rule.DependentProperty()
	if dep == "" {
		return false, ErrInvalidRule
	}
	if snap == nil {
		return false, ErrMissingDependentField
	}
	actual, ok := snap.Lookup(dep)
	if !ok {
		return false, ErrMissingDependentField
	}

	var match bool
	if expected, ok := rule.ExpectedValue(); ok {
		match = actual.EqualFold(expected)
	} else {
		match = actual.Truthy()
	}
	if rule.Inverted() {
		return !match, nil
	}
	return match, nil
}
