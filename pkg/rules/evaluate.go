package rules

import "errors"

// Env carries what an evaluation needs besides the field value.
type Env struct {
	Registry *Registry
	Snapshot Snapshot
	// DependentMissing is called when a conditional rule names a field the
	// snapshot does not know. Returning nil leaves the rule inert; returning an
	// error aborts the evaluation.
	DependentMissing func(rule Rule, err error) error
}

// Failure is the first rule a value violated.
type Failure struct {
	Rule    Rule
	Message string
}

// Evaluate runs the synchronous rules of field against value and returns the
// first failure. Presence rules run first, conditional rules are resolved next,
// a blank value then short-circuits to success, and the remaining kinds run in
// declaration order. Async kinds and kinds the registry does not know are
// skipped.
func Evaluate(field FieldRules, value Value, env Env) (Failure, bool, error) {
	reg := env.Registry
	if reg == nil {
		reg = Default()
	}

	if rule, ok := field.Rule(KindRequired); ok && value.Missing() {
		return Failure{Rule: rule, Message: rule.Message}, true, nil
	}

	for _, rule := range field.Rules {
		if !rule.Kind.Conditional() {
			continue
		}
		armed, err := Armed(rule, env.Snapshot)
		if err != nil {
			if env.DependentMissing != nil {
				if abort := env.DependentMissing(rule, err); abort != nil {
					return Failure{}, false, abort
				}
				continue
			}
			if errors.Is(err, ErrMissingDependentField) {
				continue
			}
			return Failure{}, false, err
		}
		if armed && value.Missing() {
			return Failure{Rule: rule, Message: rule.Message}, true, nil
		}
	}

	for _, rule := range field.Rules {
		if rule.Kind == KindRequired || rule.Kind.Conditional() {
			continue
		}
		spec, ok := reg.Lookup(rule.Kind)
		if !ok || !spec.Presence || spec.Async {
			continue
		}
		if !spec.Check(value, rule, env.Snapshot) {
			return Failure{Rule: rule, Message: rule.Message}, true, nil
		}
	}

	if value.Blank() {
		return Failure{}, false, nil
	}

	for _, rule := range field.Rules {
		spec, ok := reg.Lookup(rule.Kind)
		if !ok || spec.Presence || spec.Async {
			continue
		}
		if !spec.Check(value, rule, env.Snapshot) {
			return Failure{Rule: rule, Message: rule.Message}, true, nil
		}
	}
	return Failure{}, false, nil
}
