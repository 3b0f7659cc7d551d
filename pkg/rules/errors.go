package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when a rule references a kind nobody registered.
	ErrUnknownKind = errors.New("rules: unknown kind")
	// ErrMissingDependentField is returned when a conditional rule names a
	// dependent field that does not exist on the model.
	ErrMissingDependentField = errors.New("rules: dependent field not found")
	// ErrInvalidRule is returned for malformed rule declarations.
	ErrInvalidRule = errors.New("rules: invalid rule")
	// ErrDuplicateKind is returned when registering a kind twice.
	ErrDuplicateKind = errors.New("rules: kind already registered")
)

// FieldError decorates a declaration error with the field and kind involved.
type FieldError struct {
	Field string
	Kind  Kind
	Err   error
}

func (e *FieldError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%v (field %q)", e.Err, e.Field)
	}
	return fmt.Sprintf("%v (field %q, kind %q)", e.Err, e.Field, e.Kind)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
