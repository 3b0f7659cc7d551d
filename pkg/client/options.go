package client

import (
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard/pkg/rules"
)

// Theme token keys for the validation classes.
const (
	TokenMessageError = "validation.message.error"
	TokenMessageValid = "validation.message.valid"
	TokenInputError   = "validation.input.error"
	TokenInputValid   = "validation.input.valid"
)

// Classes are the CSS classes toggled on targets and elements.
type Classes struct {
	MessageError string
	MessageValid string
	InputError   string
	InputValid   string
}

// DefaultClasses returns the unobtrusive validation class names.
func DefaultClasses() Classes {
	return Classes{
		MessageError: "field-validation-error",
		MessageValid: "field-validation-valid",
		InputError:   "input-validation-error",
		InputValid:   "input-validation-valid",
	}
}

// ClassesFromTheme reads class names from the theme tokens, keeping defaults
// for tokens the theme does not define.
func ClassesFromTheme(cfg *theme.RendererConfig) Classes {
	classes := DefaultClasses()
	if cfg == nil {
		return classes
	}
	pick := func(token string, dst *string) {
		if v := strings.TrimSpace(cfg.Tokens[token]); v != "" {
			*dst = v
		}
	}
	pick(TokenMessageError, &classes.MessageError)
	pick(TokenMessageValid, &classes.MessageValid)
	pick(TokenInputError, &classes.InputError)
	pick(TokenInputValid, &classes.InputValid)
	return classes
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry sets the kind registry used to run checks.
func WithRegistry(reg *rules.Registry) Option {
	return func(e *Evaluator) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithRemoteChecker sets the checker used for remote rules. Without one,
// remote rules are skipped.
func WithRemoteChecker(rc RemoteChecker) Option {
	return func(e *Evaluator) {
		e.remote = rc
	}
}

// WithClasses overrides the validation classes.
func WithClasses(c Classes) Option {
	return func(e *Evaluator) {
		e.classes = c
	}
}

// WithTheme resolves the validation classes from theme tokens.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(e *Evaluator) {
		e.classes = ClassesFromTheme(cfg)
	}
}

// WithPolicy replaces the sanitising policy applied to displayed messages.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(e *Evaluator) {
		if p != nil {
			e.policy = p
		}
	}
}
