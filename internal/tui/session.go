// Package tui drives a client form from a terminal: every field is prompted,
// validated on blur like a browser would, and the form is submitted through
// the client submit gate. Fields the server rejects are prompted again.
package tui

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formguard/pkg/client"
)

// Theme holds the prefixes printed before messages.
type Theme struct {
	ErrorPrefix string
	InfoPrefix  string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTheme sets the message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithMaxRounds bounds the number of submit attempts.
func WithMaxRounds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithFieldRetries bounds how often one field is prompted again after a
// failed blur validation before moving on.
func WithFieldRetries(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.fieldRetries = n
		}
	}
}

// Session runs one form.
type Session struct {
	evaluator    *client.Evaluator
	submitter    *client.Submitter
	driver       PromptDriver
	theme        Theme
	maxRounds    int
	fieldRetries int
}

// NewSession builds a session over the evaluator and submitter.
func NewSession(e *client.Evaluator, sub *client.Submitter, opts ...Option) *Session {
	s := &Session{
		evaluator:    e,
		submitter:    sub,
		driver:       NewSurveyDriver(),
		theme:        Theme{ErrorPrefix: "✗ ", InfoPrefix: "✓ "},
		maxRounds:    3,
		fieldRetries: 2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts every field of f and submits it to action. The result of the
// last attempt is returned; ErrTooManyRounds accompanies a form that never
// passed.
func (s *Session) Run(ctx context.Context, f *client.Form, action string) (client.SubmitResult, error) {
	s.evaluator.Attach(f)

	pending := f.Names()
	var result client.SubmitResult
	for round := 0; round < s.maxRounds; round++ {
		for _, name := range pending {
			if err := s.promptField(ctx, f, name); err != nil {
				return result, err
			}
		}

		var err error
		result, err = s.submitter.Submit(ctx, f, action)
		if err != nil {
			return result, err
		}
		if result.OK() {
			return result, s.driver.Info(ctx, s.theme.InfoPrefix+"submitted")
		}
		for _, msg := range result.FormErrors {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+msg); err != nil {
				return result, err
			}
		}
		pending = failing(f, result)
		if len(pending) == 0 {
			return result, fmt.Errorf("tui: server rejected the form with status %d", result.Status)
		}
	}
	return result, ErrTooManyRounds
}

// failing lists the fields with errors in form order.
func failing(f *client.Form, result client.SubmitResult) []string {
	var out []string
	for _, name := range f.Names() {
		if result.Errors.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Session) promptField(ctx context.Context, f *client.Form, name string) error {
	el := f.Element(name)
	if el == nil || el.Hidden() || el.Disabled() {
		return nil
	}
	for attempt := 0; ; attempt++ {
		if msg := f.Target(name); msg != nil && msg.Visible() {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+msg.Text()); err != nil {
				return err
			}
		}
		errs, err := s.ask(ctx, el)
		if err != nil {
			return err
		}
		if len(errs) == 0 || attempt >= s.fieldRetries {
			return nil
		}
	}
}

func (s *Session) ask(ctx context.Context, el *client.Element) ([]string, error) {
	label := el.Label()
	switch el.Type() {
	case client.InputCheckbox:
		v, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: el.Checked()})
		if err != nil {
			return nil, err
		}
		el.SetChecked(v)
		return s.evaluator.Dispatch(ctx, el, client.EventChange), nil
	case client.InputPassword:
		v, err := s.driver.Password(ctx, InputConfig{Message: label})
		if err != nil {
			return nil, err
		}
		el.SetValue(v)
	default:
		v, err := s.driver.Input(ctx, InputConfig{Message: label, Default: el.Value()})
		if err != nil {
			return nil, err
		}
		el.SetValue(v)
	}
	return s.evaluator.Dispatch(ctx, el, client.EventBlur), nil
}
