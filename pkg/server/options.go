package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formguard/pkg/model"
	"github.com/goliatone/go-formguard/pkg/rules"
)

// Recorder receives validation telemetry. internal/metrics implements it.
type Recorder interface {
	ObserveValidation(schema string, elapsed time.Duration, valid bool)
	ObserveFieldFailure(schema, field, kind string)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry sets the kind registry used for compiling and evaluating.
func WithRegistry(reg *rules.Registry) Option {
	return func(e *Evaluator) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithCompiler shares a model compiler, and its cache, with other components.
func WithCompiler(c *model.Compiler) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.compiler = c
		}
	}
}

// WithLogger sets the evaluator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithRecorder installs a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) {
		e.recorder = r
	}
}
