package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyRounds is returned when the form is still rejected after the
	// configured number of submit attempts.
	ErrTooManyRounds = errors.New("tui: form still invalid after the last attempt")
)
