package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalid is returned by Run when fields still fail validation after
	// the allowed number of attempts.
	ErrInvalid = errors.New("tui: form still has validation errors")
)
