package domain

import "errors"

var (
	// ErrMissingField marks a journal entry that lacks a field a derivation
	// rule requires. Caught per event; the stream keeps going.
	ErrMissingField = errors.New("missing journal field")

	// ErrNoReply marks a delivery that exhausted its attempts without any
	// reply from the service.
	ErrNoReply = errors.New("no reply from telemetry service")
)
