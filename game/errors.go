package game

import "errors"

var (
	// ErrGeneration means a round's series could not be built; the round never starts.
	ErrGeneration = errors.New("series generation failed")

	// ErrPersistence wraps result sink failures. It is advisory only.
	ErrPersistence = errors.New("failed to persist round result")

	// ErrInvalidTransition is returned by the clock when an operation does not
	// fit its current state. The machine swallows it.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidInput is returned when a series is too short to classify.
	ErrInvalidInput = errors.New("series needs at least 2 bars")

	ErrNoIdentity = errors.New("user id is required to start a round")
)
