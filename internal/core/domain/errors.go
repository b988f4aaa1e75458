package domain

import "errors"

var (
	// ErrUnknownBody is returned alongside the generic unknown-body record.
	ErrUnknownBody = errors.New("unknown body")

	// ErrUnknownDataset means no dataset with the given id is configured.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrNoCorrection signals that the identity correction was used.
	ErrNoCorrection = errors.New("no alignment correction found")

	// ErrInvalidCorrection rejects a correction record on write.
	ErrInvalidCorrection = errors.New("invalid alignment correction")

	// ErrNotFound is returned by stores for missing keys.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput rejects malformed request parameters.
	ErrInvalidInput = errors.New("invalid input")
)
