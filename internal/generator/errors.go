package generator

import "errors"

var (
	// ErrUnknownScoring is returned when the configured scoring system has no table.
	ErrUnknownScoring = errors.New("unknown scoring system")
	// ErrWrite wraps failures writing an output file.
	ErrWrite = errors.New("write output")
)
