package source

import "errors"

var (
	// ErrMissingColumns is returned when a file lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrNoInput is returned when no pattern matched any file.
	ErrNoInput = errors.New("no input files matched")
)
