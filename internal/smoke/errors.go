package smoke

import "errors"

var (
	// ErrStatus is returned for non-200 responses.
	ErrStatus = errors.New("unexpected status")
	// ErrNoRankings is returned when the server has nothing loaded.
	ErrNoRankings = errors.New("no rankings loaded")
	// ErrProblems is returned when any ranking failed verification.
	ErrProblems = errors.New("verification problems found")
)
