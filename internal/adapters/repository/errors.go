package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("ranking not found")
	ErrEmptyID  = errors.New("ranking id is empty")
	ErrCodec    = errors.New("ranking encoding failed")
)
