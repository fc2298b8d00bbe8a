package config

import "errors"

var (
	// ErrInvalidConfig is returned by Validate for settings the server or the
	// generator cannot run with.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps YAML, env and decoding failures in Load.
	ErrLoadConfig = errors.New("load config failed")
)
