package config

import "errors"

var (
	// ErrInvalidConfig is returned when a loaded value fails validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrConfigNotFound is returned when an explicit config path does not exist.
	ErrConfigNotFound = errors.New("config: file not found")
)
