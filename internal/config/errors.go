package config

import (
	"errors"
	"fmt"
)

// Sentinel kinds for configuration errors.
var (
	ErrEmptyAddr         = errors.New("addr must not be empty")
	ErrEmptyStorePath    = errors.New("store_path must not be empty")
	ErrEmptyDatabasePath = errors.New("database_path must not be empty")
	ErrLoad              = errors.New("config load failed")
)

func wrapLoad(err error) error {
	return fmt.Errorf("%w: %w", ErrLoad, err)
}
