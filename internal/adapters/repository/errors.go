package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateChallenge = errors.New("challenge title already exists")
)
