package repository

import "errors"

var (
	// ErrInvalidInput is returned when a required field is missing or empty
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists is returned when a username is already registered
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when a lookup finds nothing
	ErrNotFound = errors.New("not found")
	// ErrStorageUnavailable is returned when the backing file or database cannot be used
	ErrStorageUnavailable = errors.New("storage unavailable")
)
