package ports

import "errors"

// Standard repository errors
var (
	// ErrNotFound is returned when the requested entity is not found
	ErrNotFound = errors.New("entity not found")
	// ErrAlreadyExists is returned when an insert hits an existing entity
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrInvalidArgument marks programmer errors: missing or malformed arguments
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRegistryClosed is returned by a registry after Close
	ErrRegistryClosed = errors.New("registry is closed")
)
