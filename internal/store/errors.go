package store

import "errors"

var (
	// ErrNotFound is returned by point lookups on absent ids.
	ErrNotFound = errors.New("not found")

	// ErrIntegrityViolation is returned when an insert conflicts with a
	// database constraint, e.g. a duplicate (device, type, time) value row.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrInvalidArgument is returned when a required identifier is missing.
	ErrInvalidArgument = errors.New("invalid argument")
)
