package docstore

import "errors"

var (
	// ErrNotFound is returned when a collection doesn't exist and
	// Config.AutoCreate is false, or when its metadata is missing.
	ErrNotFound = errors.New("collection not found")

	// ErrUnavailable is returned when a collection file can't be parsed,
	// lacks the "data" field, or stays locked / inaccessible after
	// all retries.
	ErrUnavailable = errors.New("collection unavailable")

	// ErrReservedField is returned when a record passed to Insert, or the
	// set of an Update, has a top-level "key" field.
	ErrReservedField = errors.New(`"key" is a reserved field`)

	// ErrInvalidArgument is returned for malformed filters, records and
	// update specs.
	ErrInvalidArgument = errors.New("invalid argument")
)
