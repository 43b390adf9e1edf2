package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPosting is matched by errors returned from Load when a posting lacks a required field.
	ErrMalformedPosting = errors.New("malformed posting")
	// ErrJobNotFound is matched by errors returned from Catalog.Get for unknown ids.
	ErrJobNotFound = errors.New("job not found")
)

// MalformedPostingError reports the first required field missing from a raw posting.
type MalformedPostingError struct {
	Index int
	Field string
}

func (e *MalformedPostingError) Error() string {
	return fmt.Sprintf("posting #%d: required field %q is missing", e.Index, e.Field)
}

func (e *MalformedPostingError) Unwrap() error { return ErrMalformedPosting }

// JobNotFoundError reports a lookup of an id that is not in the catalog.
type JobNotFoundError struct {
	ID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with id %q not found", e.ID)
}

func (e *JobNotFoundError) Unwrap() error { return ErrJobNotFound }
