package shortener

import "errors"

var (
	// ErrNotFound is returned when no mapping exists for a code or URL.
	ErrNotFound = errors.New("url not found")

	// ErrAlreadyExists is returned by a conditional insert when the code is already taken.
	ErrAlreadyExists = errors.New("short code already exists")

	// ErrStorageUnavailable wraps any unexpected failure of the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrKeySpaceExhausted is returned when no free code was found within the attempt ceiling.
	ErrKeySpaceExhausted = errors.New("short code space exhausted")

	// ErrInvalidURL is returned for input that is empty after normalization.
	ErrInvalidURL = errors.New("invalid url")
)
