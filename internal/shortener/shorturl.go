package shortener

import "time"

// Code represents a short URL code.
type Code string

// ShortURL is the persisted mapping between a short code and a long URL.
type ShortURL struct {
	Code      Code
	LongURL   string
	CreatedAt time.Time // zero for entries migrated from a legacy table
}
