package shortener

import "context"

// Repository is the table adapter the Engine depends on.
type Repository interface {
	// Insert stores the entry only if its code is not taken yet.
	// Returns ErrAlreadyExists when another entry owns the code.
	Insert(ctx context.Context, shortURL *ShortURL) error

	// GetByCode performs a consistent point lookup by primary key.
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)

	// GetByURL finds the entry holding longURL. Implementations scan the
	// whole table, so the cost grows with the number of entries.
	GetByURL(ctx context.Context, longURL string) (*ShortURL, error)
}
