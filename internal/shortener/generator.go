package shortener

import (
	"github.com/jaevor/go-nanoid"
)

// Alphabet is the character set short codes are drawn from.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultCodeLength is the length of generated short codes.
const DefaultCodeLength = 4

// CodeGenerator produces candidate short codes.
type CodeGenerator func() string

// NewRandomGenerator returns a generator of random alphanumeric codes of the given length.
func NewRandomGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}
