// Package sluggen generates random short-link aliases.
// Generators are safe for concurrent use.
package sluggen

import (
	"crypto/rand"
	"errors"
)

const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generator produces random alias tokens. Collision probability is not
// bounded; callers must re-check against the store.
type Generator interface {
	Generate(length int) (string, error)
}

type base62Generator struct{}

// NewBase62 returns a generator producing base62 tokens from crypto/rand.
func NewBase62() Generator {
	return &base62Generator{}
}

func (g *base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = base62Chars[int(b[i])%len(base62Chars)]
	}

	return string(b), nil
}
