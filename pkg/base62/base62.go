// Package base62 encodes non-negative integers as compact alphanumeric strings.
package base62

import (
	"errors"
	"fmt"
)

// DefaultAlphabet is the digits, then lowercase, then uppercase letters.
const DefaultAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const radix = 62

// ErrInvalidAlphabet is returned when an alphabet is not 62 distinct single-byte symbols.
var ErrInvalidAlphabet = errors.New("alphabet must contain 62 distinct symbols")

// Encoder maps integers to strings using positional notation over a fixed alphabet.
// Symbol order matters: the same number encodes differently under a permuted alphabet.
type Encoder struct {
	alphabet string
}

// NewEncoder returns an Encoder for the given alphabet.
func NewEncoder(alphabet string) (*Encoder, error) {
	const op = "base62.NewEncoder"

	if len(alphabet) != radix {
		return nil, fmt.Errorf("%s: got %d symbols: %w", op, len(alphabet), ErrInvalidAlphabet)
	}

	var seen [256]bool
	for i := 0; i < len(alphabet); i++ {
		c := alphabet[i]
		if c >= 0x80 {
			return nil, fmt.Errorf("%s: non-ascii symbol at %d: %w", op, i, ErrInvalidAlphabet)
		}
		if seen[c] {
			return nil, fmt.Errorf("%s: duplicate symbol %q: %w", op, c, ErrInvalidAlphabet)
		}
		seen[c] = true
	}

	return &Encoder{alphabet: alphabet}, nil
}

// Encode returns the base62 representation of n, most significant digit first.
// Zero encodes to the first symbol of the alphabet.
func (e *Encoder) Encode(n uint64) string {
	if n == 0 {
		return e.alphabet[:1]
	}

	// 11 digits cover the whole uint64 range.
	var buf [11]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = e.alphabet[n%radix]
		n /= radix
	}

	return string(buf[i:])
}

// Alphabet returns the symbols used by e.
func (e *Encoder) Alphabet() string {
	return e.alphabet
}
