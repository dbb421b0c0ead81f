package base62

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		name     string
		alphabet string
		wantErr  bool
	}{
		{
			name:     "default alphabet",
			alphabet: DefaultAlphabet,
		},
		{
			name:     "permuted alphabet",
			alphabet: "ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlkjihgfedcba9876543210",
		},
		{
			name:     "too short",
			alphabet: "0123456789",
			wantErr:  true,
		},
		{
			name:     "too long",
			alphabet: DefaultAlphabet + "-",
			wantErr:  true,
		},
		{
			name:     "duplicate symbol",
			alphabet: "00123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXY",
			wantErr:  true,
		},
		{
			name:     "empty",
			alphabet: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.alphabet)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAlphabet)
				assert.Nil(t, enc)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.alphabet, enc.Alphabet())
		})
	}
}

func TestNewEncoder_NonASCII(t *testing.T) {
	// 60 ascii symbols plus one two-byte rune gives 62 bytes.
	alphabet := DefaultAlphabet[:60] + "é"
	require.Len(t, alphabet, 62)

	enc, err := NewEncoder(alphabet)

	assert.ErrorIs(t, err, ErrInvalidAlphabet)
	assert.Nil(t, enc)
}

func TestEncoder_Encode(t *testing.T) {
	enc, err := NewEncoder(DefaultAlphabet)
	require.NoError(t, err)

	tests := []struct {
		n    uint64
		want string
	}{
		{n: 0, want: "0"},
		{n: 1, want: "1"},
		{n: 9, want: "9"},
		{n: 10, want: "a"},
		{n: 35, want: "z"},
		{n: 36, want: "A"},
		{n: 61, want: "Z"},
		{n: 62, want: "10"},
		{n: 63, want: "11"},
		{n: 125, want: "21"},
		{n: 3843, want: "ZZ"},
		{n: 3844, want: "100"},
		{n: math.MaxUint64, want: "lYGhA16ahyf"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, enc.Encode(tt.n))
		})
	}
}

func TestEncoder_Encode_PermutedAlphabet(t *testing.T) {
	alphabet := "ZYXWVUTSRQPONMLKJIHGFEDCBAzyxwvutsrqponmlkjihgfedcba9876543210"

	enc, err := NewEncoder(alphabet)
	require.NoError(t, err)

	assert.Equal(t, "Z", enc.Encode(0))
	assert.Equal(t, "Y", enc.Encode(1))
	assert.Equal(t, "YZ", enc.Encode(62))
}

func TestEncoder_Encode_Distinct(t *testing.T) {
	enc, err := NewEncoder(DefaultAlphabet)
	require.NoError(t, err)

	const n = 20000
	seen := make(map[string]uint64, n)

	for i := uint64(0); i < n; i++ {
		key := enc.Encode(i)

		prev, dup := seen[key]
		require.Falsef(t, dup, "%d and %d both encode to %q", prev, i, key)
		seen[key] = i

		// No leading zero symbol except for zero itself.
		if i > 0 {
			assert.False(t, strings.HasPrefix(key, "0"), "key %q for %d", key, i)
		}
	}
}
