package draw

import (
	"math/rand/v2"
	"strconv"

	crerr "github.com/cockroachdb/errors"
)

// AlphabetSize is the number of distinct symbols a draw picks from.
// Symbols are the decimal strings "1".."25".
const AlphabetSize = 25

// Alphabet returns the full symbol alphabet.
func Alphabet() []string {
	out := make([]string, 0, AlphabetSize)
	for i := 1; i <= AlphabetSize; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

// InAlphabet reports whether s is a valid draw symbol.
func InAlphabet(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1 && n <= AlphabetSize
}

// GenerateSymbols returns count symbols drawn independently and uniformly
// at random from the alphabet. count must be positive.
func GenerateSymbols(count int) ([]string, error) {
	if count <= 0 {
		return nil, crerr.Newf("symbol count must be positive, got %d", count)
	}

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, strconv.Itoa(rand.IntN(AlphabetSize)+1))
	}
	return out, nil
}
