package random

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Random is the source of randomness behind guest names and computer choices
type Random interface {
	// Intn returns a random int in [0, n), or 0 when n <= 0
	Intn(n int) int

	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// Secure draws from crypto/rand
type Secure struct{}

// New creates a new Secure source
func New() Secure {
	return Secure{}
}

// Intn returns a uniformly distributed int in [0, n)
func (Secure) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// String generates a random string of the given length from the given alphabet
func (s Secure) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(alphabet[s.Intn(len(alphabet))])
	}
	return b.String()
}

// Pick returns a random element of items. items must not be empty.
func Pick[T any](r Random, items []T) T {
	return items[r.Intn(len(items))]
}
