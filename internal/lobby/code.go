// internal/lobby/code.go
package lobby

import (
	"crypto/rand"
	"math/big"
)

const (
	// DefaultCodeLength is the length of generated lobby codes.
	DefaultCodeLength = 6
	// CodeAlphabet holds the 32 symbols codes are drawn from. 0/O and 1/I are
	// left out so codes can be read aloud and typed without ambiguity.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Random is the source of randomness behind code generation. Tests swap in a
// deterministic implementation.
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// CryptoRandom implements Random using crypto/rand.
type CryptoRandom struct{}

// Intn returns a cryptographically random int in [0, n).
func (CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand does not fail on supported platforms
		return 0
	}
	return int(v.Int64())
}

// CodeGenerator produces short human-typable lobby codes.
//
// It does not check uniqueness; the Manager retries against the LobbyStore.
// With the default length there are 32^6 (about 1.07e9) codes, so with n live
// lobbies a single draw collides with probability n/32^6. Even 10,000 live
// lobbies give roughly a 1 in 100,000 chance per draw.
type CodeGenerator struct {
	Length int
	Random Random
}

// NewCodeGenerator returns a generator of the given length backed by crypto/rand.
// A non-positive length selects DefaultCodeLength.
func NewCodeGenerator(length int) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &CodeGenerator{Length: length, Random: CryptoRandom{}}
}

// Next returns a fresh code drawn uniformly from CodeAlphabet.
func (g *CodeGenerator) Next() string {
	buf := make([]byte, g.Length)
	for i := range buf {
		buf[i] = CodeAlphabet[g.Random.Intn(len(CodeAlphabet))]
	}
	return string(buf)
}
