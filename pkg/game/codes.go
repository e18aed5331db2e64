package game

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"

	"github.com/partyline/whispered/pkg/game/constants"
)

// NewCode creates a random game code. Uniqueness is best effort; the
// caller re-generates on collision.
func NewCode() string {
	code := make([]byte, constants.CodeLength)
	for i := range code {
		n, err := crand.Int(crand.Reader, big.NewInt(int64(len(constants.CodeAlphabet))))
		if err != nil {
			// fallback to math/rand if crypto fails
			code[i] = constants.CodeAlphabet[rand.Intn(len(constants.CodeAlphabet))]
			continue
		}
		code[i] = constants.CodeAlphabet[n.Int64()]
	}
	return string(code)
}
