package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	mathrand "math/rand"
	"time"

	"github.com/ignite/open-tracker/internal/pkg/logger"
)

// identifierPrefix marks tokens minted by this service. The token body is
// 128 bits of entropy, so collisions are negligible well past 10^9 issuances.
const identifierPrefix = "trk_"

// Generator mints opaque tracking identifiers. The zero value is not usable;
// construct with NewGenerator. Safe for concurrent use: crypto/rand's reader
// does not serialize callers and the fallback path uses only local state.
type Generator struct {
	entropy io.Reader
}

// NewGenerator creates a generator backed by the operating system's
// cryptographic randomness source.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithSource creates a generator reading entropy from src.
// Used in tests and to observe the degraded path.
func NewGeneratorWithSource(src io.Reader) *Generator {
	return &Generator{entropy: src}
}

// NewIdentifier returns a new unique tracking identifier. If the entropy
// source fails the generator falls back to timestamp-plus-PRNG tokens;
// that mode is logged as degraded because the tokens are guessable in a
// way cryptographically random ones are not.
func (g *Generator) NewIdentifier() string {
	b := make([]byte, 16)
	if _, err := io.ReadFull(g.entropy, b); err != nil {
		logger.Warn("entropy source unavailable, minting degraded tracking identifier", "error", err.Error())
		return g.degradedIdentifier()
	}
	return identifierPrefix + hex.EncodeToString(b)
}

// degradedIdentifier combines a nanosecond timestamp with two PRNG words.
// Uniqueness still holds in practice; unguessability does not.
func (g *Generator) degradedIdentifier() string {
	return fmt.Sprintf("%s%016x%08x%08x",
		identifierPrefix,
		time.Now().UnixNano(),
		mathrand.Uint32(),
		mathrand.Uint32(),
	)
}
