// Package invocationid mints correlation identifiers for logging and
// diagnostics. These identifiers never participate in replay: the Trace
// keys operations by call site alone, so an invocation id exists purely
// to let a human (or a diagnostics query) follow one invocation's log
// lines and diagnostics row across attempts.
package invocationid

import (
	"sync"

	"github.com/google/uuid"
)

// Generator mints invocation correlation identifiers.
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers. UUIDv7
// embeds a timestamp in its most significant bits, so identifiers sort
// chronologically, which is convenient when scanning a diagnostics store
// or log stream for the most recent invocations.
//
// UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined identifiers in order, for
// deterministic tests and golden-file comparisons.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator returns a generator that yields tokens in the given
// order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token. Panics once every token
// has been consumed — a misconfigured test is a bug, not a runtime
// condition to handle gracefully.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("invocationid: FixedGenerator exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
