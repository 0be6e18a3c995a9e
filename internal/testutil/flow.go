package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator hands out request ids "<prefix>-0001",
// "<prefix>-0002", ... in call order.
//
// Unlike engine.FixedGenerator it never runs out, which suits scenario runs
// where the number of requests is not known up front. The same scenario with
// a fresh generator produces byte-identical traces.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix uses "req".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.RequestIDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
