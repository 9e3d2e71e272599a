package container

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// NameLength is the length of generated container names.
	NameLength = 10

	nameCharset = "abcdefghijklmnopqrstuvwxyz"
)

// NameGenerator produces random lowercase alphabetic container names.
// It is safe for concurrent use.
type NameGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewNameGenerator returns a generator drawing from src. A nil src seeds
// from the clock.
func NewNameGenerator(src rand.Source) *NameGenerator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &NameGenerator{rnd: rand.New(src)}
}

// Generate returns a new NameLength-character name.
func (g *NameGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := make([]byte, NameLength)
	for i := range b {
		b[i] = nameCharset[g.rnd.IntN(len(nameCharset))]
	}
	return string(b)
}
